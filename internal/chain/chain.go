package chain

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/checkpoint"
	"github.com/GT-610/chaos-translator/internal/language"
	"github.com/GT-610/chaos-translator/internal/logger"
)

const (
	DefaultPaceMin = 500 * time.Millisecond
	DefaultPaceMax = 1500 * time.Millisecond

	debugPreviewLen = 80
)

// Translator is the capability the orchestrator drives.
type Translator interface {
	Translate(ctx context.Context, text, src, dest string) (string, error)
	Detect(ctx context.Context, text string) (string, error)
}

// Status is the terminal state of a chain run.
type Status string

const (
	StatusSuccess         Status = "Success"
	StatusFailure         Status = "Failure"
	StatusCanceled        Status = "Canceled"
	StatusAlreadyComplete Status = "Already Complete"
)

// State is the mutable progress of a chain.
type State struct {
	Text      string
	Path      []Step
	Completed int
	Source    string
}

// Result is the outcome of Run or Resume. Text and Path are empty unless the chain
// finished (StatusSuccess or StatusAlreadyComplete).
type Result struct {
	Status         Status
	Text           string
	Path           []Step
	Completed      int
	Total          int
	CheckpointPath string
	Err            error
}

// PathStrings renders the path as stored in checkpoints.
func (r Result) PathStrings() []string {
	return FormatPath(r.Path)
}

// StepEvent is emitted after every completed iteration.
type StepEvent struct {
	Iteration int
	Total     int
	Step      Step
	Source    string
	Input     string
	Output    string
	Detected  string
	Path      []Step
}

// Orchestrator drives a single translation chain. It is not safe for concurrent use.
type Orchestrator struct {
	catalog        *language.Catalog
	tr             Translator
	rng            *rand.Rand
	sleep          func(ctx context.Context, d time.Duration) error
	paceMin        time.Duration
	paceMax        time.Duration
	checkpointPath string
	everyStep      bool
	onStep         func(StepEvent)

	saved bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRand sets the source of randomness for target selection and pacing.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithSleeper replaces the pacing wait.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithPacing sets the range of the random pause between iterations.
func WithPacing(min, max time.Duration) Option {
	return func(o *Orchestrator) {
		o.paceMin = min
		o.paceMax = max
	}
}

// WithCheckpoint enables checkpoints at path. When everyStep is false only terminal
// failures and interrupts are persisted.
func WithCheckpoint(path string, everyStep bool) Option {
	return func(o *Orchestrator) {
		o.checkpointPath = path
		o.everyStep = everyStep
	}
}

// WithStepCallback registers a callback invoked after each iteration.
func WithStepCallback(fn func(StepEvent)) Option {
	return func(o *Orchestrator) { o.onStep = fn }
}

// New creates an Orchestrator over catalog and tr.
func New(catalog *language.Catalog, tr Translator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:   catalog,
		tr:        tr,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     sleepContext,
		paceMin:   DefaultPaceMin,
		paceMax:   DefaultPaceMax,
		everyStep: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run translates text through total hops starting from src.
// Provider failures are reported in the Result, not as an error.
func (o *Orchestrator) Run(ctx context.Context, text, src string, total int) (Result, error) {
	origin, err := o.validate(src, total)
	if err != nil {
		return Result{}, err
	}
	state := &State{Text: text, Source: origin}
	return o.run(ctx, state, origin, total)
}

// Resume continues a chain from cp. The returned path starts with the checkpoint's path.
func (o *Orchestrator) Resume(ctx context.Context, cp *checkpoint.Checkpoint, src string, total int) (Result, error) {
	origin, err := o.validate(src, total)
	if err != nil {
		return Result{}, err
	}
	if cp == nil {
		return Result{}, fmt.Errorf("checkpoint is required to resume")
	}
	if err := cp.Validate(); err != nil {
		return Result{}, apperrors.CheckpointCorrupt(o.checkpointPath, err)
	}
	steps, err := ParsePath(cp.Path)
	if err != nil {
		return Result{}, apperrors.CheckpointCorrupt(o.checkpointPath, err)
	}

	remaining := total - cp.Iteration
	if remaining <= 0 {
		logger.Info("Chain already complete", "completed", cp.Iteration, "total", total)
		return Result{
			Status:         StatusAlreadyComplete,
			Text:           cp.Text,
			Path:           steps,
			Completed:      cp.Iteration,
			Total:          total,
			CheckpointPath: o.checkpointPath,
		}, nil
	}

	source := origin
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Outcome == OutcomeSuccess {
			source = steps[i].Target
			break
		}
	}
	if !o.catalog.Has(source) {
		return Result{}, apperrors.CheckpointCorrupt(o.checkpointPath, apperrors.UnknownLanguage(source))
	}

	logger.Info("Resuming chain", "completed", cp.Iteration, "remaining", remaining, "source", source)
	state := &State{Text: cp.Text, Path: steps, Completed: cp.Iteration, Source: source}
	return o.run(ctx, state, origin, total)
}

func (o *Orchestrator) validate(src string, total int) (string, error) {
	if total < 1 {
		return "", fmt.Errorf("iterations must be at least 1, got %d", total)
	}
	origin := language.Normalize(src)
	if !o.catalog.Has(origin) {
		return "", apperrors.UnknownLanguage(src)
	}
	return origin, nil
}

func (o *Orchestrator) run(ctx context.Context, state *State, origin string, total int) (Result, error) {
	o.saved = false
	for i := state.Completed; i < total; i++ {
		if ctx.Err() != nil {
			return o.interrupted(ctx, state, total), nil
		}

		target := origin
		if i != total-1 {
			target = o.catalog.PickRandomEligible(o.rng)
		}
		name, err := o.catalog.DisplayName(target)
		if err != nil {
			return Result{}, err
		}

		input := state.Text
		output, err := o.tr.Translate(ctx, input, state.Source, target)
		if err != nil {
			if ctx.Err() != nil {
				return o.interrupted(ctx, state, total), nil
			}
			logger.Error("Iteration failed", "iteration", i+1, "total", total, "source", state.Source, "target", target, "error", apperrors.PublicMessage(err))
			return o.failed(state, total, err), nil
		}

		step := Step{Target: target, Name: name}
		event := StepEvent{Iteration: i + 1, Total: total, Source: state.Source, Input: input, Output: output}
		if output == input {
			step.Outcome = OutcomeFailed
			event.Detected = o.selfCorrect(ctx, state)
		} else {
			state.Text = output
			state.Source = target
		}
		state.Path = append(state.Path, step)
		state.Completed = i + 1

		event.Step = step
		event.Path = state.Path
		o.logStep(event)
		if o.onStep != nil {
			o.onStep(event)
		}

		if o.everyStep {
			o.persist(state)
		}

		if i < total-1 {
			if err := o.pace(ctx); err != nil {
				return o.interrupted(ctx, state, total), nil
			}
		}
	}

	return Result{
		Status:         StatusSuccess,
		Text:           state.Text,
		Path:           state.Path,
		Completed:      state.Completed,
		Total:          total,
		CheckpointPath: o.reportedCheckpoint(),
	}, nil
}

// selfCorrect re-detects the language of the unchanged text and adopts it as the source.
func (o *Orchestrator) selfCorrect(ctx context.Context, state *State) string {
	detected, err := o.tr.Detect(ctx, state.Text)
	if err != nil {
		logger.Warn("Language detection failed, keeping source", "source", state.Source, "error", apperrors.PublicMessage(err))
		return ""
	}
	detected = language.Normalize(detected)
	if !o.catalog.Has(detected) {
		logger.Warn("Detected language is not in the catalog, keeping source", "source", state.Source, "detected", detected)
		return ""
	}
	logger.Warn("Translation returned unchanged text, source language corrected", "previous", state.Source, "detected", detected)
	state.Source = detected
	return detected
}

func (o *Orchestrator) failed(state *State, total int, cause error) Result {
	o.persist(state)
	return Result{
		Status:         StatusFailure,
		Completed:      state.Completed,
		Total:          total,
		CheckpointPath: o.reportedCheckpoint(),
		Err:            cause,
	}
}

func (o *Orchestrator) interrupted(ctx context.Context, state *State, total int) Result {
	logger.Warn("Chain interrupted", "completed", state.Completed, "total", total)
	o.persist(state)
	return Result{
		Status:         StatusCanceled,
		Completed:      state.Completed,
		Total:          total,
		CheckpointPath: o.reportedCheckpoint(),
		Err:            context.Cause(ctx),
	}
}

func (o *Orchestrator) persist(state *State) {
	if o.checkpointPath == "" {
		return
	}
	cp := checkpoint.Checkpoint{
		Text:      state.Text,
		Path:      FormatPath(state.Path),
		Iteration: state.Completed,
	}
	if checkpoint.Save(o.checkpointPath, cp) {
		o.saved = true
	}
}

func (o *Orchestrator) reportedCheckpoint() string {
	if o.saved {
		return o.checkpointPath
	}
	return ""
}

func (o *Orchestrator) pace(ctx context.Context) error {
	d := o.paceMin
	if o.paceMax > o.paceMin {
		d += time.Duration(o.rng.Int63n(int64(o.paceMax-o.paceMin) + 1))
	}
	if d <= 0 {
		return ctx.Err()
	}
	return o.sleep(ctx, d)
}

func (o *Orchestrator) logStep(e StepEvent) {
	path := strings.Join(FormatPath(e.Path), " → ")
	if e.Step.Outcome == OutcomeSuccess {
		logger.Info("Iteration succeeded", "iteration", e.Iteration, "total", e.Total, "source", e.Source, "target", e.Step.Target, "path", path)
	} else {
		logger.Warn("Iteration made no change", "iteration", e.Iteration, "total", e.Total, "source", e.Source, "target", e.Step.Target, "path", path)
	}
	logger.Debug("Iteration detail",
		"origin_language", fmt.Sprintf("%s(%s)", strings.ToUpper(o.displayOrAuto(e.Source)), e.Source),
		"target_language", fmt.Sprintf("%s(%s)", strings.ToUpper(e.Step.Name), e.Step.Target),
		"before", Preview(e.Input, debugPreviewLen),
		"after", Preview(e.Output, debugPreviewLen),
	)
}

func (o *Orchestrator) displayOrAuto(code string) string {
	if name, err := o.catalog.DisplayName(code); err == nil {
		return name
	}
	return "auto"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
