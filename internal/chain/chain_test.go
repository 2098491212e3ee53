package chain

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/checkpoint"
	"github.com/GT-610/chaos-translator/internal/language"
	"github.com/GT-610/chaos-translator/internal/provider"
	"github.com/GT-610/chaos-translator/internal/translator"
)

// appendTranslator marks every hop in the text so each call changes it deterministically.
type appendTranslator struct {
	calls []provider.Call
}

func (a *appendTranslator) Translate(ctx context.Context, text, src, dest string) (string, error) {
	a.calls = append(a.calls, provider.Call{Text: text, Src: src, Dest: dest})
	return text + ">" + dest, nil
}

func (a *appendTranslator) Detect(ctx context.Context, text string) (string, error) {
	return "", errors.New("not used")
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func newMockTranslator(t *testing.T, mock *provider.MockClient, retries int) *translator.Translator {
	t.Helper()
	tr, err := translator.New(mock.Factory(), translator.WithMaxRetries(retries), translator.WithBaseDelay(0))
	if err != nil {
		t.Fatalf("translator.New failed: %v", err)
	}
	return tr
}

func newOrchestrator(tr Translator, opts ...Option) *Orchestrator {
	base := []Option{
		WithRand(rand.New(rand.NewSource(42))),
		WithSleeper(noSleep),
		WithPacing(0, 0),
	}
	return New(language.Default(), tr, append(base, opts...)...)
}

func TestRun_RoundTripClosure(t *testing.T) {
	for total := 1; total <= 6; total++ {
		tr := &appendTranslator{}
		o := newOrchestrator(tr)
		res, err := o.Run(context.Background(), "hello", "EN", total)
		if err != nil {
			t.Fatalf("total=%d: Run failed: %v", total, err)
		}
		if res.Status != StatusSuccess {
			t.Fatalf("total=%d: expected success, got %s", total, res.Status)
		}
		if len(res.Path) != total {
			t.Fatalf("total=%d: expected path length %d, got %d", total, total, len(res.Path))
		}
		last := res.Path[len(res.Path)-1]
		if last.Target != "en" {
			t.Fatalf("total=%d: last hop must target en, got %s", total, last.Target)
		}
		if tr.calls[len(tr.calls)-1].Dest != "en" {
			t.Fatalf("total=%d: last provider call must target en", total)
		}
		if tr.calls[0].Src != "en" {
			t.Fatalf("total=%d: first call should use normalized source, got %q", total, tr.calls[0].Src)
		}
		for i, s := range res.Path[:total-1] {
			if !language.Default().IsEligible(s.Target) {
				t.Fatalf("total=%d: hop %d targets ineligible %q", total, i, s.Target)
			}
		}
	}
}

func TestRun_SourceFollowsLastSuccess(t *testing.T) {
	tr := &appendTranslator{}
	o := newOrchestrator(tr)
	res, err := o.Run(context.Background(), "hello", "en", 4)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i := 1; i < len(tr.calls); i++ {
		if tr.calls[i].Src != res.Path[i-1].Target {
			t.Fatalf("call %d src = %q, want previous target %q", i, tr.calls[i].Src, res.Path[i-1].Target)
		}
		if tr.calls[i].Text != tr.calls[i-1].Text+">"+tr.calls[i-1].Dest {
			t.Fatalf("call %d did not receive previous output", i)
		}
	}
}

func TestRun_NoOpStepsThenSuccess(t *testing.T) {
	mock := &provider.MockClient{
		Replies: []provider.Reply{
			{Identity: true},
			{Identity: true},
			{Text: "translated back"},
		},
		DetectLang: "en",
	}
	o := newOrchestrator(newMockTranslator(t, mock, 3))

	res, err := o.Run(context.Background(), "original text", "en", 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Path) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(res.Path))
	}
	if res.Path[0].Outcome != OutcomeFailed || res.Path[1].Outcome != OutcomeFailed {
		t.Fatalf("expected first two steps failed, got %v", res.PathStrings())
	}
	if res.Path[2].Outcome != OutcomeSuccess || res.Path[2].Target != "en" {
		t.Fatalf("expected final step success to en, got %v", res.Path[2])
	}
	for i, call := range mock.Calls {
		if call.Text != "original text" {
			t.Fatalf("call %d received advanced text %q", i, call.Text)
		}
	}
	if mock.DetectCalls != 2 {
		t.Fatalf("expected 2 detections, got %d", mock.DetectCalls)
	}
	if res.Text != "translated back" {
		t.Fatalf("unexpected final text %q", res.Text)
	}
}

func TestRun_NoOpAdoptsDetectedLanguage(t *testing.T) {
	mock := &provider.MockClient{
		Replies:    []provider.Reply{{Identity: true}, {Text: "changed"}},
		DetectLang: "DE",
	}
	o := newOrchestrator(newMockTranslator(t, mock, 1))

	res, err := o.Run(context.Background(), "hallo welt", "en", 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Path[0].Outcome != OutcomeFailed {
		t.Fatalf("expected first hop failed")
	}
	if got := mock.Calls[1].Src; got != "de" {
		t.Fatalf("expected detected source de for next hop, got %q", got)
	}
}

func TestRun_NoOpDetectFailureKeepsSource(t *testing.T) {
	cases := []struct {
		name string
		mock *provider.MockClient
	}{
		{name: "detect_error", mock: &provider.MockClient{DetectErr: errors.New("detector down")}},
		{name: "unknown_code", mock: &provider.MockClient{DetectLang: "xx-unknown"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.mock.Replies = []provider.Reply{{Identity: true}, {Text: "changed"}}
			o := newOrchestrator(newMockTranslator(t, tc.mock, 1))
			res, err := o.Run(context.Background(), "hello", "en", 2)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if res.Status != StatusSuccess {
				t.Fatalf("no-op must not terminate the chain, got %s", res.Status)
			}
			if len(res.Path) != 2 || res.Path[0].Outcome != OutcomeFailed {
				t.Fatalf("expected failed first step, got %v", res.PathStrings())
			}
			if got := tc.mock.Calls[1].Src; got != "en" {
				t.Fatalf("expected source to stay en, got %q", got)
			}
		})
	}
}

func TestRun_SingleIterationSameLanguage(t *testing.T) {
	mock := &provider.MockClient{Replies: []provider.Reply{{Identity: true}}, DetectLang: "en"}
	o := newOrchestrator(newMockTranslator(t, mock, 3))

	res, err := o.Run(context.Background(), "hello", "en", 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", res.Status)
	}
	if len(mock.Calls) != 1 || mock.Calls[0].Dest != "en" || mock.Calls[0].Src != "en" {
		t.Fatalf("expected a single en->en call, got %+v", mock.Calls)
	}
	if res.Path[0].String() != "en(english) - failed" {
		t.Fatalf("unexpected path entry %q", res.Path[0].String())
	}
	if res.Text != "hello" {
		t.Fatalf("expected unchanged text, got %q", res.Text)
	}
}

func TestRun_ProviderErrorAbortsWithCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cpPath := filepath.Join(dir, checkpoint.FileName("en", 5))
	mock := &provider.MockClient{
		Replies: []provider.Reply{
			{Text: "one"},
			{Text: "two"},
			{Err: errors.New("503")},
			{Err: errors.New("503")},
		},
	}
	o := newOrchestrator(newMockTranslator(t, mock, 2), WithCheckpoint(cpPath, false))

	res, err := o.Run(context.Background(), "zero", "en", 5)
	if err != nil {
		t.Fatalf("provider failure must not surface as error, got %v", err)
	}
	if res.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", res.Status)
	}
	if res.Text != "" || res.Path != nil {
		t.Fatalf("failure result must carry no text or path, got %q %v", res.Text, res.Path)
	}
	if !apperrors.IsProvider(res.Err) {
		t.Fatalf("expected provider error in result, got %v", res.Err)
	}
	if res.CheckpointPath != cpPath {
		t.Fatalf("expected checkpoint path %q, got %q", cpPath, res.CheckpointPath)
	}
	if mock.TranslateCalls() != 4 {
		t.Fatalf("expected 4 provider calls, got %d", mock.TranslateCalls())
	}

	cp, err := checkpoint.Load(cpPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.Iteration != 2 || cp.Text != "two" || len(cp.Path) != 2 {
		t.Fatalf("checkpoint must reflect progress through the prior step, got %+v", cp)
	}
}

func TestRun_ThrottleBeyondDeadlineFailsAsRateLimit(t *testing.T) {
	dir := t.TempDir()
	cpPath := filepath.Join(dir, checkpoint.FileName("en", 3))
	mock := &provider.MockClient{Replies: []provider.Reply{{Text: "one"}, {Text: "two"}, {Text: "three"}}}
	tr, err := translator.New(mock.Factory(),
		translator.WithMaxRetries(2),
		translator.WithBaseDelay(0),
		translator.WithRequestsPerMinute(1),
	)
	if err != nil {
		t.Fatalf("translator.New failed: %v", err)
	}
	o := newOrchestrator(tr, WithCheckpoint(cpPath, false))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := o.Run(ctx, "zero", "en", 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("context must still be live, got %v", ctx.Err())
	}
	if res.Status != StatusFailure || res.Completed != 1 {
		t.Fatalf("expected failure after one hop, got %s completed=%d", res.Status, res.Completed)
	}
	if !apperrors.IsRateLimit(res.Err) {
		t.Fatalf("expected rate limit provider error, got %v", res.Err)
	}
	if mock.TranslateCalls() != 1 {
		t.Fatalf("throttled attempts must not reach the provider, got %d calls", mock.TranslateCalls())
	}
	if res.CheckpointPath != cpPath {
		t.Fatalf("expected resumable checkpoint, got %q", res.CheckpointPath)
	}
}

func TestRun_CheckpointEveryStep(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "cp.json")
	var seen []int
	o := newOrchestrator(&appendTranslator{},
		WithCheckpoint(cpPath, true),
		WithStepCallback(func(e StepEvent) {
			cp, err := checkpoint.Load(cpPath)
			if err == nil {
				seen = append(seen, cp.Iteration)
			}
		}),
	)
	res, err := o.Run(context.Background(), "hello", "en", 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	cp, err := checkpoint.Load(cpPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.Iteration != 3 || cp.Text != res.Text {
		t.Fatalf("final checkpoint mismatch: %+v", cp)
	}
	// The callback runs before the step is persisted, so it sees the previous snapshot.
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected checkpoint progression %v", seen)
	}
}

func TestRun_NoCheckpointOnSuccessWhenNotEveryStep(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "cp.json")
	o := newOrchestrator(&appendTranslator{}, WithCheckpoint(cpPath, false))
	if _, err := o.Run(context.Background(), "hello", "en", 3); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(cpPath); !os.IsNotExist(err) {
		t.Fatalf("expected no checkpoint file, stat err=%v", err)
	}
}

func TestRun_CancelDuringPacing(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "cp.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := &appendTranslator{}
	o := newOrchestrator(tr,
		WithCheckpoint(cpPath, false),
		WithPacing(time.Second, time.Second),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	res, err := o.Run(ctx, "hello", "en", 4)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != StatusCanceled {
		t.Fatalf("expected canceled, got %s", res.Status)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}
	if len(tr.calls) != 1 {
		t.Fatalf("expected a single hop before cancel, got %d", len(tr.calls))
	}
	cp, err := checkpoint.Load(cpPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.Iteration != 1 || len(cp.Path) != 1 {
		t.Fatalf("expected checkpoint after first hop, got %+v", cp)
	}
	if res.CheckpointPath != cpPath {
		t.Fatalf("expected checkpoint location in result")
	}
}

func TestRun_PacingBetweenIterations(t *testing.T) {
	var waits []time.Duration
	o := newOrchestrator(&appendTranslator{},
		WithPacing(500*time.Millisecond, 1500*time.Millisecond),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}),
	)
	if _, err := o.Run(context.Background(), "hello", "en", 5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(waits) != 4 {
		t.Fatalf("expected 4 pauses, got %d", len(waits))
	}
	for _, d := range waits {
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("pause %s outside range", d)
		}
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	o := newOrchestrator(&appendTranslator{})
	if _, err := o.Run(context.Background(), "hello", "en", 0); err == nil {
		t.Fatalf("expected error for zero iterations")
	}
	_, err := o.Run(context.Background(), "hello", "klingon", 3)
	if !apperrors.Is(err, apperrors.KindUnknownLanguage) {
		t.Fatalf("expected unknown language error, got %v", err)
	}
}

func TestResume_MatchesUninterruptedRun(t *testing.T) {
	const total = 6
	const k = 3

	full := &appendTranslator{}
	want, err := newOrchestrator(full).Run(context.Background(), "seed", "en", total)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Advance a fresh rng past the first k picks so the remaining picks line up.
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < k; i++ {
		language.Default().PickRandomEligible(rng)
	}
	cp := &checkpoint.Checkpoint{
		Text:      full.calls[k].Text,
		Path:      FormatPath(want.Path[:k]),
		Iteration: k,
	}

	resumed := &appendTranslator{}
	got, err := newOrchestrator(resumed, WithRand(rng)).Resume(context.Background(), cp, "en", total)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if len(resumed.calls) != total-k {
		t.Fatalf("expected %d provider calls, got %d", total-k, len(resumed.calls))
	}
	if resumed.calls[0].Src != want.Path[k-1].Target {
		t.Fatalf("resume source = %q, want %q", resumed.calls[0].Src, want.Path[k-1].Target)
	}
	if got.Text != want.Text {
		t.Fatalf("resumed text %q, want %q", got.Text, want.Text)
	}
	gotPath, wantPath := got.PathStrings(), want.PathStrings()
	if len(gotPath) != len(wantPath) {
		t.Fatalf("path length %d, want %d", len(gotPath), len(wantPath))
	}
	for i := range wantPath {
		if gotPath[i] != wantPath[i] {
			t.Fatalf("path[%d] = %q, want %q", i, gotPath[i], wantPath[i])
		}
	}
}

func TestResume_SourceFallsBackToOrigin(t *testing.T) {
	tr := &appendTranslator{}
	cp := &checkpoint.Checkpoint{Text: "hello", Path: []string{"fr(french) - failed"}, Iteration: 1}
	if _, err := newOrchestrator(tr).Resume(context.Background(), cp, "en", 3); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if tr.calls[0].Src != "en" {
		t.Fatalf("expected origin source when no hop succeeded, got %q", tr.calls[0].Src)
	}
}

func TestResume_AlreadyComplete(t *testing.T) {
	mock := &provider.MockClient{}
	o := newOrchestrator(newMockTranslator(t, mock, 3))
	cp := &checkpoint.Checkpoint{Text: "done", Path: []string{"fr(french)", "en(english)"}, Iteration: 2}

	for _, total := range []int{1, 2} {
		res, err := o.Resume(context.Background(), cp, "en", total)
		if err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if res.Status != StatusAlreadyComplete {
			t.Fatalf("expected already complete, got %s", res.Status)
		}
		if res.Text != "done" || len(res.Path) != 2 {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if mock.TranslateCalls() != 0 || mock.Opens != 0 {
		t.Fatalf("no provider calls expected, got %d", mock.TranslateCalls())
	}
}

func TestResume_CorruptPath(t *testing.T) {
	cases := []*checkpoint.Checkpoint{
		{Text: "x", Path: []string{"garbage"}, Iteration: 1},
		{Text: "x", Path: []string{"qq(nowhere)"}, Iteration: 1},
		{Text: "x", Path: []string{"fr(french)", "de(german)"}, Iteration: 1},
		{Text: "x", Path: []string{"fr(french)"}, Iteration: 3},
	}
	for _, cp := range cases {
		_, err := newOrchestrator(&appendTranslator{}).Resume(context.Background(), cp, "en", 5)
		if !apperrors.Is(err, apperrors.KindCheckpointCorrupt) {
			t.Fatalf("expected checkpoint_corrupt for %v, got %v", cp.Path, err)
		}
	}
}
