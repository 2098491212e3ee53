package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/logger"
	"github.com/GT-610/chaos-translator/internal/provider"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
)

// AttemptState represents the state of a single provider attempt.
type AttemptState int

const (
	StateStarted AttemptState = iota
	StateRetrying
	StateCompleted
	StateFailed
)

// Progress describes one provider attempt.
type Progress struct {
	Attempt     int
	MaxAttempts int
	State       AttemptState
	Delay       time.Duration
	Error       error
}

// Translator wraps provider calls with bounded exponential backoff.
type Translator struct {
	open       provider.Factory
	maxRetries int
	baseDelay  time.Duration
	onProgress func(Progress)
	limiter    *rate.Limiter
}

// Option configures a Translator.
type Option func(*Translator)

// WithMaxRetries sets the total number of attempts per Translate call.
func WithMaxRetries(n int) Option {
	return func(t *Translator) { t.maxRetries = n }
}

// WithBaseDelay sets the delay before the first retry. Later retries double it.
func WithBaseDelay(d time.Duration) Option {
	return func(t *Translator) { t.baseDelay = d }
}

// WithProgress registers a callback invoked for every attempt.
func WithProgress(fn func(Progress)) Option {
	return func(t *Translator) { t.onProgress = fn }
}

// WithRequestsPerMinute caps how often a provider connection is opened.
// Zero or less leaves calls unthrottled.
func WithRequestsPerMinute(n int) Option {
	return func(t *Translator) {
		if n <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// New creates a Translator that opens a provider connection per attempt.
func New(open provider.Factory, opts ...Option) (*Translator, error) {
	if open == nil {
		return nil, fmt.Errorf("provider factory is required")
	}
	t := &Translator{
		open:       open,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxRetries <= 0 {
		return nil, fmt.Errorf("maxRetries must be greater than 0, got %d", t.maxRetries)
	}
	if t.baseDelay < 0 {
		return nil, fmt.Errorf("baseDelay must not be negative, got %s", t.baseDelay)
	}
	return t, nil
}

// MaxRetries returns the configured attempt bound.
func (t *Translator) MaxRetries() int {
	return t.maxRetries
}

// Translate returns the provider's translation of text. An unchanged result is returned
// as-is; deciding whether it was a no-op is left to the caller.
func (t *Translator) Translate(ctx context.Context, text, src, dest string) (string, error) {
	var err error
	for attempt := 0; attempt < t.maxRetries; attempt++ {
		t.report(Progress{Attempt: attempt + 1, MaxAttempts: t.maxRetries, State: StateStarted})

		var out string
		if err = t.wait(ctx); err == nil {
			out, err = t.translateOnce(ctx, text, src, dest)
		}
		if err == nil {
			t.report(Progress{Attempt: attempt + 1, MaxAttempts: t.maxRetries, State: StateCompleted})
			return out, nil
		}
		if isCanceled(ctx, err) {
			return "", err
		}

		retry, backoff := retryDecision(err, attempt, t.maxRetries, t.baseDelay)
		if !retry {
			break
		}
		t.report(Progress{Attempt: attempt + 1, MaxAttempts: t.maxRetries, State: StateRetrying, Delay: backoff, Error: err})
		logger.Debug("Provider call failed, backing off", "attempt", attempt+1, "delay", backoff, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	t.report(Progress{Attempt: t.maxRetries, MaxAttempts: t.maxRetries, State: StateFailed, Error: err})
	return "", asProviderError(err)
}

// Detect asks the provider for the language of text. It is attempted once.
func (t *Translator) Detect(ctx context.Context, text string) (string, error) {
	if err := t.wait(ctx); err != nil {
		if isCanceled(ctx, err) {
			return "", err
		}
		return "", apperrors.Detect(err)
	}
	client, err := t.open(ctx)
	if err != nil {
		return "", apperrors.Detect(fmt.Errorf("failed to open provider: %w", err))
	}
	defer closeClient(client)

	lang, err := client.Detect(ctx, text)
	if err != nil {
		if isCanceled(ctx, err) {
			return "", err
		}
		return "", apperrors.Detect(err)
	}
	if lang == "" {
		return "", apperrors.Detect(fmt.Errorf("provider returned an empty language code"))
	}
	return lang, nil
}

func (t *Translator) translateOnce(ctx context.Context, text, src, dest string) (string, error) {
	client, err := t.open(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open provider: %w", err)
	}
	defer closeClient(client)
	return client.Translate(ctx, text, src, dest)
}

// wait blocks until the throttle admits another provider call. A wait that would
// outlast the context deadline counts as a rate-limited attempt.
func (t *Translator) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.RateLimit(err)
	}
	return nil
}

func (t *Translator) report(p Progress) {
	if t.onProgress != nil {
		t.onProgress(p)
	}
}

func closeClient(c provider.Client) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close provider connection", "error", err)
	}
}

// retryDecision retries any provider error until the attempt bound is reached.
// The wait before attempt i+1 is base * 2^i.
func retryDecision(err error, attempt, maxAttempts int, base time.Duration) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if attempt >= maxAttempts-1 {
		return false, 0
	}
	return true, base << attempt
}

// isCanceled reports caller cancellation. A provider-side timeout is an ordinary failure.
func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

func asProviderError(err error) error {
	if err == nil {
		return apperrors.Transient(fmt.Errorf("translation failed without a reported cause"))
	}
	if apperrors.IsProvider(err) {
		return err
	}
	return apperrors.Transient(err)
}
