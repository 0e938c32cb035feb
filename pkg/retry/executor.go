package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/fixlocal/fixlocal-backend/pkg/logger"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 100 * time.Millisecond
)

// Alerter is the ops channel pinged when every attempt fails.
type Alerter interface {
	Send(ctx context.Context, description, message string) error
}

// Executor runs critical writes with bounded retries. Delay grows linearly
// with the attempt number, and exhaustion raises an ops alert. Callers that
// must not fail their caller discard the returned error after logging.
type Executor struct {
	attempts  int
	baseDelay time.Duration
	alerter   Alerter
	logg      *logger.Logger
}

// Params configures an Executor. Zero values fall back to the defaults of
// three attempts and a 100ms base delay.
type Params struct {
	Attempts  int
	BaseDelay time.Duration
	Alerter   Alerter
	Logger    *logger.Logger
}

func NewExecutor(p Params) *Executor {
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	return &Executor{
		attempts:  p.Attempts,
		baseDelay: p.BaseDelay,
		alerter:   p.Alerter,
		logg:      p.Logger,
	}
}

// Execute runs fn until it succeeds or the attempt budget is spent. The
// returned error aggregates every attempt's failure.
func (e *Executor) Execute(ctx context.Context, description string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(e.attempts-1), e.linearBackoff())

	var attempt int
	var attemptErrs error
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			attemptErrs = multierr.Append(attemptErrs, fmt.Errorf("attempt %d: %w", attempt, err))
			if e.logg != nil {
				lctx := e.logg.WithFields(ctx, map[string]any{
					"operation": description,
					"attempt":   attempt,
				})
				e.logg.Warn(lctx, "retryable write failed")
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	if e.logg != nil {
		lctx := e.logg.WithFields(ctx, map[string]any{
			"operation": description,
			"attempts":  attempt,
		})
		e.logg.Error(lctx, "write attempts exhausted", attemptErrs)
	}
	if e.alerter != nil {
		if alertErr := e.alerter.Send(ctx, description, attemptErrs.Error()); alertErr != nil && e.logg != nil {
			e.logg.Error(ctx, "alert delivery failed", alertErr)
		}
	}
	return attemptErrs
}

// linearBackoff waits baseDelay, then 2*baseDelay, then 3*baseDelay, ...
func (e *Executor) linearBackoff() retry.Backoff {
	var n time.Duration
	return retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return e.baseDelay * n, false
	})
}
