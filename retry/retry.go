package retry

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config controls the retry behaviour of [Do].
type Config struct {
	// MaxAttempts is the maximum number of times fn is called (including the
	// first attempt). Values ≤ 1 mean no retries.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent retries use
	// exponential back-off: BaseDelay * 2^attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed back-off delay.
	MaxDelay time.Duration

	// Jitter adds randomness to the delay. A value of 0.2 means ±20 % of
	// the computed delay. Zero disables jitter.
	Jitter float64

	// RetryCodes lists the gRPC status codes that are considered retryable.
	RetryCodes []codes.Code

	// Retryable, when set, is consulted for errors that carry no listed
	// status code. It lets in-process callers retry sentinel errors such as
	// cache.ErrUnavailable without going through gRPC.
	Retryable func(error) bool
}

// DefaultConfig retries Unavailable and ResourceExhausted up to five times,
// starting at 10ms and capped at one second, with 20% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    time.Second,
		Jitter:      0.2,
		RetryCodes:  []codes.Code{codes.Unavailable, codes.ResourceExhausted},
	}
}

// Do calls fn up to cfg.MaxAttempts times while the returned error is
// retryable: either it carries a gRPC status code listed in cfg.RetryCodes
// or cfg.Retryable accepts it. Between attempts an exponential back-off delay
// (with optional jitter) is applied.
//
// The context is checked before every retry; if ctx is done the function
// returns immediately with the context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	for i := range attempts {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if i == attempts-1 || !cfg.retryable(err) {
			return zero, err
		}

		timer := time.NewTimer(backoff(cfg, i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, nil
}

func (cfg Config) retryable(err error) bool {
	if st, ok := status.FromError(err); ok && slices.Contains(cfg.RetryCodes, st.Code()) {
		return true
	}
	return cfg.Retryable != nil && cfg.Retryable(err)
}
