// Package retry runs transport calls under a bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/chatgate/pkg/errors"
	"github.com/charlesng35/chatgate/pkg/metrics"
)

// Policy configures how many times and how fast a call is retried.
type Policy struct {
	Attempts     uint          `mapstructure:"attempts" validate:"min=1"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
}

// DefaultPolicy makes up to five attempts, doubling from 100ms to at most 1s.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:     5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}
}

func (p Policy) normalise() Policy {
	def := DefaultPolicy()
	if p.Attempts == 0 {
		p.Attempts = def.Attempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	return b
}

// Do calls op until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. The last error is returned after exhaustion.
func Do[T any](ctx context.Context, policy Policy, log *zap.Logger, name string, op func(context.Context) (T, error)) (T, error) {
	policy = policy.normalise()
	if log == nil {
		log = zap.NewNop()
	}

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		res, err := op(ctx)
		switch {
		case err == nil:
			metrics.FetchAttempts.WithLabelValues(name, "success").Inc()
			return res, nil
		case !apperrors.IsRetryable(err):
			metrics.FetchAttempts.WithLabelValues(name, "failure").Inc()
			return res, backoff.Permanent(err)
		default:
			metrics.FetchAttempts.WithLabelValues(name, "retry").Inc()
			return res, err
		}
	},
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(policy.Attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("retrying call",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Uint("max_attempts", policy.Attempts),
				zap.Duration("retry_delay", next),
				zap.Error(err),
			)
		}),
	)
}
