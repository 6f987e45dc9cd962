package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"doodle-server/core"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	defaultBreakerInterval = time.Minute
)

// Breaker fails fast once the wrapped provider keeps failing.
type Breaker struct {
	inner   core.Generator
	breaker *gobreaker.CircuitBreaker[*core.GeneratedImage]
}

func WithBreaker(inner core.Generator, name string, cfg BreakerConfig) *Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[*core.GeneratedImage](gobreaker.Settings{
		Name:        "generation:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{inner: inner, breaker: cb}
}

func (b *Breaker) Generate(ctx context.Context, req core.GenerationRequest) (*core.GeneratedImage, error) {
	img, err := b.breaker.Execute(func() (*core.GeneratedImage, error) {
		return b.inner.Generate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("image service unavailable, try again later: %w", err)
	}
	return img, err
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
