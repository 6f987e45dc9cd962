package generation

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"doodle-server/core"
)

// ErrRateLimited is returned when generation requests come in too fast.
var ErrRateLimited = errors.New("too many generation requests, try again later")

type limited struct {
	inner   core.Generator
	limiter *rate.Limiter
}

// WithRateLimit admits at most cfg.PerMinute requests per minute with a
// burst of cfg.Burst.
func WithRateLimit(inner core.Generator, cfg RateConfig) core.Generator {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &limited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.PerMinute)/60.0, burst),
	}
}

func (l *limited) Generate(ctx context.Context, req core.GenerationRequest) (*core.GeneratedImage, error) {
	if !l.limiter.Allow() {
		return nil, ErrRateLimited
	}
	return l.inner.Generate(ctx, req)
}
