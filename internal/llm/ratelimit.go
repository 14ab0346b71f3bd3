package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lawnorm/internal/config"
	"lawnorm/internal/port"
)

// RateLimitedGenerator spaces calls to the wrapped generator and retries
// transient failures with exponential backoff, honoring provider Retry-After
// hints. Non-transient errors are returned immediately.
type RateLimitedGenerator struct {
	next           port.TextGenerator
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewRateLimitedGenerator wraps next with the configured pacing and retries.
func NewRateLimitedGenerator(next port.TextGenerator, cfg config.RateLimitConfig, logger *zap.Logger) *RateLimitedGenerator {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitedGenerator{
		next:           next,
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger,
		sleep:          sleepContext,
	}
}

// WithSleeper replaces the backoff sleep, for tests.
func (g *RateLimitedGenerator) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *RateLimitedGenerator {
	g.sleep = sleep
	return g
}

func (g *RateLimitedGenerator) Model() string {
	return g.next.Model()
}

func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}

		out, err := g.next.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == g.maxRetries {
			break
		}

		delay := g.backoff(attempt)
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > delay {
			delay = rlErr.RetryAfter
		}
		g.logger.Warn("llm.RateLimitedGenerator: transient failure, backing off",
			zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))
		if err := g.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (g *RateLimitedGenerator) backoff(attempt int) time.Duration {
	d := g.initialBackoff
	if d <= 0 {
		d = time.Second
	}
	for i := 0; i < attempt; i++ {
		d *= 2
		if g.maxBackoff > 0 && d >= g.maxBackoff {
			return g.maxBackoff
		}
	}
	if g.maxBackoff > 0 && d > g.maxBackoff {
		return g.maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
