package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// waiter is the blocking side of a rate limiter. Satisfied by
// *rate.Limiter; tests inject a recording fake so no test ever sleeps
// for real quota windows.
type waiter interface {
	Wait(ctx context.Context) error
}

// RPMLimiter spaces model requests so an external requests-per-minute
// ceiling is never crossed. One limiter value is shared by everything
// that talks to the model during a run; a wait is a blocking suspend,
// not a rejection.
type RPMLimiter struct {
	w   waiter
	rpm int
}

// NewRPMLimiter builds a limiter allowing rpm requests per minute,
// burst 1 — requests are spaced evenly rather than front-loaded.
func NewRPMLimiter(rpm int) *RPMLimiter {
	if rpm <= 0 {
		rpm = 15
	}
	return &RPMLimiter{
		w:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		rpm: rpm,
	}
}

// Wait blocks until the next request is allowed or ctx is cancelled.
func (l *RPMLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.w.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Second {
		slog.Info("throttled by rpm ceiling",
			slog.Int("rpm", l.rpm),
			slog.Duration("waited", waited.Round(100*time.Millisecond)),
		)
	}
	return nil
}
