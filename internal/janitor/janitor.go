// Package janitor periodically removes expired sessions, idle carts and
// abandoned in-memory booking and checkout state.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/omnidine/internal/logging"
)

// SessionPurger is satisfied by *auth.Store.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CartPurger is satisfied by *cart.PGRepo.
type CartPurger interface {
	PurgeIdle(ctx context.Context, before time.Time) (int64, error)
}

// FlowSweeper is satisfied by *web.Server.
type FlowSweeper interface {
	SweepIdle(before time.Time) int
}

type Janitor struct {
	Sessions SessionPurger
	Carts    CartPurger
	CartTTL  time.Duration
	Flows    FlowSweeper
	FlowTTL  time.Duration
	Interval time.Duration
	Logger   *slog.Logger

	now func() time.Time
	// onSweep runs after every sweep.
	onSweep func()
}

func (j *Janitor) Run(ctx context.Context) error {
	if j.Logger == nil {
		j.Logger = logging.Discard()
	}
	if j.now == nil {
		j.now = time.Now
	}
	t := time.NewTicker(j.Interval)
	defer t.Stop()

	// kick immediately
	j.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	if j.Sessions != nil {
		n, err := j.Sessions.PurgeExpired(ctx)
		if err != nil {
			j.Logger.Error("janitor: purge sessions failed", "error", err)
		} else if n > 0 {
			j.Logger.Info("janitor: purged sessions", "count", n)
		}
	}
	if j.Carts != nil && j.CartTTL > 0 {
		n, err := j.Carts.PurgeIdle(ctx, j.now().Add(-j.CartTTL))
		if err != nil {
			j.Logger.Error("janitor: purge carts failed", "error", err)
		} else if n > 0 {
			j.Logger.Info("janitor: purged carts", "count", n)
		}
	}
	if j.Flows != nil && j.FlowTTL > 0 {
		if n := j.Flows.SweepIdle(j.now().Add(-j.FlowTTL)); n > 0 {
			j.Logger.Info("janitor: dropped idle flows", "count", n)
		}
	}
	if j.onSweep != nil {
		j.onSweep()
	}
}
