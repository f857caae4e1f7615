package janitor

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/omnidine/internal/logging"
)

type sessions struct {
	calls atomic.Int32
	err   error
}

func (s *sessions) PurgeExpired(context.Context) (int64, error) {
	s.calls.Add(1)
	return 3, s.err
}

type carts struct {
	before time.Time
}

func (c *carts) PurgeIdle(_ context.Context, before time.Time) (int64, error) {
	c.before = before
	return 1, nil
}

func TestJanitor_SweepsUntilCancelled(t *testing.T) {
	s := &sessions{}
	c := &carts{}
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	sweeps := make(chan struct{}, 10)
	j := &Janitor{
		Sessions: s,
		Carts:    c,
		CartTTL:  24 * time.Hour,
		Interval: 5 * time.Millisecond,
		now:      func() time.Time { return now },
		onSweep: func() {
			select {
			case sweeps <- struct{}{}:
			default:
			}
		},
	}

	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-sweeps:
		case <-time.After(2 * time.Second):
			t.Fatal("janitor did not sweep")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
	assert.GreaterOrEqual(t, s.calls.Load(), int32(2))
	assert.Equal(t, now.Add(-24*time.Hour), c.before)
}

func TestJanitor_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	j := &Janitor{
		Sessions: &sessions{err: errors.New("db down")},
		Logger:   logging.NewWithWriter(&buf, "info", "text"),
		now:      time.Now,
	}
	j.sweep(context.Background())
	require.Contains(t, buf.String(), "purge sessions failed")
	assert.Contains(t, buf.String(), "db down")
}

type flows struct {
	before time.Time
}

func (f *flows) SweepIdle(before time.Time) int {
	f.before = before
	return 2
}

func TestJanitor_SweepsIdleFlows(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	f := &flows{}
	j := &Janitor{
		Flows:   f,
		FlowTTL: 30 * time.Minute,
		Logger:  logging.NewWithWriter(&buf, "info", "text"),
		now:     func() time.Time { return now },
	}
	j.sweep(context.Background())
	assert.Equal(t, now.Add(-30*time.Minute), f.before)
	assert.Contains(t, buf.String(), "dropped idle flows")

	f.before = time.Time{}
	j.FlowTTL = 0
	j.sweep(context.Background())
	assert.True(t, f.before.IsZero())
}
