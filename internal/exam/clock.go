package exam

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// TickInterval is the countdown granularity.
const TickInterval = time.Second

// ClockStore persists the remaining time so a reload resumes the deadline.
type ClockStore interface {
	Read(ctx context.Context) (remainingMs int64, ok bool, err error)
	Write(ctx context.Context, remainingMs int64) error
	Clear(ctx context.Context) error
}

type nopClockStore struct{}

func (nopClockStore) Read(context.Context) (int64, bool, error) { return 0, false, nil }
func (nopClockStore) Write(context.Context, int64) error        { return nil }
func (nopClockStore) Clear(context.Context) error               { return nil }

// ParseTimer reads the timer query parameter (milliseconds). Invalid or
// non-positive values yield 0, meaning no countdown.
func ParseTimer(raw string) int64 {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	return ms
}

// Clock is the session countdown. It never goes below zero and reaching
// zero happens once.
type Clock struct {
	store     ClockStore
	remaining int64
	enabled   bool
	expired   bool
	stopped   bool
}

// StartClock resumes from the store when it holds a positive value,
// otherwise starts from initialMs. With neither the clock is disabled.
func StartClock(ctx context.Context, store ClockStore, initialMs int64) *Clock {
	if store == nil {
		store = nopClockStore{}
	}
	c := &Clock{store: store}

	// A store that cannot be read behaves like an empty one.
	if v, ok, err := store.Read(ctx); err == nil && ok && v > 0 {
		c.remaining = v
	} else if initialMs > 0 {
		c.remaining = initialMs
	}

	c.enabled = c.remaining > 0
	if c.enabled {
		_ = store.Write(ctx, c.remaining)
	}
	return c
}

// Enabled reports whether the session has a countdown at all.
func (c *Clock) Enabled() bool { return c.enabled }

// Expired reports whether the countdown reached zero.
func (c *Clock) Expired() bool { return c.expired }

// Remaining returns the remaining milliseconds.
func (c *Clock) Remaining() int64 { return c.remaining }

// Tick advances the clock by one TickInterval. It returns true exactly once,
// on the tick that reaches zero; the persisted value is cleared then.
func (c *Clock) Tick(ctx context.Context) (bool, error) {
	if !c.enabled || c.expired || c.stopped {
		return false, nil
	}

	c.remaining -= TickInterval.Milliseconds()
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return true, c.store.Clear(ctx)
	}
	return false, c.store.Write(ctx, c.remaining)
}

// Stop halts the countdown and removes the persisted value.
func (c *Clock) Stop(ctx context.Context) error {
	c.stopped = true
	return c.store.Clear(ctx)
}
