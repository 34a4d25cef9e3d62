package gateway

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces calls to the scheduling service at a fixed spacing.
// A caller books the next free slot and sleeps until it comes up; a caller
// whose context ends first hands the slot back if nobody booked after it.
type RateLimiter struct {
	mu      sync.Mutex
	spacing time.Duration
	free    time.Time
	now     func() time.Time
}

func NewRateLimiter(perSecond int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &RateLimiter{spacing: time.Second / time.Duration(perSecond), now: time.Now}
}

func (r *RateLimiter) book() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot := r.now()
	if r.free.After(slot) {
		slot = r.free
	}
	r.free = slot.Add(r.spacing)
	return slot
}

func (r *RateLimiter) cancel(slot time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.free.Equal(slot.Add(r.spacing)) {
		r.free = slot
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	slot := r.book()
	if err := sleepCtx(ctx, slot.Sub(r.now())); err != nil {
		r.cancel(slot)
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
