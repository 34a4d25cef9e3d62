package gateway

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterBooksConsecutiveSlots(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := NewRateLimiter(4)
	r.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		want := base.Add(time.Duration(i) * 250 * time.Millisecond)
		if got := r.book(); !got.Equal(want) {
			t.Fatalf("slot %d = %v, want %v", i, got, want)
		}
	}
}

func TestRateLimiterReturnsCancelledSlot(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := NewRateLimiter(1)
	r.now = func() time.Time { return base }
	r.book()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if got := r.book(); !got.Equal(base.Add(time.Second)) {
		t.Fatalf("cancelled slot not reused: %v", got)
	}
}
