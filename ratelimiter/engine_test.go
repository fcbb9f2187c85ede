package ratelimiter

import (
	"testing"
	"time"

	"github.com/holiman/uint256"

	"nttcore/core/nerrors"
	"nttcore/storage/memstore"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := New()
	rl.SetState(memstore.New())
	rl.SetClock(clock.now)
	return rl, clock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestAddBucketDuplicate(t *testing.T) {
	rl, _ := newTestLimiter(t)
	id := OutboundBucketID()
	if err := rl.AddBucket(id, uint256.NewInt(100), 3600); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	if err := rl.AddBucket(id, uint256.NewInt(100), 3600); err != nerrors.ErrBucketAlreadyExists {
		t.Fatalf("expected ErrBucketAlreadyExists, got %v", err)
	}
}

func TestCurrentCapacityRefillsLinearly(t *testing.T) {
	rl, clock := newTestLimiter(t)
	id := OutboundBucketID()
	if err := rl.AddBucket(id, uint256.NewInt(1000), 1000); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	if err := rl.Consume(id, uint256.NewInt(1000)); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	cap, err := rl.CurrentCapacity(id)
	if err != nil {
		t.Fatalf("CurrentCapacity: %v", err)
	}
	if !cap.IsZero() {
		t.Fatalf("expected zero capacity immediately after full consume, got %s", cap)
	}
	clock.advance(500 * time.Second)
	cap, err = rl.CurrentCapacity(id)
	if err != nil {
		t.Fatalf("CurrentCapacity: %v", err)
	}
	if cap.Uint64() != 500 {
		t.Fatalf("expected half refill of 500, got %s", cap)
	}
	clock.advance(10_000 * time.Second)
	cap, err = rl.CurrentCapacity(id)
	if err != nil {
		t.Fatalf("CurrentCapacity: %v", err)
	}
	if cap.Uint64() != 1000 {
		t.Fatalf("expected clamp to rate limit of 1000, got %s", cap)
	}
}

func TestConsumeInsufficientCapacity(t *testing.T) {
	rl, _ := newTestLimiter(t)
	id := OutboundBucketID()
	if err := rl.AddBucket(id, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	if err := rl.Consume(id, uint256.NewInt(101)); err != nerrors.ErrInsufficientCapacity {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
}

func TestUnlimitedBucketNeverBlocks(t *testing.T) {
	rl, _ := newTestLimiter(t)
	id := OutboundBucketID()
	if err := rl.AddBucket(id, nil, 0); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	ok, err := rl.HasCapacity(id, uint256.NewInt(1_000_000_000))
	if err != nil {
		t.Fatalf("HasCapacity: %v", err)
	}
	if !ok {
		t.Fatalf("expected unlimited bucket to always have capacity")
	}
	if err := rl.Consume(id, uint256.NewInt(1_000_000_000)); err != nil {
		t.Fatalf("Consume on unlimited bucket: %v", err)
	}
}

func TestSetRateLimitIncreaseGrantsDeltaImmediately(t *testing.T) {
	rl, _ := newTestLimiter(t)
	id := OutboundBucketID()
	if err := rl.AddBucket(id, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	if err := rl.SetRateLimit(id, uint256.NewInt(200)); err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}
	cap, err := rl.CurrentCapacity(id)
	if err != nil {
		t.Fatalf("CurrentCapacity: %v", err)
	}
	if cap.Uint64() != 200 {
		t.Fatalf("expected capacity to jump to 200 on a raised limit, got %s", cap)
	}
}

func TestSetRateLimitDecreaseCapsCapacity(t *testing.T) {
	rl, _ := newTestLimiter(t)
	id := OutboundBucketID()
	if err := rl.AddBucket(id, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	if err := rl.SetRateLimit(id, uint256.NewInt(50)); err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}
	cap, err := rl.CurrentCapacity(id)
	if err != nil {
		t.Fatalf("CurrentCapacity: %v", err)
	}
	if cap.Uint64() != 50 {
		t.Fatalf("expected capacity capped to the lowered limit of 50, got %s", cap)
	}
}

func TestFillClampsToRateLimit(t *testing.T) {
	rl, _ := newTestLimiter(t)
	id := InboundBucketID(2)
	if err := rl.AddBucket(id, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	filled, err := rl.Fill(id, uint256.NewInt(500))
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if filled.Uint64() != 100 {
		t.Fatalf("expected fill clamped to headroom 100, got %s", filled)
	}
	cap, err := rl.CurrentCapacity(id)
	if err != nil {
		t.Fatalf("CurrentCapacity: %v", err)
	}
	if cap.Uint64() != 100 {
		t.Fatalf("expected capacity at rate limit, got %s", cap)
	}
}
