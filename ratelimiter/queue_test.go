package ratelimiter

import (
	"testing"
	"time"

	"github.com/holiman/uint256"

	"nttcore/core/nerrors"
	"nttcore/storage/memstore"
)

func TestEnqueueOutboundQueuesOnShortfall(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := New()
	rl.SetState(memstore.New())
	rl.SetClock(clock.now)

	outboundID := OutboundBucketID()
	if err := rl.AddBucket(outboundID, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket outbound: %v", err)
	}
	inboundID := InboundBucketID(7)
	if err := rl.AddBucket(inboundID, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket inbound: %v", err)
	}

	var messageID [32]byte
	messageID[0] = 1
	var sender, recipient [32]byte
	sender[0] = 2
	recipient[0] = 3

	queued, err := rl.EnqueueOrConsumeOutbound(messageID, sender, 7, recipient, 150, true)
	if err != nil {
		t.Fatalf("EnqueueOrConsumeOutbound: %v", err)
	}
	if !queued {
		t.Fatalf("expected transfer to queue on shortfall")
	}

	if _, err := rl.CompleteOutboundQueued(messageID); err != nerrors.ErrStillQueued {
		t.Fatalf("expected ErrStillQueued before release time, got %v", err)
	}

	clock.advance(1001 * time.Second)
	entry, err := rl.CompleteOutboundQueued(messageID)
	if err != nil {
		t.Fatalf("CompleteOutboundQueued: %v", err)
	}
	if entry.Amount != 150 {
		t.Fatalf("expected queued amount 150, got %d", entry.Amount)
	}
	if _, err := rl.GetQueuedOutbound(messageID); err != nerrors.ErrQueuedTransferUnknown {
		t.Fatalf("expected queue entry deleted, got %v", err)
	}
}

func TestEnqueueInboundNeverFails(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := New()
	rl.SetState(memstore.New())
	rl.SetClock(clock.now)

	inboundID := InboundBucketID(9)
	if err := rl.AddBucket(inboundID, uint256.NewInt(10), 100); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	// CompleteInboundQueued credits the outbound bucket, so one must exist.
	if err := rl.AddBucket(OutboundBucketID(), nil, 0); err != nil {
		t.Fatalf("AddBucket outbound: %v", err)
	}

	var digest, recipient [32]byte
	digest[0] = 5
	recipient[0] = 6

	queued, err := rl.EnqueueOrConsumeInbound(digest, 9, recipient, 1_000_000)
	if err != nil {
		t.Fatalf("EnqueueOrConsumeInbound should never fail outright: %v", err)
	}
	if !queued {
		t.Fatalf("expected inbound shortfall to queue")
	}

	clock.advance(101 * time.Second)
	entry, err := rl.CompleteInboundQueued(digest)
	if err != nil {
		t.Fatalf("CompleteInboundQueued: %v", err)
	}
	if entry.Amount != 1_000_000 {
		t.Fatalf("expected queued amount preserved, got %d", entry.Amount)
	}
}

func TestCancelOutboundQueued(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := New()
	rl.SetState(memstore.New())
	rl.SetClock(clock.now)

	outboundID := OutboundBucketID()
	if err := rl.AddBucket(outboundID, uint256.NewInt(10), 100); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	inboundID := InboundBucketID(4)
	if err := rl.AddBucket(inboundID, uint256.NewInt(10), 100); err != nil {
		t.Fatalf("AddBucket inbound: %v", err)
	}

	var messageID, sender, recipient [32]byte
	messageID[0] = 9

	queued, err := rl.EnqueueOrConsumeOutbound(messageID, sender, 4, recipient, 50, true)
	if err != nil {
		t.Fatalf("EnqueueOrConsumeOutbound: %v", err)
	}
	if !queued {
		t.Fatalf("expected queue on shortfall")
	}
	if _, err := rl.CancelOutboundQueued(messageID); err != nil {
		t.Fatalf("CancelOutboundQueued: %v", err)
	}
	if _, err := rl.GetQueuedOutbound(messageID); err != nerrors.ErrQueuedTransferUnknown {
		t.Fatalf("expected entry gone after cancel, got %v", err)
	}
}

func TestEnqueueOutboundFailsWithoutQueueingWhenShouldQueueFalse(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := New()
	rl.SetState(memstore.New())
	rl.SetClock(clock.now)

	outboundID := OutboundBucketID()
	if err := rl.AddBucket(outboundID, uint256.NewInt(100), 1000); err != nil {
		t.Fatalf("AddBucket outbound: %v", err)
	}

	var messageID, sender, recipient [32]byte
	messageID[0] = 8

	queued, err := rl.EnqueueOrConsumeOutbound(messageID, sender, 7, recipient, 150, false)
	if err != nerrors.ErrInsufficientCapacity {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
	if queued {
		t.Fatalf("expected no queueing when shouldQueue is false")
	}
	if _, err := rl.GetQueuedOutbound(messageID); err != nerrors.ErrQueuedTransferUnknown {
		t.Fatalf("expected no queue entry created, got %v", err)
	}
}
