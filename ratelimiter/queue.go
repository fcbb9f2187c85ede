package ratelimiter

import (
	"github.com/holiman/uint256"

	"nttcore/core/events"
	"nttcore/core/nerrors"
	"nttcore/observability/metrics"
)

// EnqueueOrConsumeOutbound attempts to consume amount from the outbound
// bucket. If capacity covers it, the outbound bucket is debited and the
// peer's inbound bucket is credited by the same amount, clamped to that
// bucket's headroom, crediting future
// inbound headroom from that chain. If capacity falls short and
// shouldQueue is true, the full transfer is queued and nothing is
// consumed; it becomes completable after the outbound bucket's current
// rate duration elapses. If capacity falls short and shouldQueue is
// false, the call fails outright instead of queuing.
func (r *RateLimiter) EnqueueOrConsumeOutbound(messageID [32]byte, sender [32]byte, recipientChain uint16, recipient [32]byte, amount uint64, shouldQueue bool) (queued bool, err error) {
	outboundID := OutboundBucketID()
	amt := uint256.NewInt(amount)
	ok, err := r.HasCapacity(outboundID, amt)
	if err != nil {
		return false, err
	}
	if !ok {
		if !shouldQueue {
			return false, nerrors.ErrInsufficientCapacity
		}
		b, err := r.loadBucket(outboundID)
		if err != nil {
			return false, err
		}
		now := r.nowUnix()
		entry := &QueuedOutboundTransfer{
			MessageID:      messageID,
			Sender:         sender,
			RecipientChain: recipientChain,
			Recipient:      recipient,
			Amount:         amount,
			QueuedAt:       now,
			ReleaseTime:    now + b.RateDuration,
		}
		if err := r.store.KVPut(outboundQueueKey(messageID), entry); err != nil {
			return false, err
		}
		cap, _ := r.CurrentCapacity(outboundID)
		metrics.RateLimiter().RecordQueued("outbound")
		r.emitter.Emit(events.Wrap(events.NewOutboundTransferRateLimitedEvent(sender, messageID, cap, amount)))
		return true, nil
	}
	if err := r.Consume(outboundID, amt); err != nil {
		return false, err
	}
	if _, err := r.Fill(InboundBucketID(recipientChain), amt); err != nil {
		return false, err
	}
	return false, nil
}

// CompleteOutboundQueued releases a previously queued outbound transfer
// once its ReleaseTime has passed. The entry is deleted and its amount
// is treated as already spent; it is not re-consumed from the bucket.
func (r *RateLimiter) CompleteOutboundQueued(messageID [32]byte) (*QueuedOutboundTransfer, error) {
	entry, err := r.GetQueuedOutbound(messageID)
	if err != nil {
		return nil, err
	}
	if r.nowUnix() < entry.ReleaseTime {
		return nil, nerrors.ErrStillQueued
	}
	if err := r.DeleteQueuedOutbound(messageID); err != nil {
		return nil, err
	}
	if _, err := r.Fill(InboundBucketID(entry.RecipientChain), uint256.NewInt(entry.Amount)); err != nil {
		return nil, err
	}
	return entry, nil
}

// CancelOutboundQueued deletes a queued outbound transfer before its
// release time, returning the deleted entry so the caller can refund the
// original sender.
func (r *RateLimiter) CancelOutboundQueued(messageID [32]byte) (*QueuedOutboundTransfer, error) {
	entry, err := r.GetQueuedOutbound(messageID)
	if err != nil {
		return nil, err
	}
	if err := r.DeleteQueuedOutbound(messageID); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetQueuedOutbound reads a queued outbound transfer without deleting
// it.
func (r *RateLimiter) GetQueuedOutbound(messageID [32]byte) (*QueuedOutboundTransfer, error) {
	var entry QueuedOutboundTransfer
	ok, err := r.store.KVGet(outboundQueueKey(messageID), &entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nerrors.ErrQueuedTransferUnknown
	}
	return &entry, nil
}

// DeleteQueuedOutbound removes a queued outbound transfer and emits the
// corresponding deletion event.
func (r *RateLimiter) DeleteQueuedOutbound(messageID [32]byte) error {
	if err := r.store.KVDelete(outboundQueueKey(messageID)); err != nil {
		return err
	}
	r.emitter.Emit(events.Wrap(events.NewOutboundTransferDeletedEvent(messageID)))
	return nil
}

// EnqueueOrConsumeInbound attempts to consume amount from the inbound
// bucket for sourceChain. Unlike the outbound path, a shortfall never
// fails the call: it always queues the full transfer so the mint can be
// completed later, since rejecting an already-attested inbound message
// outright would strand funds that the source chain considers sent.
func (r *RateLimiter) EnqueueOrConsumeInbound(digest [32]byte, sourceChain uint16, recipient [32]byte, amount uint64) (queued bool, err error) {
	inboundID := InboundBucketID(sourceChain)
	amt := uint256.NewInt(amount)
	ok, err := r.HasCapacity(inboundID, amt)
	if err != nil {
		return false, err
	}
	if !ok {
		b, err := r.loadBucket(inboundID)
		if err != nil {
			return false, err
		}
		now := r.nowUnix()
		entry := &QueuedInboundTransfer{
			Digest:      digest,
			SourceChain: sourceChain,
			Recipient:   recipient,
			Amount:      amount,
			QueuedAt:    now,
			ReleaseTime: now + b.RateDuration,
		}
		if err := r.store.KVPut(inboundQueueKey(digest), entry); err != nil {
			return false, err
		}
		cap, _ := r.CurrentCapacity(inboundID)
		metrics.RateLimiter().RecordQueued("inbound")
		r.emitter.Emit(events.Wrap(events.NewInboundTransferRateLimitedEvent(recipient, digest, cap, amount)))
		return true, nil
	}
	if err := r.Consume(inboundID, amt); err != nil {
		return false, err
	}
	if _, err := r.Fill(OutboundBucketID(), amt); err != nil {
		return false, err
	}
	return false, nil
}

// CompleteInboundQueued releases a previously queued inbound transfer
// once its ReleaseTime has passed.
func (r *RateLimiter) CompleteInboundQueued(digest [32]byte) (*QueuedInboundTransfer, error) {
	entry, err := r.GetQueuedInbound(digest)
	if err != nil {
		return nil, err
	}
	if r.nowUnix() < entry.ReleaseTime {
		return nil, nerrors.ErrStillQueued
	}
	if err := r.DeleteQueuedInbound(digest); err != nil {
		return nil, err
	}
	if _, err := r.Fill(OutboundBucketID(), uint256.NewInt(entry.Amount)); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetQueuedInbound reads a queued inbound transfer without deleting it.
func (r *RateLimiter) GetQueuedInbound(digest [32]byte) (*QueuedInboundTransfer, error) {
	var entry QueuedInboundTransfer
	ok, err := r.store.KVGet(inboundQueueKey(digest), &entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nerrors.ErrQueuedTransferUnknown
	}
	return &entry, nil
}

// DeleteQueuedInbound removes a queued inbound transfer and emits the
// corresponding deletion event.
func (r *RateLimiter) DeleteQueuedInbound(digest [32]byte) error {
	if err := r.store.KVDelete(inboundQueueKey(digest)); err != nil {
		return err
	}
	r.emitter.Emit(events.Wrap(events.NewInboundTransferDeletedEvent(digest)))
	return nil
}
