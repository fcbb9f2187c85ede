package events

import (
	"strconv"

	"github.com/holiman/uint256"

	"nttcore/core/types"
)

const (
	EventTypeBucketAdded                 = "ratelimiter.bucket_added"
	EventTypeBucketConsumed              = "ratelimiter.bucket_consumed"
	EventTypeBucketFilled                = "ratelimiter.bucket_filled"
	EventTypeBucketRateLimitUpdated      = "ratelimiter.bucket_rate_limit_updated"
	EventTypeBucketRateDurationUpdated   = "ratelimiter.bucket_rate_duration_updated"
	EventTypeOutboundTransferRateLimited = "ratelimiter.outbound_transfer_rate_limited"
	EventTypeInboundTransferRateLimited  = "ratelimiter.inbound_transfer_rate_limited"
	EventTypeOutboundTransferDeleted     = "ratelimiter.outbound_transfer_deleted"
	EventTypeInboundTransferDeleted      = "ratelimiter.inbound_transfer_deleted"
)

// NewBucketAddedEvent reports the creation of a rate-limit bucket.
func NewBucketAddedEvent(bucketID [32]byte, capacity *uint256.Int, lastUpdated uint64) *types.Event {
	return &types.Event{
		Type: EventTypeBucketAdded,
		Attributes: map[string]string{
			"bucketId":    hex32(bucketID),
			"capacity":    u256String(capacity),
			"lastUpdated": strconv.FormatUint(lastUpdated, 10),
		},
	}
}

// NewBucketConsumedEvent reports a successful consume against a bucket.
func NewBucketConsumedEvent(bucketID [32]byte, amount *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeBucketConsumed,
		Attributes: map[string]string{
			"bucketId": hex32(bucketID),
			"amount":   u256String(amount),
		},
	}
}

// NewBucketFilledEvent reports a fill against a bucket, including any
// clamping against the bucket's rate limit.
func NewBucketFilledEvent(bucketID [32]byte, requested, filled *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeBucketFilled,
		Attributes: map[string]string{
			"bucketId":        hex32(bucketID),
			"amountRequested": u256String(requested),
			"amountFilled":    u256String(filled),
		},
	}
}

// NewBucketRateLimitUpdatedEvent reports an admin rate-limit change.
func NewBucketRateLimitUpdatedEvent(bucketID [32]byte, newLimit *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeBucketRateLimitUpdated,
		Attributes: map[string]string{
			"bucketId": hex32(bucketID),
			"newLimit": u256String(newLimit),
		},
	}
}

// NewBucketRateDurationUpdatedEvent reports an admin rate-duration change.
func NewBucketRateDurationUpdatedEvent(bucketID [32]byte, newDuration uint64) *types.Event {
	return &types.Event{
		Type: EventTypeBucketRateDurationUpdated,
		Attributes: map[string]string{
			"bucketId":    hex32(bucketID),
			"newDuration": strconv.FormatUint(newDuration, 10),
		},
	}
}

// NewOutboundTransferRateLimitedEvent reports that an outbound transfer was
// queued instead of sent because the outbound bucket lacked capacity.
func NewOutboundTransferRateLimitedEvent(initiator [32]byte, messageID [32]byte, currentCapacity *uint256.Int, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeOutboundTransferRateLimited,
		Attributes: map[string]string{
			"initiator":       hex32(initiator),
			"messageId":       hex32(messageID),
			"currentCapacity": u256String(currentCapacity),
			"amount":          strconv.FormatUint(amount, 10),
		},
	}
}

// NewInboundTransferRateLimitedEvent reports that an inbound transfer was
// queued instead of minted because the peer's inbound bucket lacked
// capacity.
func NewInboundTransferRateLimitedEvent(recipient [32]byte, messageDigest [32]byte, currentCapacity *uint256.Int, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeInboundTransferRateLimited,
		Attributes: map[string]string{
			"recipient":       hex32(recipient),
			"messageDigest":   hex32(messageDigest),
			"currentCapacity": u256String(currentCapacity),
			"amount":          strconv.FormatUint(amount, 10),
		},
	}
}

// NewOutboundTransferDeletedEvent reports removal of a queued outbound
// transfer, regardless of whether it was completed or cancelled.
func NewOutboundTransferDeletedEvent(messageID [32]byte) *types.Event {
	return &types.Event{
		Type:       EventTypeOutboundTransferDeleted,
		Attributes: map[string]string{"messageId": hex32(messageID)},
	}
}

// NewInboundTransferDeletedEvent reports removal of a queued inbound
// transfer once it has been completed.
func NewInboundTransferDeletedEvent(messageDigest [32]byte) *types.Event {
	return &types.Event{
		Type:       EventTypeInboundTransferDeleted,
		Attributes: map[string]string{"messageDigest": hex32(messageDigest)},
	}
}
