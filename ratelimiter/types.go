// Package ratelimiter implements the dual-bucket, continuously-refilling
// rate limit that guards outbound and inbound transfer volume per chain.
//
// Every bucket, whether it tracks outbound volume for the local chain or
// inbound volume from one specific peer chain, shares the same Bucket
// shape and the same refill arithmetic. Consuming from the outbound
// bucket credits the matching peer's inbound bucket and vice versa, so a
// transfer that is rate-limited in one direction never starves the other
// direction's headroom.
package ratelimiter

import (
	"encoding/hex"

	"github.com/holiman/uint256"
)

// BucketID identifies one rate-limit bucket. The manager derives the
// single outbound bucket id once per deployment and one inbound bucket
// id per registered peer chain.
type BucketID [32]byte

// Hex returns id's hex encoding, used as the bucket label on the
// capacity gauge.
func (id BucketID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Bucket holds the continuously-refilling capacity state for one
// direction. Capacity is stored as of LastUpdated and must be projected
// forward with CurrentCapacity before being read or spent.
type Bucket struct {
	RateLimit    *uint256.Int `rlp:"nil"`
	RateDuration uint64
	Capacity     *uint256.Int `rlp:"nil"`
	LastUpdated  uint64
}

// Unlimited reports whether the bucket imposes no limit at all. The
// manager bootstraps the outbound bucket and each peer's inbound bucket
// this way, with a zero rate limit, until SetRateLimit is first called
// on that bucket.
func (b *Bucket) Unlimited() bool {
	return b.RateLimit == nil || b.RateLimit.IsZero()
}

// QueuedOutboundTransfer records an outbound transfer that could not be
// fully covered by the outbound bucket's capacity at send time. It
// becomes completable once ReleaseTime has passed, regardless of the
// bucket's capacity at that point.
type QueuedOutboundTransfer struct {
	MessageID      [32]byte
	Sender         [32]byte
	RecipientChain uint16
	Recipient      [32]byte
	Amount         uint64
	QueuedAt       uint64
	ReleaseTime    uint64
}

// QueuedInboundTransfer records an inbound transfer that arrived with
// insufficient inbound bucket capacity. Inbound shortfalls always queue;
// they are never rejected outright.
type QueuedInboundTransfer struct {
	Digest      [32]byte
	SourceChain uint16
	Recipient   [32]byte
	Amount      uint64
	QueuedAt    uint64
	ReleaseTime uint64
}
