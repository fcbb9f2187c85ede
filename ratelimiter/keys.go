package ratelimiter

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

var outboundBucketSeed = []byte("ntt-outbound-bucket")

// OutboundBucketID is the single bucket id tracking aggregate outbound
// volume for the local chain.
func OutboundBucketID() BucketID {
	return BucketID(crypto.Keccak256Hash(outboundBucketSeed))
}

// InboundBucketID derives the bucket id tracking inbound volume
// originating from sourceChain.
func InboundBucketID(sourceChain uint16) BucketID {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, sourceChain)
	return BucketID(crypto.Keccak256Hash(buf))
}

// directionOf reports whether id is the single outbound bucket or one of
// the per-chain inbound buckets, for metrics labelling.
func directionOf(id BucketID) string {
	if id == OutboundBucketID() {
		return "outbound"
	}
	return "inbound"
}

func bucketKey(id BucketID) []byte {
	return append([]byte("ratelimiter/bucket/"), id[:]...)
}

func outboundQueueKey(messageID [32]byte) []byte {
	return append([]byte("ratelimiter/queue/outbound/"), messageID[:]...)
}

func inboundQueueKey(digest [32]byte) []byte {
	return append([]byte("ratelimiter/queue/inbound/"), digest[:]...)
}
