package config

import (
	"fmt"

	"github.com/holiman/uint256"

	"nttcore/aggregator"
	"nttcore/manager"
	"nttcore/ratelimiter"
)

// Apply seeds mgr, rl and agg from the bootstrap file's contents,
// issuing the same Initialise, AddMessageHandler, RegisterPeer,
// SetRateLimit/SetRateDuration and AddTransceiver calls a deployment
// would otherwise have to script by hand, in the order Manager.New's
// collaborators expect them.
func (b *Bootstrap) Apply(mgr *manager.Manager, rl *ratelimiter.RateLimiter, agg *aggregator.Aggregator) error {
	handlerID, err := Address32(b.Manager.HandlerID)
	if err != nil {
		return fmt.Errorf("config: manager.handler_id: %w", err)
	}
	admin, err := Address32(b.Manager.Admin)
	if err != nil {
		return fmt.Errorf("config: manager.admin: %w", err)
	}

	if err := mgr.Initialise(manager.ChainID(b.Manager.LocalChain), b.Manager.LocalDecimals, handlerID, admin); err != nil {
		return fmt.Errorf("config: initialise manager: %w", err)
	}
	if err := agg.AddMessageHandler(aggregator.HandlerID(handlerID), admin); err != nil {
		return fmt.Errorf("config: add message handler: %w", err)
	}

	for i, p := range b.Peers {
		contract, err := Address32(p.Contract)
		if err != nil {
			return fmt.Errorf("config: peer[%d].contract: %w", i, err)
		}
		if err := mgr.RegisterPeer(admin, manager.ChainID(p.Chain), contract, p.Decimals); err != nil {
			return fmt.Errorf("config: register peer %d: %w", p.Chain, err)
		}
	}

	for i, bucket := range b.Buckets {
		id, err := bucketID(bucket)
		if err != nil {
			return fmt.Errorf("config: bucket[%d]: %w", i, err)
		}
		if bucket.RateLimit > 0 {
			if err := rl.SetRateLimit(id, uint256.NewInt(bucket.RateLimit)); err != nil {
				return fmt.Errorf("config: bucket[%d] rate limit: %w", i, err)
			}
		}
		if bucket.RateDuration > 0 {
			if err := rl.SetRateDuration(id, bucket.RateDuration); err != nil {
				return fmt.Errorf("config: bucket[%d] rate duration: %w", i, err)
			}
		}
	}

	for i, tr := range b.Transceivers {
		id, err := Address32(tr.TransceiverID)
		if err != nil {
			return fmt.Errorf("config: transceiver[%d]: %w", i, err)
		}
		if err := agg.AddTransceiver(aggregator.HandlerID(handlerID), admin, id); err != nil {
			return fmt.Errorf("config: add transceiver %d: %w", i, err)
		}
	}
	return nil
}

func bucketID(b BucketConfig) (ratelimiter.BucketID, error) {
	switch b.Direction {
	case "outbound":
		return ratelimiter.OutboundBucketID(), nil
	case "inbound":
		return ratelimiter.InboundBucketID(b.Chain), nil
	default:
		return ratelimiter.BucketID{}, fmt.Errorf("unknown bucket direction %q", b.Direction)
	}
}
