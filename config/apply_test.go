package config

import (
	"testing"

	"nttcore/aggregator"
	"nttcore/aggregator/rbac"
	"nttcore/manager"
	"nttcore/ratelimiter"
	"nttcore/storage/memstore"
)

const sampleBootstrap = `
[manager]
local_chain = 1
local_decimals = 8
handler_id = "0xaa0000000000000000000000000000000000000000000000000000000000000a"
admin = "0xbb0000000000000000000000000000000000000000000000000000000000000b"

[[peer]]
chain = 2
contract = "0xcc0000000000000000000000000000000000000000000000000000000000000c"
decimals = 8

[[bucket]]
direction = "outbound"
rate_limit = 1000
rate_duration = 3600

[[bucket]]
direction = "inbound"
chain = 2
rate_limit = 500
rate_duration = 1800
`

func TestBootstrapApplyWiresEngines(t *testing.T) {
	b, err := Load([]byte(sampleBootstrap))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	store := memstore.New()
	roles := rbac.New()

	rl := ratelimiter.New()
	rl.SetState(store)

	agg := aggregator.New()
	agg.SetState(store)
	agg.SetRoles(roles)

	mgr := manager.New()
	mgr.SetState(store)
	mgr.SetRoles(roles)
	mgr.SetRateLimiter(rl)
	mgr.SetAggregatorEngine(agg)

	if err := b.Apply(mgr, rl, agg); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	outboundCap, err := rl.CurrentCapacity(ratelimiter.OutboundBucketID())
	if err != nil {
		t.Fatalf("CurrentCapacity outbound: %v", err)
	}
	if outboundCap.Uint64() != 1000 {
		t.Fatalf("expected outbound capacity seeded to 1000, got %s", outboundCap)
	}

	inboundCap, err := rl.CurrentCapacity(ratelimiter.InboundBucketID(2))
	if err != nil {
		t.Fatalf("CurrentCapacity inbound: %v", err)
	}
	if inboundCap.Uint64() != 500 {
		t.Fatalf("expected inbound capacity seeded to 500, got %s", inboundCap)
	}
}

func TestBootstrapApplyRejectsBadAddress(t *testing.T) {
	b := &Bootstrap{
		Manager: ManagerConfig{
			LocalChain:    1,
			LocalDecimals: 8,
			HandlerID:     "not-hex",
			Admin:         "0xbb",
		},
	}
	store := memstore.New()
	roles := rbac.New()
	rl := ratelimiter.New()
	rl.SetState(store)
	agg := aggregator.New()
	agg.SetState(store)
	agg.SetRoles(roles)
	mgr := manager.New()
	mgr.SetState(store)
	mgr.SetRoles(roles)
	mgr.SetRateLimiter(rl)
	mgr.SetAggregatorEngine(agg)

	if err := b.Apply(mgr, rl, agg); err == nil {
		t.Fatalf("expected error decoding a non-hex handler id")
	}
}
