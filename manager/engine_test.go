package manager

import (
	"testing"
	"time"

	"github.com/holiman/uint256"

	agg "nttcore/aggregator"
	"nttcore/aggregator/rbac"
	"nttcore/codec"
	"nttcore/core/nerrors"
	"nttcore/ratelimiter"
	"nttcore/storage/memstore"
)

type fakeTokenAuthority struct {
	minted map[[32]byte]uint64
	burned map[[32]byte]uint64
}

func newFakeTokenAuthority() *fakeTokenAuthority {
	return &fakeTokenAuthority{minted: map[[32]byte]uint64{}, burned: map[[32]byte]uint64{}}
}

func (f *fakeTokenAuthority) Burn(from [32]byte, amount uint64) error {
	f.burned[from] += amount
	return nil
}

func (f *fakeTokenAuthority) Mint(to [32]byte, amount uint64) error {
	f.minted[to] += amount
	return nil
}

type nopTransceiver struct{}

func (nopTransceiver) QuoteDeliveryPrice(destinationChain uint16, instruction []byte) (uint64, error) {
	return 0, nil
}

func (nopTransceiver) SendMessage(destinationChain uint16, msg codec.HandlerMessage, instruction []byte) error {
	return nil
}

type testRig struct {
	mgr     *Manager
	agg     *agg.Aggregator
	rl      *ratelimiter.RateLimiter
	tokens  *fakeTokenAuthority
	roles   *rbac.Store
	handler [32]byte
	admin   [32]byte
	clock   *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time         { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRig(t *testing.T, localChain ChainID, localDecimals uint8) *testRig {
	t.Helper()
	store := memstore.New()
	roles := rbac.New()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	rl := ratelimiter.New()
	rl.SetState(store)
	rl.SetClock(clock.now)

	aggregator := agg.New()
	aggregator.SetState(store)
	aggregator.SetRoles(roles)
	aggregator.SetClock(clock.now)

	mgr := New()
	mgr.SetState(store)
	mgr.SetRoles(roles)
	mgr.SetClock(clock.now)
	mgr.SetRateLimiter(rl)
	mgr.SetAggregatorEngine(aggregator)
	tokens := newFakeTokenAuthority()
	mgr.SetTokenAuthority(tokens)

	var handler, admin [32]byte
	handler[0] = 0xAA
	admin[0] = 0xBB

	if err := mgr.Initialise(localChain, localDecimals, handler, admin); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	if err := aggregator.AddMessageHandler(agg.HandlerID(handler), admin); err != nil {
		t.Fatalf("AddMessageHandler: %v", err)
	}
	var transceiverID [32]byte
	transceiverID[0] = 0xCC
	if err := aggregator.AddTransceiver(agg.HandlerID(handler), admin, transceiverID); err != nil {
		t.Fatalf("AddTransceiver: %v", err)
	}
	aggregator.BindTransceiver(transceiverID, nopTransceiver{})

	return &testRig{mgr: mgr, agg: aggregator, rl: rl, tokens: tokens, roles: roles, handler: handler, admin: admin, clock: clock}
}

func (r *testRig) registerPeer(t *testing.T, chain ChainID, contract [32]byte, decimals uint8) {
	t.Helper()
	if err := r.mgr.RegisterPeer(r.admin, chain, contract, decimals); err != nil {
		t.Fatalf("RegisterPeer: %v", err)
	}
}

func TestTransferRejectsAssetSenderMismatch(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, sender, assetSender, recipient [32]byte
	peerContract[0], sender[0], assetSender[0], recipient[0] = 1, 2, 3, 4
	rig.registerPeer(t, 2, peerContract, 8)

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    assetSender,
		Amount:         1000,
		RecipientChain: 2,
		Recipient:      recipient,
	}
	if _, _, err := rig.mgr.Transfer(sender, req); err != nerrors.ErrUnauthorizedAssetSender {
		t.Fatalf("expected ErrUnauthorizedAssetSender, got %v", err)
	}
}

// TestTransferRejectsThirdPartyCaller covers the case the AssetSender
// check must bind against: a relayer (caller) submits a transfer on
// behalf of a victim, with the request's Sender and AssetSender both set
// to the victim to make it look self-consistent. The check must compare
// against the actual caller, not against another field of the same
// attacker-controlled request.
func TestTransferRejectsThirdPartyCaller(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, victim, relayer, recipient [32]byte
	peerContract[0], victim[0], relayer[0], recipient[0] = 1, 2, 9, 4
	rig.registerPeer(t, 2, peerContract, 8)

	req := OutboundTransferRequest{
		Sender:         victim,
		AssetSender:    victim,
		Amount:         1000,
		RecipientChain: 2,
		Recipient:      recipient,
	}
	if _, _, err := rig.mgr.Transfer(relayer, req); err != nerrors.ErrUnauthorizedAssetSender {
		t.Fatalf("expected ErrUnauthorizedAssetSender, got %v", err)
	}
	if rig.tokens.burned[victim] != 0 {
		t.Fatalf("expected no burn from victim, got %d", rig.tokens.burned[victim])
	}
}

func TestTransferRejectsDust(t *testing.T) {
	rig := newTestRig(t, 1, 9)
	var peerContract, sender, recipient [32]byte
	peerContract[0], sender[0], recipient[0] = 1, 2, 4
	rig.registerPeer(t, 2, peerContract, 8)

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    sender,
		Amount:         100_000_001, // 9 decimals local vs 8 peer decimals: last digit is dust
		RecipientChain: 2,
		Recipient:      recipient,
	}
	if _, _, err := rig.mgr.Transfer(sender, req); err != nerrors.ErrDustNotAllowed {
		t.Fatalf("expected ErrDustNotAllowed, got %v", err)
	}
}

func TestTransferImmediateDispatchBurnsAndSends(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, sender, recipient [32]byte
	peerContract[0], sender[0], recipient[0] = 1, 2, 4
	rig.registerPeer(t, 2, peerContract, 8)

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    sender,
		Amount:         1_000,
		RecipientChain: 2,
		Recipient:      recipient,
	}
	_, queued, err := rig.mgr.Transfer(sender, req)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if queued {
		t.Fatalf("expected immediate dispatch with ample outbound capacity")
	}
	if rig.tokens.burned[sender] != 1_000 {
		t.Fatalf("expected 1000 burned from sender, got %d", rig.tokens.burned[sender])
	}
}

func TestTransferQueuesOnOutboundShortfall(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, sender, recipient [32]byte
	peerContract[0], sender[0], recipient[0] = 1, 2, 4
	rig.registerPeer(t, 2, peerContract, 8)

	outboundID := ratelimiter.OutboundBucketID()
	if err := rig.rl.SetRateLimit(outboundID, uint256.NewInt(500)); err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}
	if err := rig.rl.SetRateDuration(outboundID, 1000); err != nil {
		t.Fatalf("SetRateDuration: %v", err)
	}

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    sender,
		Amount:         1_000,
		RecipientChain: 2,
		Recipient:      recipient,
		ShouldQueue:    true,
	}
	messageID, queued, err := rig.mgr.Transfer(sender, req)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !queued {
		t.Fatalf("expected transfer to queue on shortfall")
	}
	if rig.tokens.burned[sender] != 1_000 {
		t.Fatalf("expected burn to happen even when queued, got %d", rig.tokens.burned[sender])
	}

	if err := rig.mgr.CompleteOutboundQueued(messageID); err != nerrors.ErrStillQueued {
		t.Fatalf("expected ErrStillQueued before release time, got %v", err)
	}
	rig.clock.advance(1001 * time.Second)
	if err := rig.mgr.CompleteOutboundQueued(messageID); err != nil {
		t.Fatalf("CompleteOutboundQueued: %v", err)
	}
}

func TestCancelOutboundQueuedRefundsSender(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, sender, recipient [32]byte
	peerContract[0], sender[0], recipient[0] = 1, 2, 4
	rig.registerPeer(t, 2, peerContract, 8)

	outboundID := ratelimiter.OutboundBucketID()
	if err := rig.rl.SetRateLimit(outboundID, uint256.NewInt(500)); err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    sender,
		Amount:         1_000,
		RecipientChain: 2,
		Recipient:      recipient,
		ShouldQueue:    true,
	}
	messageID, queued, err := rig.mgr.Transfer(sender, req)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !queued {
		t.Fatalf("expected queue on shortfall")
	}

	other := sender
	other[5] = 0xFF
	if err := rig.mgr.CancelOutboundQueued(other, messageID); err != nerrors.ErrOnlyOriginalSender {
		t.Fatalf("expected ErrOnlyOriginalSender, got %v", err)
	}
	if err := rig.mgr.CancelOutboundQueued(sender, messageID); err != nil {
		t.Fatalf("CancelOutboundQueued: %v", err)
	}
	if rig.tokens.minted[sender] != 1_000 {
		t.Fatalf("expected refund mint of 1000, got %d", rig.tokens.minted[sender])
	}
}

func TestTransferFailsWithoutQueueingWhenShouldQueueFalse(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, sender, recipient [32]byte
	peerContract[0], sender[0], recipient[0] = 1, 2, 4
	rig.registerPeer(t, 2, peerContract, 8)

	outboundID := ratelimiter.OutboundBucketID()
	if err := rig.rl.SetRateLimit(outboundID, uint256.NewInt(500)); err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    sender,
		Amount:         1_000,
		RecipientChain: 2,
		Recipient:      recipient,
		ShouldQueue:    false,
	}
	if _, _, err := rig.mgr.Transfer(sender, req); err != nerrors.ErrInsufficientCapacity {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
	if rig.tokens.burned[sender] != 0 {
		t.Fatalf("expected no burn when the transfer is rejected outright, got %d", rig.tokens.burned[sender])
	}
}

func TestPauseBlocksQueuedOperations(t *testing.T) {
	rig := newTestRig(t, 1, 8)
	var peerContract, sender, recipient [32]byte
	peerContract[0], sender[0], recipient[0] = 1, 2, 4
	rig.registerPeer(t, 2, peerContract, 8)

	outboundID := ratelimiter.OutboundBucketID()
	if err := rig.rl.SetRateLimit(outboundID, uint256.NewInt(500)); err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}

	req := OutboundTransferRequest{
		Sender:         sender,
		AssetSender:    sender,
		Amount:         1_000,
		RecipientChain: 2,
		Recipient:      recipient,
		ShouldQueue:    true,
	}
	messageID, queued, err := rig.mgr.Transfer(sender, req)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !queued {
		t.Fatalf("expected queue on shortfall")
	}
	rig.clock.advance(1001 * time.Second)

	if err := rig.mgr.Pause(rig.admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	if err := rig.mgr.CompleteOutboundQueued(messageID); err != nerrors.ErrManagerPaused {
		t.Fatalf("expected ErrManagerPaused from CompleteOutboundQueued, got %v", err)
	}
	if err := rig.mgr.CancelOutboundQueued(sender, messageID); err != nerrors.ErrManagerPaused {
		t.Fatalf("expected ErrManagerPaused from CancelOutboundQueued, got %v", err)
	}

	var digest [32]byte
	digest[0] = 0xEE
	if err := rig.mgr.CompleteInboundQueued(digest); err != nerrors.ErrManagerPaused {
		t.Fatalf("expected ErrManagerPaused from CompleteInboundQueued, got %v", err)
	}

	if err := rig.mgr.Unpause(rig.admin); err != nil {
		t.Fatalf("Unpause: %v", err)
	}
	if err := rig.mgr.CompleteOutboundQueued(messageID); err != nil {
		t.Fatalf("CompleteOutboundQueued after unpause: %v", err)
	}
}
