package manager

import (
	"strconv"

	"nttcore/aggregator"
	"nttcore/codec"
	"nttcore/core/events"
	"nttcore/core/nerrors"
	"nttcore/observability/metrics"
)

// ExecuteMessage is called once the aggregator has recorded an
// attestation for the handler-wrapped message carried by raw. It
// verifies the message targets this chain and this manager's handler
// address, checks aggregator approval, marks the digest executed, untrims
// the amount to local precision and either mints immediately or
// queues the mint behind the inbound rate limit.
func (m *Manager) ExecuteMessage(raw []byte) (queued bool, err error) {
	cfg, err := m.loadConfig()
	if err != nil {
		return false, err
	}
	if cfg.Paused {
		return false, nerrors.ErrManagerPaused
	}

	msg, err := codec.DecodeHandlerMessage(raw)
	if err != nil {
		return false, err
	}
	if msg.RecipientAddress != cfg.HandlerID {
		return false, nerrors.ErrInvalidTargetChain
	}
	peer, err := m.loadPeer(ChainID(msg.SourceChain))
	if err != nil {
		return false, err
	}
	if peer.Contract != msg.SourceAddress {
		return false, nerrors.ErrEmitterAddressMismatch
	}

	payload, err := codec.DecodePayload(msg.Payload)
	if err != nil {
		return false, err
	}
	if ChainID(payload.ToChain) != cfg.LocalChain {
		return false, nerrors.ErrInvalidTargetChain
	}

	digest := codec.MessageDigest(msg.ID, payload.Recipient, msg.SourceChain, msg.SourceAddress, msg.RecipientAddress, msg.Payload)

	approved, err := m.aggregator.IsMessageApproved(aggregator.HandlerID(cfg.HandlerID), digest)
	if err != nil {
		return false, err
	}
	if !approved {
		return false, nerrors.ErrMessageNotApproved
	}
	if err := m.aggregator.MarkExecuted(aggregator.HandlerID(cfg.HandlerID), digest); err != nil {
		return false, err
	}

	trimmed := codec.TrimmedAmount{Amount: payload.TrimmedAmount, Decimals: payload.TrimmedDecimals}
	localAmount := trimmed.Untrim(cfg.LocalDecimals)

	queued, err = m.rateLimiter.EnqueueOrConsumeInbound(digest, msg.SourceChain, payload.Recipient, trimmed.Amount)
	if err != nil {
		return false, err
	}
	chainLabel := strconv.FormatUint(uint64(msg.SourceChain), 10)
	if queued {
		entry := &QueuedInbound{Recipient: payload.Recipient, UntrimmedAmount: localAmount}
		if err := m.store.KVPut(queuedInboundKey(digest), entry); err != nil {
			return false, err
		}
		metrics.Manager().RecordMint(chainLabel, "queued")
		return true, nil
	}

	if err := m.tokens.Mint(payload.Recipient, localAmount); err != nil {
		return false, err
	}
	metrics.Manager().RecordMint(chainLabel, "minted")
	m.emitter.Emit(events.Wrap(events.NewMintedEvent(payload.Recipient, localAmount)))
	return false, nil
}

// CompleteInboundQueued mints a previously rate-limited inbound transfer
// once the rate limiter's release time has passed.
func (m *Manager) CompleteInboundQueued(digest [32]byte) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paused {
		return nerrors.ErrManagerPaused
	}
	if _, err := m.rateLimiter.CompleteInboundQueued(digest); err != nil {
		return err
	}
	var entry QueuedInbound
	ok, err := m.store.KVGet(queuedInboundKey(digest), &entry)
	if err != nil {
		return err
	}
	if !ok {
		return nerrors.ErrQueuedTransferUnknownManager
	}
	if err := m.store.KVDelete(queuedInboundKey(digest)); err != nil {
		return err
	}
	if err := m.tokens.Mint(entry.Recipient, entry.UntrimmedAmount); err != nil {
		return err
	}
	m.emitter.Emit(events.Wrap(events.NewMintedEvent(entry.Recipient, entry.UntrimmedAmount)))
	return nil
}

// SetAggregator rebinds the manager to a different aggregator handler
// instance, e.g. during a coordinated redeployment. It does not migrate
// in-flight attestation state; that lives entirely inside the old
// aggregator instance.
func (m *Manager) SetAggregator(caller [32]byte, handlerID [32]byte) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if err := m.roles.RequireRole(AdminRole(cfg.HandlerID), caller); err != nil {
		return err
	}
	cfg.HandlerID = handlerID
	if err := m.saveConfig(cfg); err != nil {
		return err
	}
	m.emitter.Emit(events.Wrap(events.NewAggregatorUpdatedEvent(handlerID)))
	return nil
}
