package manager

import (
	"encoding/hex"
	"log/slog"
	"strconv"

	"github.com/holiman/uint256"

	"nttcore/aggregator"
	"nttcore/codec"
	"nttcore/core/events"
	"nttcore/core/nerrors"
	"nttcore/observability/metrics"
	"nttcore/ratelimiter"
)

// Transfer burns req.Amount from req.Sender, trims it to the wire
// precision shared with req.RecipientChain's peer, and either dispatches
// it immediately through the aggregator or queues it if the outbound
// bucket lacks capacity. It returns the derived message id and whether
// the transfer was queued.
//
// req.AssetSender must equal caller, the party that actually invoked
// Transfer: the asset deposit backing this transfer must have been
// signed by the same party making the call, so a relayer cannot submit
// a third party's approved deposit as its own transfer request while
// the Manager call itself is signed by someone else.
func (m *Manager) Transfer(caller [32]byte, req OutboundTransferRequest) (messageID [32]byte, queued bool, err error) {
	cfg, err := m.loadConfig()
	if err != nil {
		return messageID, false, err
	}
	if cfg.Paused {
		return messageID, false, nerrors.ErrManagerPaused
	}
	if req.AssetSender != caller {
		return messageID, false, nerrors.ErrUnauthorizedAssetSender
	}
	if req.Amount == 0 {
		return messageID, false, nerrors.ErrZeroAmount
	}
	if req.Recipient == [32]byte{} {
		return messageID, false, nerrors.ErrRecipientZero
	}
	peer, err := m.loadPeer(req.RecipientChain)
	if err != nil {
		return messageID, false, err
	}

	trimmed := codec.Trim(req.Amount, cfg.LocalDecimals, peer.Decimals)
	if !codec.LossinessCheck(req.Amount, cfg.LocalDecimals, peer.Decimals) {
		return messageID, false, nerrors.ErrDustNotAllowed
	}

	if !req.ShouldQueue {
		ok, err := m.rateLimiter.HasCapacity(ratelimiter.OutboundBucketID(), uint256.NewInt(trimmed.Amount))
		if err != nil {
			return messageID, false, err
		}
		if !ok {
			return messageID, false, nerrors.ErrInsufficientCapacity
		}
	}

	if err := m.tokens.Burn(req.Sender, req.Amount); err != nil {
		return messageID, false, err
	}

	cfg.SequenceCounter++
	messageID = codec.MessageID(cfg.SequenceCounter)
	if err := m.saveConfig(cfg); err != nil {
		return messageID, false, err
	}

	payload := codec.Payload{
		TrimmedDecimals: trimmed.Decimals,
		TrimmedAmount:   trimmed.Amount,
		SourceToken:     cfg.HandlerID,
		Recipient:       req.Recipient,
		ToChain:         uint16(req.RecipientChain),
	}
	msg := codec.HandlerMessage{
		ID:               messageID,
		SourceChain:      uint16(cfg.LocalChain),
		SourceAddress:    cfg.HandlerID,
		RecipientAddress: peer.Contract,
		Payload:          payload.Encode(),
	}

	queued, err = m.rateLimiter.EnqueueOrConsumeOutbound(messageID, req.Sender, uint16(req.RecipientChain), req.Recipient, trimmed.Amount, req.ShouldQueue)
	if err != nil {
		return messageID, false, err
	}
	if queued {
		entry := &QueuedOutbound{
			Sender:                  req.Sender,
			RecipientChain:          req.RecipientChain,
			Recipient:               req.Recipient,
			TrimmedAmount:           trimmed.Amount,
			TrimmedDecimals:         trimmed.Decimals,
			Message:                 msg.Encode(),
			TransceiverInstructions: req.TransceiverInstructions,
			FeePaid:                 req.FeePaid,
		}
		if err := m.store.KVPut(queuedOutboundKey(messageID), entry); err != nil {
			return messageID, false, err
		}
		chainLabel := strconv.FormatUint(uint64(req.RecipientChain), 10)
		metrics.Manager().RecordTransfer(chainLabel, "queued")
		m.logger.Info("transfer queued", slog.String("chain", chainLabel), slog.String("messageId", hex.EncodeToString(messageID[:])))
		return messageID, true, nil
	}

	if err := m.dispatch(cfg, req.RecipientChain, msg, req.TransceiverInstructions, req.FeePaid); err != nil {
		return messageID, false, err
	}
	chainLabel := strconv.FormatUint(uint64(req.RecipientChain), 10)
	metrics.Manager().RecordTransfer(chainLabel, "sent")
	m.logger.Info("transfer sent", slog.String("chain", chainLabel), slog.String("messageId", hex.EncodeToString(messageID[:])))
	m.emitter.Emit(events.Wrap(events.NewTransferSentEvent(messageID, req.Recipient, uint16(req.RecipientChain), trimmed.Amount, req.FeePaid)))
	return messageID, false, nil
}

func (m *Manager) dispatch(cfg *managerConfig, recipientChain ChainID, msg codec.HandlerMessage, instructions []codec.TransceiverInstruction, feePaid uint64) error {
	if m.fees != nil && feePaid > 0 {
		if err := m.fees.CollectFee(msg.SourceAddress, feePaid); err != nil {
			return err
		}
	}
	return m.aggregator.SendMessageToTransceivers(aggregator.HandlerID(cfg.HandlerID), cfg.HandlerID, uint16(recipientChain), msg, instructions, feePaid)
}

// CompleteOutboundQueued finalises a previously rate-limited outbound
// transfer once the rate limiter's release time has passed, dispatching
// it through the aggregator exactly as an immediate Transfer would have.
func (m *Manager) CompleteOutboundQueued(messageID [32]byte) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paused {
		return nerrors.ErrManagerPaused
	}
	if _, err := m.rateLimiter.CompleteOutboundQueued(messageID); err != nil {
		return err
	}
	var entry QueuedOutbound
	ok, err := m.store.KVGet(queuedOutboundKey(messageID), &entry)
	if err != nil {
		return err
	}
	if !ok {
		return nerrors.ErrQueuedTransferUnknownManager
	}
	msg, err := codec.DecodeHandlerMessage(entry.Message)
	if err != nil {
		return err
	}
	if err := m.dispatch(cfg, entry.RecipientChain, msg, entry.TransceiverInstructions, entry.FeePaid); err != nil {
		return err
	}
	if err := m.store.KVDelete(queuedOutboundKey(messageID)); err != nil {
		return err
	}
	m.emitter.Emit(events.Wrap(events.NewTransferSentEvent(messageID, entry.Recipient, uint16(entry.RecipientChain), entry.TrimmedAmount, entry.FeePaid)))
	return nil
}

// CancelOutboundQueued deletes a still-queued outbound transfer before
// its release time and refunds the original sender by minting back the
// amount that was burned at Transfer time. Only the original sender may
// cancel.
func (m *Manager) CancelOutboundQueued(caller [32]byte, messageID [32]byte) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paused {
		return nerrors.ErrManagerPaused
	}
	var entry QueuedOutbound
	ok, err := m.store.KVGet(queuedOutboundKey(messageID), &entry)
	if err != nil {
		return err
	}
	if !ok {
		return nerrors.ErrQueuedTransferUnknownManager
	}
	if entry.Sender != caller {
		return nerrors.ErrOnlyOriginalSender
	}
	if _, err := m.rateLimiter.CancelOutboundQueued(messageID); err != nil {
		return err
	}
	if err := m.store.KVDelete(queuedOutboundKey(messageID)); err != nil {
		return err
	}
	refund := entry.TrimmedAmount
	if entry.TrimmedDecimals != cfg.LocalDecimals {
		refund = codec.TrimmedAmount{Amount: entry.TrimmedAmount, Decimals: entry.TrimmedDecimals}.Untrim(cfg.LocalDecimals)
	}
	if err := m.tokens.Mint(entry.Sender, refund); err != nil {
		return err
	}
	return nil
}
