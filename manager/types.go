// Package manager implements the transfer manager: the component an
// integrator actually calls to send value cross-chain, and the one that
// ultimately credits the recipient once the aggregator has approved an
// inbound message.
package manager

import "nttcore/codec"

// ChainID identifies one chain in the peer registry. Chain id 0 is never
// valid; it marks an absent or unregistered entry.
type ChainID uint16

// PeerConfig is one entry in the peer registry: the remote manager
// contract for a chain and the native decimal precision its token uses,
// both required to compute the correct trimmed amount across that link.
type PeerConfig struct {
	Contract [32]byte
	Decimals uint8
}

// TokenAuthority is the collaborator that actually moves the underlying
// token. The manager never holds custody itself; it only decides when
// to call Burn ahead of an outbound transfer and Mint after an inbound
// one is approved.
type TokenAuthority interface {
	Burn(from [32]byte, amount uint64) error
	Mint(to [32]byte, amount uint64) error
}

// FeeAccount is the collaborator that collects the delivery fee an
// outbound transfer must pay before the aggregator will fan it out to
// transceivers.
type FeeAccount interface {
	CollectFee(payer [32]byte, amount uint64) error
}

// OutboundTransferRequest groups every input a Transfer call needs. It
// exists so the manager's sender-binding check has one clearly-scoped
// place to sit: AssetSender must equal the Transfer call's actual
// caller, or the call is rejected outright, regardless of what Sender
// this request claims.
type OutboundTransferRequest struct {
	Sender                  [32]byte
	AssetSender             [32]byte
	Amount                  uint64
	RecipientChain          ChainID
	Recipient               [32]byte
	FeePaid                 uint64
	ShouldQueue             bool
	TransceiverInstructions []codec.TransceiverInstruction
}

// managerConfig is the engine's own persisted state, distinct from the
// peer registry and from rate limiter or aggregator state.
type managerConfig struct {
	LocalChain      ChainID
	LocalDecimals   uint8
	HandlerID       [32]byte
	Admin           [32]byte
	Paused          bool
	SequenceCounter uint64
}

// QueuedOutbound is the manager's own record of a rate-limited outbound
// transfer, carrying everything needed to actually dispatch it once the
// rate limiter's queue entry becomes releasable. It is a separate record
// from ratelimiter.QueuedOutboundTransfer, which only tracks the amount
// for bucket bookkeeping.
type QueuedOutbound struct {
	Sender                  [32]byte
	RecipientChain          ChainID
	Recipient               [32]byte
	TrimmedAmount           uint64
	TrimmedDecimals         uint8
	Message                 []byte
	TransceiverInstructions []codec.TransceiverInstruction
	FeePaid                 uint64
}

// QueuedInbound is the manager's own record of a rate-limited inbound
// message, carrying what CompleteInboundQueued needs to finally mint.
type QueuedInbound struct {
	Recipient       [32]byte
	UntrimmedAmount uint64
}
