// Package aggregator implements the transceiver manager: the
// N-of-M attestation threshold that a message handler requires before a
// cross-chain message is considered approved, independent of which
// transceivers actually relayed it.
package aggregator

import "nttcore/codec"

// MaxTransceivers bounds how many transceiver channels a single handler
// may configure. It keeps attester lists and delivery fan-out cost
// bounded.
const MaxTransceivers = 32

// HandlerID identifies one message handler's namespace. A deployment
// typically runs one handler per token, shared across every configured
// transceiver.
type HandlerID [32]byte

// TransceiverID identifies one configured relay channel within a
// handler's namespace.
type TransceiverID [32]byte

// Transceiver is the collaborator interface each configured relay
// channel satisfies. The aggregator never assumes a specific transport;
// wormhole-style guardian networks, light-client relays and purely local
// test doubles all implement the same two methods. The interface covers
// quoting and sending only; inbound delivery is not part of it, and
// attestations reach the aggregator through AttestationReceived.
type Transceiver interface {
	// QuoteDeliveryPrice returns what this transceiver charges to relay
	// one message to destinationChain.
	QuoteDeliveryPrice(destinationChain uint16, instruction []byte) (uint64, error)
	// SendMessage dispatches msg to destinationChain. The aggregator
	// calls this once per configured transceiver, in configured order.
	SendMessage(destinationChain uint16, msg codec.HandlerMessage, instruction []byte) error
}

// HandlerConfig holds one handler's configured transceiver set and
// threshold.
type HandlerConfig struct {
	Admin        [32]byte
	Threshold    uint64
	Paused       bool
	Transceivers [][32]byte
}

// HasTransceiver reports whether id is configured for this handler.
func (c *HandlerConfig) HasTransceiver(id [32]byte) bool {
	for _, t := range c.Transceivers {
		if t == id {
			return true
		}
	}
	return false
}

// AttestationRecord tracks one message digest's attestation progress.
// ThresholdAtSend is captured the moment the first transceiver attests
// and is what IsMessageApproved checks against for the rest of that
// digest's lifetime, so a later SetThreshold call can never retroactively
// approve or strand a message already partway through attestation.
type AttestationRecord struct {
	Attesters       [][32]byte
	ThresholdAtSend uint64
	Executed        bool
}

// HasAttested reports whether transceiver has already attested to this
// digest.
func (a *AttestationRecord) HasAttested(transceiver [32]byte) bool {
	for _, t := range a.Attesters {
		if t == transceiver {
			return true
		}
	}
	return false
}

// Count returns the number of distinct transceivers that have attested.
func (a *AttestationRecord) Count() uint64 { return uint64(len(a.Attesters)) }
