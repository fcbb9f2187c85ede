package events

import (
	"strconv"

	"nttcore/core/types"
)

const (
	EventTypeMessageHandlerAdded = "aggregator.message_handler_added"
	EventTypeTransceiverAdded    = "aggregator.transceiver_added"
	EventTypeTransceiverRemoved  = "aggregator.transceiver_removed"
	EventTypeThresholdUpdated    = "aggregator.threshold_updated"
	EventTypeAttestationReceived = "aggregator.attestation_received"
	EventTypeMessageSent         = "aggregator.message_sent"
	EventTypeHandlerPaused       = "aggregator.handler_paused"
)

// NewMessageHandlerAddedEvent reports a handler's first registration with
// the aggregator.
func NewMessageHandlerAddedEvent(handlerID [32]byte, admin [32]byte) *types.Event {
	return &types.Event{
		Type: EventTypeMessageHandlerAdded,
		Attributes: map[string]string{
			"handlerId": hex32(handlerID),
			"admin":     hex32(admin),
		},
	}
}

// NewTransceiverAddedEvent reports a transceiver being appended to a
// handler's ordered channel list.
func NewTransceiverAddedEvent(handlerID, transceiverID [32]byte) *types.Event {
	return &types.Event{
		Type: EventTypeTransceiverAdded,
		Attributes: map[string]string{
			"handlerId":     hex32(handlerID),
			"transceiverId": hex32(transceiverID),
		},
	}
}

// NewTransceiverRemovedEvent reports a transceiver being removed while
// preserving the order of the survivors.
func NewTransceiverRemovedEvent(handlerID, transceiverID [32]byte) *types.Event {
	return &types.Event{
		Type: EventTypeTransceiverRemoved,
		Attributes: map[string]string{
			"handlerId":     hex32(handlerID),
			"transceiverId": hex32(transceiverID),
		},
	}
}

// NewThresholdUpdatedEvent reports a handler's threshold changing. Per the
// chosen threshold-capture resolution, the new value only governs digests
// whose first attestation arrives after this event.
func NewThresholdUpdatedEvent(handlerID [32]byte, newThreshold uint64) *types.Event {
	return &types.Event{
		Type: EventTypeThresholdUpdated,
		Attributes: map[string]string{
			"handlerId":    hex32(handlerID),
			"newThreshold": strconv.FormatUint(newThreshold, 10),
		},
	}
}

// NewAttestationReceivedEvent reports a single channel's attestation for a
// message, including the running attestation count.
func NewAttestationReceivedEvent(messageID [32]byte, sourceChain uint16, sourceAddress [32]byte, handlerID, digest [32]byte, count uint64) *types.Event {
	return &types.Event{
		Type: EventTypeAttestationReceived,
		Attributes: map[string]string{
			"messageId":     hex32(messageID),
			"sourceChain":   strconv.FormatUint(uint64(sourceChain), 10),
			"sourceAddress": hex32(sourceAddress),
			"handlerId":     hex32(handlerID),
			"digest":        hex32(digest),
			"count":         strconv.FormatUint(count, 10),
		},
	}
}

// NewMessageSentEvent reports dispatch of an outbound message through a
// single configured transceiver.
func NewMessageSentEvent(handlerID, transceiverID, messageID [32]byte) *types.Event {
	return &types.Event{
		Type: EventTypeMessageSent,
		Attributes: map[string]string{
			"handlerId":     hex32(handlerID),
			"transceiverId": hex32(transceiverID),
			"messageId":     hex32(messageID),
		},
	}
}

// NewHandlerPausedEvent reports a handler's pause state changing.
func NewHandlerPausedEvent(handlerID [32]byte, paused bool) *types.Event {
	return &types.Event{
		Type: EventTypeHandlerPaused,
		Attributes: map[string]string{
			"handlerId": hex32(handlerID),
			"isPaused":  strconv.FormatBool(paused),
		},
	}
}
