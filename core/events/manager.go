package events

import (
	"strconv"

	"nttcore/core/types"
)

const (
	EventTypeNttManagerPeerSet = "manager.peer_set"
	EventTypeTransferSent      = "manager.transfer_sent"
	EventTypeMinted            = "manager.minted"
	EventTypePaused            = "manager.paused"
	EventTypeAggregatorUpdated = "manager.aggregator_updated"
)

// NewNttManagerPeerSetEvent reports a peer registration or override.
func NewNttManagerPeerSetEvent(chain uint16, peer [32]byte, decimals uint8, isNew bool) *types.Event {
	return &types.Event{
		Type: EventTypeNttManagerPeerSet,
		Attributes: map[string]string{
			"chain":    strconv.FormatUint(uint64(chain), 10),
			"peer":     hex32(peer),
			"decimals": strconv.FormatUint(uint64(decimals), 10),
			"isNew":    strconv.FormatBool(isNew),
		},
	}
}

// NewTransferSentEvent reports a successfully dispatched outbound
// transfer.
func NewTransferSentEvent(messageID [32]byte, recipient [32]byte, chain uint16, amount, deliveryPrice uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTransferSent,
		Attributes: map[string]string{
			"messageId":     hex32(messageID),
			"recipient":     hex32(recipient),
			"chain":         strconv.FormatUint(uint64(chain), 10),
			"amount":        strconv.FormatUint(amount, 10),
			"deliveryPrice": strconv.FormatUint(deliveryPrice, 10),
		},
	}
}

// NewMintedEvent reports a completed inbound mint, whether immediate or
// after a deferred queue release.
func NewMintedEvent(recipient [32]byte, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"recipient": hex32(recipient),
			"amount":    strconv.FormatUint(amount, 10),
		},
	}
}

// NewPausedEvent reports the manager's global pause state changing.
func NewPausedEvent(paused bool) *types.Event {
	return &types.Event{
		Type:       EventTypePaused,
		Attributes: map[string]string{"isPaused": strconv.FormatBool(paused)},
	}
}

// NewAggregatorUpdatedEvent reports the manager binding to a different
// aggregator instance, e.g. migrating to a redeployed one.
func NewAggregatorUpdatedEvent(handlerID [32]byte) *types.Event {
	return &types.Event{
		Type:       EventTypeAggregatorUpdated,
		Attributes: map[string]string{"handlerId": hex32(handlerID)},
	}
}
