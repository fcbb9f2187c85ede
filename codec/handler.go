package codec

import (
	"encoding/binary"

	"nttcore/core/nerrors"
)

// HandlerPrefix identifies a handler-wrapped message: the envelope every
// transceiver actually relays, carrying an opaque manager payload.
var HandlerPrefix = [4]byte{0x99, 0x45, 0xFF, 0x10}

// handlerHeaderLen is the fixed portion preceding the variable-length
// payload: prefix(4) + id(32) + sourceChain(2) + sourceAddress(32) +
// recipientAddress(32) + payloadLen(2).
const handlerHeaderLen = 4 + 32 + 2 + 32 + 32 + 2

// HandlerMessage is the envelope the aggregator hands to each configured
// transceiver and that attestation is ultimately computed over.
type HandlerMessage struct {
	ID               [32]byte
	SourceChain      uint16
	SourceAddress    [32]byte
	RecipientAddress [32]byte
	Payload          []byte
}

// Encode serialises m, including its variable-length payload, as the
// bytes a transceiver actually transmits.
func (m HandlerMessage) Encode() []byte {
	buf := make([]byte, handlerHeaderLen+len(m.Payload))
	copy(buf[0:4], HandlerPrefix[:])
	copy(buf[4:36], m.ID[:])
	binary.BigEndian.PutUint16(buf[36:38], m.SourceChain)
	copy(buf[38:70], m.SourceAddress[:])
	copy(buf[70:102], m.RecipientAddress[:])
	binary.BigEndian.PutUint16(buf[102:104], uint16(len(m.Payload)))
	copy(buf[104:], m.Payload)
	return buf
}

// DecodeHandlerMessage parses a HandlerMessage, rejecting a short buffer,
// a mismatched prefix, or a declared payload length longer than the
// remaining bytes. Bytes after the declared payload are ignored.
func DecodeHandlerMessage(buf []byte) (HandlerMessage, error) {
	if len(buf) < handlerHeaderLen {
		return HandlerMessage{}, nerrors.ErrPayloadTooShort
	}
	if [4]byte(buf[0:4]) != HandlerPrefix {
		return HandlerMessage{}, nerrors.ErrIncorrectPrefix
	}
	var m HandlerMessage
	copy(m.ID[:], buf[4:36])
	m.SourceChain = binary.BigEndian.Uint16(buf[36:38])
	copy(m.SourceAddress[:], buf[38:70])
	copy(m.RecipientAddress[:], buf[70:102])
	payloadLen := binary.BigEndian.Uint16(buf[102:104])
	if len(buf) < handlerHeaderLen+int(payloadLen) {
		return HandlerMessage{}, nerrors.ErrPayloadTooShort
	}
	m.Payload = append([]byte(nil), buf[handlerHeaderLen:handlerHeaderLen+int(payloadLen)]...)
	return m, nil
}

// TransceiverInstruction names one transceiver in the order the sender
// wants it invoked, optionally carrying transceiver-specific delivery
// instructions.
type TransceiverInstruction struct {
	TransceiverID [32]byte
	Instruction   []byte
}

// ValidateInstructionOrder checks that instructions names a subset of
// configured, in the same relative order configured lists them, with no
// duplicates and no unknown transceiver ids. The aggregator calls this
// before quoting or sending so a caller cannot skip a configured
// transceiver by omission alone while still reordering the rest.
func ValidateInstructionOrder(configured [][32]byte, instructions []TransceiverInstruction) error {
	pos := make(map[[32]byte]int, len(configured))
	for i, id := range configured {
		pos[id] = i
	}
	last := -1
	seen := make(map[[32]byte]bool, len(instructions))
	for _, instr := range instructions {
		idx, ok := pos[instr.TransceiverID]
		if !ok {
			return nerrors.ErrInstructionsUnordered
		}
		if seen[instr.TransceiverID] {
			return nerrors.ErrInstructionsUnordered
		}
		seen[instr.TransceiverID] = true
		if idx <= last {
			return nerrors.ErrInstructionsUnordered
		}
		last = idx
	}
	return nil
}
