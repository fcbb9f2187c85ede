package codec

import (
	"encoding/binary"

	"nttcore/core/nerrors"
)

// NTTPrefix identifies a transfer manager payload on the wire.
var NTTPrefix = [4]byte{0x99, 0x4E, 0x54, 0x54}

// NTTPayloadLen is the fixed encoded length of a Payload: 4-byte prefix,
// 1-byte trimmed decimals, 8-byte trimmed amount, 32-byte source token,
// 32-byte recipient, 2-byte destination chain.
const NTTPayloadLen = 4 + 1 + 8 + 32 + 32 + 2

// Payload is the fixed-layout transfer body carried inside every NTT
// manager message, independent of which transceivers relay it.
type Payload struct {
	TrimmedDecimals uint8
	TrimmedAmount   uint64
	SourceToken     [32]byte
	Recipient       [32]byte
	ToChain         uint16
}

// Encode serialises p into its fixed 79-byte wire form.
func (p Payload) Encode() []byte {
	buf := make([]byte, NTTPayloadLen)
	copy(buf[0:4], NTTPrefix[:])
	buf[4] = p.TrimmedDecimals
	binary.BigEndian.PutUint64(buf[5:13], p.TrimmedAmount)
	copy(buf[13:45], p.SourceToken[:])
	copy(buf[45:77], p.Recipient[:])
	binary.BigEndian.PutUint16(buf[77:79], p.ToChain)
	return buf
}

// DecodePayload parses a Payload from its fixed wire form, rejecting any
// buffer that is too short or carries the wrong prefix.
func DecodePayload(buf []byte) (Payload, error) {
	if len(buf) < NTTPayloadLen {
		return Payload{}, nerrors.ErrPayloadTooShort
	}
	if [4]byte(buf[0:4]) != NTTPrefix {
		return Payload{}, nerrors.ErrIncorrectPrefix
	}
	var p Payload
	p.TrimmedDecimals = buf[4]
	p.TrimmedAmount = binary.BigEndian.Uint64(buf[5:13])
	copy(p.SourceToken[:], buf[13:45])
	copy(p.Recipient[:], buf[45:77])
	p.ToChain = binary.BigEndian.Uint16(buf[77:79])
	return p, nil
}
