package codec

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// MessageDigest computes the keccak256 digest the aggregator keys
// attestations by: the hash of the message id, the user address the
// transfer ultimately credits, the source chain id, the source address
// that originated the message, the handler address it targets, and the
// opaque payload itself. Two transceivers relaying the same logical
// message must therefore produce byte-identical inputs to agree on the
// same digest.
func MessageDigest(messageID, userAddress [32]byte, sourceChain uint16, sourceAddress, handlerAddress [32]byte, payload []byte) [32]byte {
	buf := make([]byte, 0, 32+32+2+32+32+len(payload))
	buf = append(buf, messageID[:]...)
	buf = append(buf, userAddress[:]...)
	chainBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(chainBuf, sourceChain)
	buf = append(buf, chainBuf...)
	buf = append(buf, sourceAddress[:]...)
	buf = append(buf, handlerAddress[:]...)
	buf = append(buf, payload...)
	return crypto.Keccak256Hash(buf)
}

// MessageID derives the deterministic id for the nth message sent by a
// manager, matching the teacher's convention of hashing the sequence
// counter rather than trusting caller-supplied ids.
func MessageID(sequence uint64) [32]byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, sequence)
	return crypto.Keccak256Hash(buf)
}
