package events

import (
	"encoding/hex"

	"github.com/holiman/uint256"
)

func hex32(b [32]byte) string {
	return hex.EncodeToString(b[:])
}

func u256String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
