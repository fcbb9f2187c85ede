package codec

// MaxTrimmedDecimals caps the precision carried over the wire to 8
// decimal places regardless of either side's native token precision.
const MaxTrimmedDecimals = 8

// TrimmedAmount is an amount expressed at a reduced, wire-safe decimal
// precision shared by both sides of a transfer.
type TrimmedAmount struct {
	Amount   uint64
	Decimals uint8
}

func pow10(n uint8) uint64 {
	p := uint64(1)
	for i := uint8(0); i < n; i++ {
		p *= 10
	}
	return p
}

func minDecimals(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// scale converts amount from fromDecimals precision to toDecimals
// precision, truncating any residue when scaling down.
func scale(amount uint64, fromDecimals, toDecimals uint8) uint64 {
	if fromDecimals == toDecimals {
		return amount
	}
	if fromDecimals > toDecimals {
		return amount / pow10(fromDecimals-toDecimals)
	}
	return amount * pow10(toDecimals-fromDecimals)
}

// TargetDecimals returns the wire decimals used between two sides with
// the given native decimals: the smaller of the two, capped at
// MaxTrimmedDecimals.
func TargetDecimals(localDecimals, peerDecimals uint8) uint8 {
	return minDecimals(minDecimals(localDecimals, peerDecimals), MaxTrimmedDecimals)
}

// Trim reduces amount, expressed at fromDecimals, to the wire precision
// shared with a peer that uses peerDecimals.
func Trim(amount uint64, fromDecimals, peerDecimals uint8) TrimmedAmount {
	target := TargetDecimals(fromDecimals, peerDecimals)
	return TrimmedAmount{
		Amount:   scale(amount, fromDecimals, target),
		Decimals: target,
	}
}

// Untrim restores a TrimmedAmount to toDecimals precision.
func (t TrimmedAmount) Untrim(toDecimals uint8) uint64 {
	return scale(t.Amount, t.Decimals, toDecimals)
}

// LossinessCheck reports whether trimming amount (expressed at
// fromDecimals) to peerDecimals and untrimming it back would recover the
// original value exactly. A mismatch means the low-order digits are dust
// that would be silently destroyed by the round trip.
func LossinessCheck(amount uint64, fromDecimals, peerDecimals uint8) bool {
	trimmed := Trim(amount, fromDecimals, peerDecimals)
	return trimmed.Untrim(fromDecimals) == amount
}
