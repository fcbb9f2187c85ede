package codec

import "testing"

func TestTrimReducesToSharedPrecision(t *testing.T) {
	trimmed := Trim(123_456_789_012, 18, 6)
	if trimmed.Decimals != 6 {
		t.Fatalf("expected decimals reduced to min(18,6,%d)=6, got %d", MaxTrimmedDecimals, trimmed.Decimals)
	}
}

func TestTrimUsesSmallerOfTheTwoDecimals(t *testing.T) {
	target := TargetDecimals(5, 3)
	if target != 3 {
		t.Fatalf("expected min(5,3)=3, got %d", target)
	}
}

func TestUntrimRoundTrip(t *testing.T) {
	amount := uint64(1_500_000_000)
	trimmed := Trim(amount, 9, 9)
	if got := trimmed.Untrim(9); got != amount {
		t.Fatalf("round trip mismatch: got %d want %d", got, amount)
	}
}

func TestLossinessCheckDetectsDust(t *testing.T) {
	amount := uint64(100_000_001) // 9 decimals local, trimming to 8 loses the last digit
	if LossinessCheck(amount, 9, 8) {
		t.Fatalf("expected lossiness check to reject dust-losing amount")
	}
	clean := uint64(100_000_010)
	if !LossinessCheck(clean, 9, 8) {
		t.Fatalf("expected lossiness check to accept amount with no dust")
	}
}
