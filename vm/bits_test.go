package vm

import (
	"testing"
)

func TestBitsRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 5, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF, 0xDEADBEEF}
	for _, v := range values {
		s := WordString(v)
		if len(s) != 32 {
			t.Errorf("WordString(%#x) has length %d, want 32", v, len(s))
		}
		got, err := ParseWord(s)
		if err != nil {
			t.Fatalf("ParseWord(%q) returned error: %v", s, err)
		}
		if got != v {
			t.Errorf("round trip of %#x gave %#x", v, got)
		}
	}
}

func TestBitsRendering(t *testing.T) {
	if got := WordString(5); got != "00000000000000000000000000000101" {
		t.Errorf("WordString(5) = %q", got)
	}
	if got := Bits(0b10110, 5); got != "10110" {
		t.Errorf("Bits(0b10110, 5) = %q", got)
	}
}

func TestParseBitsErrors(t *testing.T) {
	if _, err := ParseBits("0101", 5); err == nil {
		t.Error("expected error for wrong-length string")
	}
	if _, err := ParseBits("01012", 5); err == nil {
		t.Error("expected error for invalid character")
	}
	if _, err := ParseWord("01"); err == nil {
		t.Error("expected error for short word")
	}
}

func TestSignExtendRoundTrip(t *testing.T) {
	for n := 2; n <= 32; n += 5 {
		lo := -(int64(1) << uint(n-1))
		hi := int64(1)<<uint(n-1) - 1
		for _, v := range []int64{lo, lo + 1, -1, 0, 1, hi - 1, hi} {
			enc := SignExtend(uint32(v)&(uint32(1)<<uint(n)-1), n)
			if n == 32 {
				enc = uint32(v)
			}
			if got := int64(int32(enc)); got != v {
				t.Errorf("width %d: sign extend of %d gave %d", n, v, got)
			}
		}
	}
}

func TestSignedValue(t *testing.T) {
	if got := SignedValue(0xFFFF, 16); got != -1 {
		t.Errorf("SignedValue(0xFFFF, 16) = %d, want -1", got)
	}
	if got := SignedValue(0x7FFF, 16); got != 32767 {
		t.Errorf("SignedValue(0x7FFF, 16) = %d, want 32767", got)
	}
	if got := SignExtend16(0xFFFB); got != 0xFFFFFFFB {
		t.Errorf("SignExtend16(0xFFFB) = %#x, want 0xFFFFFFFB", got)
	}
}
