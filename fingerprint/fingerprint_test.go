package fingerprint

import (
	"errors"
	"testing"
)

func mustBits(t *testing.T, s string) Fingerprint {
	t.Helper()
	f, err := ParseBits(s)
	if err != nil {
		t.Fatalf("ParseBits(%q): %v", s, err)
	}
	return f
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0000", "0000", 0},
		{"0000", "0001", 1},
		{"0000", "1111", 4},
		{"0001", "1111", 3},
		{"1010", "0101", 4},
	}

	for _, tt := range tests {
		a := mustBits(t, tt.a)
		b := mustBits(t, tt.b)
		got, err := Distance(a, b)
		if err != nil {
			t.Fatalf("Distance(%s, %s): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Distance(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		back, _ := Distance(b, a)
		if back != got {
			t.Errorf("Distance not symmetric for %s, %s: %d vs %d", tt.a, tt.b, got, back)
		}
	}
}

func TestDistanceMultiWord(t *testing.T) {
	a, err := New([]uint64{0, 0}, 128)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New([]uint64{0xff, 1 << 63}, 128)
	if err != nil {
		t.Fatal(err)
	}
	if d := MustDistance(a, b); d != 9 {
		t.Errorf("Distance = %d, want 9", d)
	}
	if d := MustDistance(b, b); d != 0 {
		t.Errorf("self distance = %d, want 0", d)
	}
}

func TestDistanceWidthMismatch(t *testing.T) {
	_, err := Distance(mustBits(t, "0000"), mustBits(t, "00000"))
	if !errors.Is(err, ErrWidthMismatch) {
		t.Fatalf("expected ErrWidthMismatch, got %v", err)
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, bits := range []string{"0001", "101", "1111000011110000", "10000000000000000000000000000000000000000000000000000000000000001"} {
		f := mustBits(t, bits)
		parsed, err := ParseHex(f.String(), f.Width())
		if err != nil {
			t.Fatalf("ParseHex(%q, %d): %v", f.String(), f.Width(), err)
		}
		if parsed.Bits() != bits {
			t.Errorf("round trip of %s gave %s (hex %s)", bits, parsed.Bits(), f.String())
		}
	}
}

func TestFromUint64(t *testing.T) {
	f := FromUint64(0x8000000000000001)
	if f.Width() != 64 {
		t.Fatalf("Width = %d, want 64", f.Width())
	}
	if f.String() != "8000000000000001" {
		t.Errorf("String = %s", f.String())
	}
}

func TestNewClearsPadding(t *testing.T) {
	f, err := New([]uint64{^uint64(0)}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if f.Bits() != "1111" {
		t.Errorf("Bits = %s, want 1111", f.Bits())
	}
	if d := MustDistance(f, mustBits(t, "1111")); d != 0 {
		t.Errorf("padding bits leaked into distance: %d", d)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := ParseBits("01x1"); err == nil {
		t.Error("expected error for invalid bit")
	}
	if _, err := ParseBits(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := ParseHex("zz", 8); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := ParseHex("abc", 8); err == nil {
		t.Error("expected error for wrong length")
	}
	if _, err := New([]uint64{0}, 128); err == nil {
		t.Error("expected error for word count mismatch")
	}
}
