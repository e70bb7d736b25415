// Package fingerprint provides fixed-width binary image fingerprints and the
// Hamming distance between them.
package fingerprint

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// ErrWidthMismatch is returned when two fingerprints of different bit widths
// are compared.
var ErrWidthMismatch = errors.New("fingerprint widths differ")

// Fingerprint is an immutable bit vector of a fixed width. Bit 0 is the most
// significant bit of the first word.
type Fingerprint struct {
	width int
	words []uint64
}

// New builds a fingerprint of the given width from its words. Bits beyond
// width in the last word are cleared.
func New(words []uint64, width int) (Fingerprint, error) {
	if width <= 0 {
		return Fingerprint{}, errors.Errorf("invalid fingerprint width %d", width)
	}
	need := wordsFor(width)
	if len(words) != need {
		return Fingerprint{}, errors.Errorf("fingerprint of %d bits needs %d words, got %d", width, need, len(words))
	}
	w := make([]uint64, need)
	copy(w, words)
	if rem := width % 64; rem != 0 {
		w[need-1] &= ^uint64(0) << (64 - rem)
	}
	return Fingerprint{width: width, words: w}, nil
}

// FromUint64 wraps a 64-bit hash value.
func FromUint64(v uint64) Fingerprint {
	return Fingerprint{width: 64, words: []uint64{v}}
}

// ParseBits reads a string of '0' and '1' characters, most significant first.
func ParseBits(s string) (Fingerprint, error) {
	if s == "" {
		return Fingerprint{}, errors.New("empty bit string")
	}
	words := make([]uint64, wordsFor(len(s)))
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			words[i/64] |= 1 << (63 - uint(i%64))
		default:
			return Fingerprint{}, errors.Errorf("invalid bit %q at position %d", c, i)
		}
	}
	return Fingerprint{width: len(s), words: words}, nil
}

// ParseHex reads the representation produced by String for a fingerprint of
// the given width.
func ParseHex(s string, width int) (Fingerprint, error) {
	if width <= 0 {
		return Fingerprint{}, errors.Errorf("invalid fingerprint width %d", width)
	}
	if len(s) != nibblesFor(width) {
		return Fingerprint{}, errors.Errorf("hex fingerprint %q has %d digits, want %d for %d bits", s, len(s), nibblesFor(width), width)
	}
	words := make([]uint64, wordsFor(width))
	for i := 0; i < len(s); i++ {
		var n uint64
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			n = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			n = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n = uint64(c-'A') + 10
		default:
			return Fingerprint{}, errors.Errorf("invalid hex digit %q in fingerprint", c)
		}
		bit := i * 4
		words[bit/64] |= n << (60 - uint(bit%64))
	}
	return New(words, width)
}

// Width returns the number of bits.
func (f Fingerprint) Width() int {
	return f.width
}

// String renders the fingerprint as lowercase hex, one digit per four bits.
func (f Fingerprint) String() string {
	if f.width == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < nibblesFor(f.width); i++ {
		bit := i * 4
		n := (f.words[bit/64] >> (60 - uint(bit%64))) & 0xf
		fmt.Fprintf(&sb, "%x", n)
	}
	return sb.String()
}

// Bits renders the fingerprint as a string of '0' and '1'.
func (f Fingerprint) Bits() string {
	var sb strings.Builder
	for i := 0; i < f.width; i++ {
		if f.words[i/64]&(1<<(63-uint(i%64))) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// SameWidth reports whether a and b can be compared.
func SameWidth(a, b Fingerprint) bool {
	return a.width == b.width
}

// Distance returns the number of bit positions at which a and b differ.
func Distance(a, b Fingerprint) (int, error) {
	if a.width != b.width {
		return 0, errors.Wrapf(ErrWidthMismatch, "%d vs %d bits", a.width, b.width)
	}
	return hamming(a.words, b.words), nil
}

// MustDistance is Distance for callers that already checked the widths.
func MustDistance(a, b Fingerprint) int {
	d, err := Distance(a, b)
	if err != nil {
		panic(err)
	}
	return d
}

func hamming(a, b []uint64) int {
	sum := 0
	for i := range a {
		sum += bits.OnesCount64(a[i] ^ b[i])
	}
	return sum
}

func wordsFor(width int) int {
	return (width + 63) / 64
}

func nibblesFor(width int) int {
	return (width + 3) / 4
}
