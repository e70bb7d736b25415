package imageprocessor

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"imagecluster/fingerprint"

	"github.com/corona10/goimagehash"
)

// DefaultHasher is the algorithm used when none is configured
const DefaultHasher = "phash"

// DefaultHashSize is the grid side length; 8x8 yields 64-bit fingerprints
const DefaultHashSize = 8

// HasherFactory builds a hasher for a grid of size x size cells
type HasherFactory func(size int) (Hasher, error)

var (
	hashers   = map[string]HasherFactory{}
	hashersMu sync.RWMutex
)

func init() {
	RegisterHasher("phash", newExtHasher("phash", goimagehash.ExtPerceptionHash))
	RegisterHasher("ahash", newExtHasher("ahash", goimagehash.ExtAverageHash))
	RegisterHasher("dhash", newExtHasher("dhash", goimagehash.ExtDifferenceHash))
}

// RegisterHasher makes a hashing algorithm available under name
func RegisterHasher(name string, factory HasherFactory) {
	hashersMu.Lock()
	defer hashersMu.Unlock()
	hashers[name] = factory
}

// NewHasher looks up a registered algorithm
func NewHasher(name string, size int) (Hasher, error) {
	hashersMu.RLock()
	factory, ok := hashers[name]
	hashersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown hash algorithm %q (available: %v)", name, HasherNames())
	}
	return factory(size)
}

// HasherNames lists the registered algorithms
func HasherNames() []string {
	hashersMu.RLock()
	defer hashersMu.RUnlock()

	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateHashSize checks that a size x size grid packs into whole 64-bit
// words and is a power of two
func ValidateHashSize(size int) error {
	cells := size * size
	if size <= 0 || cells%64 != 0 || cells&(cells-1) != 0 {
		return fmt.Errorf("invalid hash size %d: size*size must be a power of two and a multiple of 64", size)
	}
	return nil
}

type extHashFunc func(img image.Image, width, height int) (*goimagehash.ExtImageHash, error)

// extHasher adapts one of goimagehash's extended hashes
type extHasher struct {
	name string
	size int
	fn   extHashFunc
}

func newExtHasher(name string, fn extHashFunc) HasherFactory {
	return func(size int) (Hasher, error) {
		if err := ValidateHashSize(size); err != nil {
			return nil, err
		}
		return &extHasher{name: name, size: size, fn: fn}, nil
	}
}

func (h *extHasher) Name() string {
	return h.name
}

func (h *extHasher) Bits() int {
	return h.size * h.size
}

func (h *extHasher) Hash(img image.Image) (fingerprint.Fingerprint, error) {
	if img == nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("cannot compute hash for empty image")
	}
	hash, err := h.fn(img, h.size, h.size)
	if err != nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("cannot compute %s: %w", h.name, err)
	}
	return fingerprint.New(hash.GetHash(), hash.Bits())
}
