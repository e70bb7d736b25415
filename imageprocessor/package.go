// Package imageprocessor turns image files into fingerprints: a registry of
// format loaders decodes the file and a Hasher reduces the pixels to a
// fixed-width bit vector.
package imageprocessor

import (
	"image"

	"imagecluster/fingerprint"
)

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file
	LoadImage(path string) (image.Image, error)
}

// Hasher computes perceptual fingerprints of a fixed width
type Hasher interface {
	// Name identifies the algorithm, e.g. in the fingerprint cache
	Name() string

	// Bits is the width of every fingerprint this hasher produces
	Bits() int

	Hash(img image.Image) (fingerprint.Fingerprint, error)
}
