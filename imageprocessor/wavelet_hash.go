package imageprocessor

import (
	"fmt"
	"image"
	"math"
	"sort"

	"imagecluster/fingerprint"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/stat"
)

// waveletScale is how much larger than the hash grid the image is sampled
// before the transform
const waveletScale = 4

func init() {
	RegisterHasher("whash", newWaveletHasher)
}

// waveletHasher thresholds the coarse Haar wavelet coefficients of the
// luminance against their median
type waveletHasher struct {
	size int
}

func newWaveletHasher(size int) (Hasher, error) {
	if err := ValidateHashSize(size); err != nil {
		return nil, err
	}
	return &waveletHasher{size: size}, nil
}

func (h *waveletHasher) Name() string {
	return "whash"
}

func (h *waveletHasher) Bits() int {
	return h.size * h.size
}

func (h *waveletHasher) Hash(img image.Image) (fingerprint.Fingerprint, error) {
	if img == nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("cannot compute hash for empty image")
	}

	n := h.size * waveletScale
	scaled := resize.Resize(uint(n), uint(n), img, resize.Lanczos3)

	coefs := luminance(scaled, n)
	haarTransform(coefs, n)

	// The top-left block of a full decomposition holds the coarse levels.
	values := make([]float64, 0, h.size*h.size)
	for row := 0; row < h.size; row++ {
		values = append(values, coefs[row*n:row*n+h.size]...)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	words := make([]uint64, (len(values)+63)/64)
	for i, v := range values {
		if v > median {
			words[i/64] |= 1 << (63 - uint(i%64))
		}
	}
	return fingerprint.New(words, len(values))
}

// luminance samples the n x n image into row-major luma values
func luminance(img image.Image, n int) []float64 {
	bounds := img.Bounds()
	out := make([]float64, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out[y*n+x] = (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)) / 255
		}
	}
	return out
}

// haarTransform applies a full 2D Haar decomposition in place. n must be a
// power of two.
func haarTransform(m []float64, n int) {
	temp := make([]float64, n)

	for row := 0; row < n; row++ {
		for step := n / 2; step >= 1; step /= 2 {
			for col := 0; col < step; col++ {
				a, b := m[row*n+2*col], m[row*n+2*col+1]
				temp[col] = (a + b) / math.Sqrt2
				temp[col+step] = (a - b) / math.Sqrt2
			}
			copy(m[row*n:row*n+2*step], temp[:2*step])
		}
	}

	for col := 0; col < n; col++ {
		for step := n / 2; step >= 1; step /= 2 {
			for row := 0; row < step; row++ {
				a, b := m[(2*row)*n+col], m[(2*row+1)*n+col]
				temp[row] = (a + b) / math.Sqrt2
				temp[row+step] = (a - b) / math.Sqrt2
			}
			for row := 0; row < 2*step; row++ {
				m[row*n+col] = temp[row]
			}
		}
	}
}
