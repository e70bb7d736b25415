// Package opencv adds OpenCV-backed decoding and hashing. It is kept apart
// from imageprocessor so that packages depending only on the pure Go loaders
// build without cgo.
package opencv

import (
	"fmt"
	"image"
	"sort"

	"imagecluster/fingerprint"
	"imagecluster/imageprocessor"
	"imagecluster/logging"

	"gocv.io/x/gocv"
)

// HasherName is the registry name of the DCT hash computed by OpenCV
const HasherName = "cv-dct"

const dctInput = 32

func init() {
	imageprocessor.RegisterHasher(HasherName, NewDCTHasher)
}

// Loader decodes any supported extension through cv::imread. It is
// registered as a fallback for files the Go decoders reject.
type Loader struct{}

func (Loader) CanLoad(path string) bool {
	return imageprocessor.IsImageFile(path)
}

func (Loader) LoadImage(path string) (image.Image, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("opencv could not read %s", path)
	}

	decoded, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv could not convert %s: %w", path, err)
	}
	logging.DebugLog("Loaded %s through OpenCV (%dx%d)", path, img.Cols(), img.Rows())
	return decoded, nil
}

// Register adds the OpenCV loader as a registry-wide fallback
func Register(registry *imageprocessor.ImageLoaderRegistry) {
	registry.RegisterFallback(Loader{})
}

// DCTHasher computes a perceptual hash from the low frequencies of a
// 32x32 DCT, thresholded at their median
type DCTHasher struct{}

// NewDCTHasher only supports the 8x8 grid
func NewDCTHasher(size int) (imageprocessor.Hasher, error) {
	if size != imageprocessor.DefaultHashSize {
		return nil, fmt.Errorf("%s supports only hash size %d, got %d", HasherName, imageprocessor.DefaultHashSize, size)
	}
	return DCTHasher{}, nil
}

func (DCTHasher) Name() string { return HasherName }

func (DCTHasher) Bits() int { return 64 }

func (DCTHasher) Hash(src image.Image) (fingerprint.Fingerprint, error) {
	if src == nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("cannot compute hash for empty image")
	}

	img, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("cannot convert image: %w", err)
	}
	defer img.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: dctInput, Y: dctInput}, 0, 0, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)

	floatImg := gocv.NewMat()
	defer floatImg.Close()
	gray.ConvertTo(&floatImg, gocv.MatTypeCV32F)

	dct := gocv.NewMat()
	defer dct.Close()
	gocv.DCT(floatImg, &dct, 0)
	if dct.Empty() {
		return fingerprint.Fingerprint{}, fmt.Errorf("opencv returned an empty DCT")
	}

	lowFreq := dct.Region(image.Rect(0, 0, 8, 8))
	defer lowFreq.Close()

	values := make([]float32, 0, 64)
	for y := 0; y < lowFreq.Rows(); y++ {
		for x := 0; x < lowFreq.Cols(); x++ {
			values = append(values, lowFreq.GetFloatAt(y, x))
		}
	}
	median := calculateMedian(values)

	var bits uint64
	for _, v := range values {
		bits <<= 1
		if v >= median {
			bits |= 1
		}
	}
	return fingerprint.FromUint64(bits), nil
}

func calculateMedian(values []float32) float32 {
	sorted := make([]float32, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 0:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	default:
		return sorted[n/2]
	}
}
