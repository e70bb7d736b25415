package imageprocessor

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"imagecluster/fingerprint"
)

// gradient draws a deterministic test picture; shift moves the pattern so
// different shifts give visually different images.
func gradient(w, h, shift int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(((x + shift) * 255 / w) ^ (y * 255 / h))
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.jpg":          true,
		"b.JPEG":         true,
		"c.png":          true,
		"d.webp":         true,
		"e.heic":         true,
		"f.HEIF":         true,
		"g.gif":          true,
		"h.bmp":          true,
		"i.tif":          true,
		"j.tiff":         true,
		"k.txt":          false,
		"l.cr2":          false,
		"noext":          false,
		"/x/y/.DS_Store": false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
	if GetFileFormat("photo.HEIF") != FormatHEIC {
		t.Error("heif should map to the heic format")
	}
	if len(GetSupportedExtensions()) != 10 {
		t.Errorf("supported extensions = %v", GetSupportedExtensions())
	}
}

type stubLoader struct {
	img   image.Image
	err   error
	panic bool
	calls int
}

func (s *stubLoader) CanLoad(string) bool { return true }

func (s *stubLoader) LoadImage(string) (image.Image, error) {
	s.calls++
	if s.panic {
		panic("corrupt stream")
	}
	return s.img, s.err
}

func TestRegistryFallbackChain(t *testing.T) {
	registry := &ImageLoaderRegistry{loaders: make(map[string][]ImageLoader)}
	failing := &stubLoader{err: errors.New("bad data")}
	panicking := &stubLoader{panic: true}
	working := &stubLoader{img: gradient(4, 4, 0)}

	registry.RegisterLoader(".JPG", failing)
	registry.RegisterLoader(".jpg", panicking)
	registry.RegisterFallback(working)

	img, err := registry.LoadImage("x.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if img == nil || failing.calls != 1 || panicking.calls != 1 || working.calls != 1 {
		t.Errorf("calls: failing=%d panicking=%d working=%d", failing.calls, panicking.calls, working.calls)
	}
}

func TestRegistryJoinsErrors(t *testing.T) {
	registry := &ImageLoaderRegistry{loaders: make(map[string][]ImageLoader)}
	first := errors.New("first")
	second := errors.New("second")
	registry.RegisterLoader(".png", &stubLoader{err: first})
	registry.RegisterFallback(&stubLoader{err: second})

	_, err := registry.LoadImage("x.png")
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("expected both loader errors, got %v", err)
	}

	if _, err := registry.LoadImage("x.unknown"); err == nil {
		t.Error("expected error for unregistered extension without fallbacks")
	}
}

func TestStandardLoaderDecodesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "g.png")
	writePNG(t, path, gradient(32, 24, 0))

	registry := NewImageLoaderRegistry()
	img, err := registry.LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("bounds = %v", b)
	}

	corrupt := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(corrupt, []byte("not a jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.LoadImage(corrupt); err == nil {
		t.Error("expected decode error for corrupt file")
	}
}

func TestHashers(t *testing.T) {
	a := gradient(64, 64, 0)
	b := gradient(64, 64, 0)
	c := gradient(64, 64, 37)

	for _, name := range []string{"phash", "ahash", "dhash", "whash"} {
		for _, size := range []int{8, 16} {
			h, err := NewHasher(name, size)
			if err != nil {
				t.Fatalf("NewHasher(%s, %d): %v", name, size, err)
			}
			if h.Name() != name || h.Bits() != size*size {
				t.Errorf("%s/%d: name %s bits %d", name, size, h.Name(), h.Bits())
			}

			fa, err := h.Hash(a)
			if err != nil {
				t.Fatal(err)
			}
			fb, _ := h.Hash(b)
			fc, _ := h.Hash(c)

			if fa.Width() != h.Bits() {
				t.Errorf("%s/%d: width %d, want %d", name, size, fa.Width(), h.Bits())
			}
			if d := fingerprint.MustDistance(fa, fb); d != 0 {
				t.Errorf("%s/%d: identical images differ by %d bits", name, size, d)
			}
			if fa.String() == "" || fc.Width() != fa.Width() {
				t.Errorf("%s/%d: unexpected fingerprint %q", name, size, fa.String())
			}
		}
	}
}

func TestNewHasherErrors(t *testing.T) {
	if _, err := NewHasher("nope", DefaultHashSize); err == nil {
		t.Error("expected error for unknown algorithm")
	}
	for _, size := range []int{0, 3, 12} {
		if _, err := NewHasher(DefaultHasher, size); err == nil {
			t.Errorf("expected error for size %d", size)
		}
	}
}

func TestWaveletHashSeparatesImages(t *testing.T) {
	h, err := NewHasher("whash", DefaultHashSize)
	if err != nil {
		t.Fatal(err)
	}

	plain := image.NewRGBA(image.Rect(0, 0, 64, 64))
	split := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			plain.Set(x, y, color.Gray{Y: uint8(x * 4)})
			if y < 32 {
				split.Set(x, y, color.White)
			} else {
				split.Set(x, y, color.Black)
			}
		}
	}

	a, err := h.Hash(plain)
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash(split)
	if err != nil {
		t.Fatal(err)
	}
	if fingerprint.MustDistance(a, b) == 0 {
		t.Error("a gradient and a split image should not hash alike")
	}
}

func TestHaarTransformConstant(t *testing.T) {
	m := make([]float64, 16)
	for i := range m {
		m[i] = 1
	}
	haarTransform(m, 4)

	// all energy ends up in the DC coefficient
	if math.Abs(m[0]-4) > 1e-9 {
		t.Errorf("dc = %v, want 4", m[0])
	}
	for i, v := range m[1:] {
		if math.Abs(v) > 1e-9 {
			t.Errorf("coef %d = %v, want 0", i+1, v)
		}
	}
}
