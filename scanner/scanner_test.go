package scanner

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"imagecluster/database"
	"imagecluster/fingerprint"
	"imagecluster/imageprocessor"
)

func writeTestPNG(t *testing.T, path string, shift int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			v := uint8(((x + shift) * 5) ^ (y * 5))
			img.Set(x, y, color.RGBA{R: v, G: 255 - v, B: v / 3, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// pendingDir lays out a pending folder with two good images, a corrupt one
// and entries that must be ignored
func pendingDir(t *testing.T) string {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "b.png"), 0)
	writeTestPNG(t, filepath.Join(dir, "a.png"), 11)
	writeFile(t, filepath.Join(dir, "broken.jpg"), "definitely not a jpeg")
	writeFile(t, filepath.Join(dir, ".DS_Store"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newOptions(t *testing.T, dir string) ScanOptions {
	t.Helper()
	hasher, err := imageprocessor.NewHasher(imageprocessor.DefaultHasher, imageprocessor.DefaultHashSize)
	if err != nil {
		t.Fatal(err)
	}
	return ScanOptions{
		FolderPath: dir,
		Registry:   imageprocessor.NewImageLoaderRegistry(),
		Hasher:     hasher,
		MaxWorkers: 3,
	}
}

func TestListImages(t *testing.T) {
	dir := pendingDir(t)

	paths, err := ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.png", "b.png", "broken.jpg"}
	if len(paths) != len(want) {
		t.Fatalf("ListImages = %v, want %v", paths, want)
	}
	for i, name := range want {
		if paths[i] != filepath.Join(dir, name) {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], name)
		}
	}
}

func TestListImagesErrors(t *testing.T) {
	if _, err := ListImages(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrSourceMissing) {
		t.Errorf("missing dir: got %v", err)
	}

	file := filepath.Join(t.TempDir(), "file.png")
	writeFile(t, file, "x")
	if _, err := ListImages(file); !errors.Is(err, ErrSourceMissing) {
		t.Errorf("file as dir: got %v", err)
	}

	empty := t.TempDir()
	writeFile(t, filepath.Join(empty, ".DS_Store"), "x")
	if _, err := ListImages(empty); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty dir: got %v", err)
	}
}

func TestScanKeepsListingOrderAndReportsFailures(t *testing.T) {
	dir := pendingDir(t)

	result, err := Scan(context.Background(), newOptions(t, dir))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Items) != 2 || result.Items[0].Name != "a.png" || result.Items[1].Name != "b.png" {
		t.Fatalf("items = %+v", result.Items)
	}
	for _, item := range result.Items {
		if item.Fingerprint.Width() != 64 {
			t.Errorf("%s: width %d", item.Name, item.Fingerprint.Width())
		}
	}

	if len(result.Failures) != 1 {
		t.Fatalf("failures = %v", result.Failures)
	}
	failure := result.Failures[0]
	if filepath.Base(failure.Path) != "broken.jpg" || failure.Stage != StageLoad {
		t.Errorf("failure = %+v", failure)
	}

	stats := result.Stats
	if stats.Listed != 3 || stats.Processed != 2 || stats.Failed != 1 || stats.Cached != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestScanAllFailed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.jpg"), "junk")
	writeFile(t, filepath.Join(dir, "y.png"), "junk")

	result, err := Scan(context.Background(), newOptions(t, dir))
	if !errors.Is(err, ErrAllFingerprintsFailed) {
		t.Fatalf("got %v", err)
	}
	if result == nil || len(result.Failures) != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestScanCancelled(t *testing.T) {
	dir := pendingDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, newOptions(t, dir)); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestRunReturnsAllResults(t *testing.T) {
	dir := pendingDir(t)
	paths, err := ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}

	results, err := Run(context.Background(), paths, newOptions(t, dir), nil)
	if err != nil {
		t.Fatalf("Run on a live context failed: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results for %d paths", len(results), len(paths))
	}
	for i, result := range results {
		if result.Path != paths[i] {
			t.Errorf("result %d is %s, want %s", i, result.Path, paths[i])
		}
	}
}

func TestScanUsesCache(t *testing.T) {
	dir := pendingDir(t)
	db, err := database.InitDatabase(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	options := newOptions(t, dir)
	options.DB = db

	first, err := Scan(context.Background(), options)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.Cached != 0 {
		t.Fatalf("first scan cached = %d", first.Stats.Cached)
	}

	second, err := Scan(context.Background(), options)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.Cached != 2 {
		t.Errorf("second scan cached = %d, want 2", second.Stats.Cached)
	}
	for i := range first.Items {
		if d := fingerprint.MustDistance(first.Items[i].Fingerprint, second.Items[i].Fingerprint); d != 0 {
			t.Errorf("%s: cached fingerprint differs by %d", first.Items[i].Name, d)
		}
	}

	// a modified file is fingerprinted again
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "a.png"), future, future); err != nil {
		t.Fatal(err)
	}
	third, err := Scan(context.Background(), options)
	if err != nil {
		t.Fatal(err)
	}
	if third.Stats.Cached != 1 {
		t.Errorf("after touch cached = %d, want 1", third.Stats.Cached)
	}
}

// shortHasher claims 64 bits but produces 128
type shortHasher struct{}

func (shortHasher) Name() string { return "short" }
func (shortHasher) Bits() int    { return 64 }
func (shortHasher) Hash(image.Image) (fingerprint.Fingerprint, error) {
	return fingerprint.New([]uint64{1, 2}, 128)
}

func TestWidthMismatchIsRejected(t *testing.T) {
	dir := pendingDir(t)
	options := newOptions(t, dir)
	options.Hasher = shortHasher{}

	result, err := Scan(context.Background(), options)
	if !errors.Is(err, ErrAllFingerprintsFailed) {
		t.Fatalf("got %v", err)
	}
	for _, failure := range result.Failures {
		if filepath.Base(failure.Path) == "broken.jpg" {
			continue
		}
		if failure.Stage != StageWidth || !errors.Is(failure, fingerprint.ErrWidthMismatch) {
			t.Errorf("failure = %v", failure)
		}
	}
}

func TestScanUsesGivenListing(t *testing.T) {
	dir := pendingDir(t)
	options := newOptions(t, dir)
	options.Paths = []string{filepath.Join(dir, "a.png")}

	scan, err := Scan(context.Background(), options)
	if err != nil {
		t.Fatal(err)
	}
	if len(scan.Items) != 1 || scan.Items[0].Name != "a.png" || len(scan.Failures) != 0 {
		t.Errorf("got %d items, %d failures", len(scan.Items), len(scan.Failures))
	}

	options.Paths = []string{}
	if _, err := Scan(context.Background(), options); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty listing: got %v", err)
	}
}
