package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"imagecluster/cluster"
	"imagecluster/fingerprint"
	"imagecluster/logging"

	"golang.org/x/sync/errgroup"
)

// Scan lists the images of options.FolderPath, unless options.Paths already
// holds that listing, and fingerprints them. Images that fail are reported in
// Failures and left out of Items.
func Scan(ctx context.Context, options ScanOptions) (*ScanResult, error) {
	if options.Registry == nil || options.Hasher == nil {
		return nil, fmt.Errorf("scan needs a loader registry and a hasher")
	}

	logging.DebugLog("Starting image scan on folder: %s", options.FolderPath)
	paths := options.Paths
	if paths == nil {
		var err error
		if paths, err = ListImages(options.FolderPath); err != nil {
			return nil, err
		}
	} else if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyInput, options.FolderPath)
	}

	if options.Progress {
		PrintStartupInfo(len(paths), options)
	}

	tracker := NewProgressTracker(len(paths), options.Progress)
	results, err := Run(ctx, paths, options, tracker)
	stats := tracker.Stop()
	if err != nil {
		return nil, err
	}

	scan := &ScanResult{Stats: stats}
	for _, result := range results {
		if result.Err != nil {
			var fpErr *FingerprintError
			if !errors.As(result.Err, &fpErr) {
				fpErr = &FingerprintError{Path: result.Path, Stage: StageLoad, Err: result.Err}
			}
			scan.Failures = append(scan.Failures, fpErr)
			continue
		}
		scan.Items = append(scan.Items, result.Item)
	}

	if len(scan.Items) == 0 {
		return scan, fmt.Errorf("%w: %d of %d images failed", ErrAllFingerprintsFailed, len(scan.Failures), len(paths))
	}
	return scan, nil
}

// Run fingerprints paths on a bounded pool of workers. The returned slice is
// indexed like paths. Per-image failures are carried in Result.Err; the
// error return is only set when ctx is cancelled.
func Run(ctx context.Context, paths []string, options ScanOptions, tracker *ProgressTracker) ([]Result, error) {
	workers := options.MaxWorkers
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(paths))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processImage(path, options)
			if tracker != nil {
				tracker.Record(results[i])
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processImage computes the fingerprint of a single image, consulting the
// cache first
func processImage(path string, options ScanOptions) Result {
	result := Result{Path: path}
	hasher := options.Hasher

	fileInfo, err := os.Stat(path)
	if err != nil {
		result.Err = &FingerprintError{Path: path, Stage: StageStat, Err: err}
		return result
	}

	if fp, ok := lookupCached(options.DB, path, hasher, fileInfo); ok {
		result.Item = newItem(path, fp)
		result.Cached = true
		return result
	}

	img, err := options.Registry.LoadImage(path)
	if err != nil {
		result.Err = &FingerprintError{Path: path, Stage: StageLoad, Err: err}
		return result
	}

	fp, err := hasher.Hash(img)
	if err != nil {
		result.Err = &FingerprintError{Path: path, Stage: StageHash, Err: err}
		return result
	}
	if fp.Width() != hasher.Bits() {
		result.Err = &FingerprintError{
			Path:  path,
			Stage: StageWidth,
			Err:   fmt.Errorf("%w: got %d bits, want %d", fingerprint.ErrWidthMismatch, fp.Width(), hasher.Bits()),
		}
		return result
	}

	bounds := img.Bounds()
	storeCached(options.DB, path, hasher, fileInfo, bounds.Dx(), bounds.Dy(), fp)

	result.Item = newItem(path, fp)
	return result
}

func newItem(path string, fp fingerprint.Fingerprint) cluster.Item {
	return cluster.Item{
		Path:        path,
		Name:        filepath.Base(path),
		Fingerprint: fp,
	}
}
