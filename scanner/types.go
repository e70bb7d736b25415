package scanner

import (
	"database/sql"
	"errors"
	"fmt"

	"imagecluster/cluster"
	"imagecluster/imageprocessor"
	"imagecluster/types"
)

var (
	// ErrSourceMissing is returned when the pending directory does not exist
	// or is not a directory
	ErrSourceMissing = errors.New("source directory missing")

	// ErrEmptyInput is returned when the pending directory holds no images
	ErrEmptyInput = errors.New("no images found")

	// ErrAllFingerprintsFailed is returned when every listed image failed
	ErrAllFingerprintsFailed = errors.New("no fingerprints could be computed")
)

// Stage names where fingerprinting of a single image can fail
const (
	StageStat  = "stat"
	StageLoad  = "load"
	StageHash  = "hash"
	StageWidth = "width"
)

// FingerprintError records why one image was dropped
type FingerprintError struct {
	Path  string
	Stage string
	Err   error
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FingerprintError) Unwrap() error {
	return e.Err
}

// ScanOptions defines the options for scanning
type ScanOptions struct {
	FolderPath string
	Paths      []string // listing of FolderPath from ListImages; nil lists it
	Registry   *imageprocessor.ImageLoaderRegistry
	Hasher     imageprocessor.Hasher
	DB         *sql.DB // nil disables the cache
	MaxWorkers int
	Progress   bool
}

// Result holds the outcome for one image. Exactly one of Item and Err is set.
type Result struct {
	Path   string
	Item   cluster.Item
	Err    error
	Cached bool
}

// ScanResult is the collected output of a scan, in listing order
type ScanResult struct {
	Items    []cluster.Item
	Failures []*FingerprintError
	Stats    types.ScanStats
}
