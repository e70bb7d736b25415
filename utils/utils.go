package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default locations, relative to the working directory
const (
	DefaultPendingDir   = "images/pending"
	DefaultReportDir    = "images/_report"
	DefaultLogFile      = "imagecluster.log"
	DefaultCacheName    = "fingerprints.db"
	DefaultThreshold    = 6
	MaxWorkerMultiplier = 4
)

// GetDefaultCachePath returns the fingerprint cache path inside reportDir
func GetDefaultCachePath(reportDir string) string {
	return filepath.Join(reportDir, DefaultCacheName)
}

// ResolveDir makes path absolute against the working directory
func ResolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", path, err)
	}
	return abs, nil
}

// ValidateThreshold checks a Hamming distance threshold. Values at or above
// the fingerprint width are allowed and put every image in one cluster.
func ValidateThreshold(threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("invalid threshold %d: must not be negative", threshold)
	}
	return nil
}

// ValidateWorkers bounds the worker count to a small multiple of the CPUs
func ValidateWorkers(workers, cpus int) error {
	if workers < 1 || workers > cpus*MaxWorkerMultiplier {
		return fmt.Errorf("worker count must be between 1 and %d, got %d", cpus*MaxWorkerMultiplier, workers)
	}
	return nil
}

// EnsureDir creates dir and its parents if they do not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}
