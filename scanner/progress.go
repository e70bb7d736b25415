package scanner

import (
	"fmt"
	"sync"
	"time"

	"imagecluster/logging"
	"imagecluster/types"

	"github.com/schollz/progressbar/v3"
)

// ProgressTracker counts per-image outcomes and drives the progress bar
type ProgressTracker struct {
	bar       *progressbar.ProgressBar
	mu        sync.Mutex
	stats     types.ScanStats
	startTime time.Time
}

// NewProgressTracker creates a tracker for total images. With visible false
// the bar renders nothing.
func NewProgressTracker(total int, visible bool) *ProgressTracker {
	var bar *progressbar.ProgressBar
	if visible {
		bar = progressbar.Default(int64(total), "Fingerprinting")
	} else {
		bar = progressbar.DefaultSilent(int64(total), "Fingerprinting")
	}
	return &ProgressTracker{
		bar:       bar,
		stats:     types.ScanStats{Listed: total},
		startTime: time.Now(),
	}
}

// Record accounts for one finished image
func (p *ProgressTracker) Record(result Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if result.Err != nil {
		p.stats.Failed++
		logging.LogImageProcessed(result.Path, false, result.Err.Error())
	} else {
		p.stats.Processed++
		if result.Cached {
			p.stats.Cached++
		}
		logging.LogImageProcessed(result.Path, true, "")
	}
	_ = p.bar.Add(1)
}

// Stop finishes the bar and returns the final counts
func (p *ProgressTracker) Stop() types.ScanStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.bar.Finish()
	logging.DebugLog("Fingerprinting completed in %v. Processed: %d, Cached: %d, Errors: %d",
		time.Since(p.startTime).Round(time.Millisecond), p.stats.Processed, p.stats.Cached, p.stats.Failed)
	return p.stats
}

// PrintStartupInfo displays information about the scan before starting
func PrintStartupInfo(total int, options ScanOptions) {
	cache := "disabled"
	if options.DB != nil {
		cache = "enabled"
	}
	fmt.Printf("Fingerprinting %d images with %s (%d bits), cache %s\n",
		total, options.Hasher.Name(), options.Hasher.Bits(), cache)
}
