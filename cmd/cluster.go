package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"imagecluster/cluster"
	"imagecluster/database"
	"imagecluster/imageprocessor"
	"imagecluster/logging"
	"imagecluster/report"
	"imagecluster/scanner"
	"imagecluster/signalhandler"
	"imagecluster/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type clusterOptions struct {
	pendingDir string
	reportDir  string
	threshold  int
	hash       string
	hashSize   int
	workers    int
	cachePath  string
	noCache    bool
	noProgress bool
	debug      bool
	logFile    string

	hasher imageprocessor.Hasher
}

var clusterOpts clusterOptions

var clusterCmd = &cobra.Command{
	Use:   "cluster [flags]",
	Short: "Cluster pending images by perceptual similarity",
	Long: `Fingerprint every image directly inside the pending directory and group
images whose fingerprints are within the Hamming distance threshold of a
cluster representative.

Three CSV files are written to the report directory:
  pendientes-clusters.csv          one row per image with its cluster
  pendientes-clusters-summary.csv  one row per cluster, largest first
  mapeo-por-cluster.csv            template to assign a product per cluster

Fingerprints are cached in a SQLite database so unchanged images are not
decoded again on the next run.`,
	Example: `  # Cluster images/pending with the defaults
  imagecluster cluster

  # Stricter grouping on another folder
  imagecluster cluster --pending-dir ./inbox --threshold 4

  # 256-bit difference hashes without the cache
  imagecluster cluster --hash dhash --hash-size 16 --no-cache`,
	PreRunE: validateClusterFlags,
	RunE:    runCluster,
}

func init() {
	bindClusterFlags(clusterCmd.Flags(), &clusterOpts)
}

func bindClusterFlags(flags *pflag.FlagSet, opts *clusterOptions) {
	flags.StringVarP(&opts.pendingDir, "pending-dir", "i", utils.DefaultPendingDir, "Directory holding the images to cluster")
	flags.StringVarP(&opts.reportDir, "report-dir", "o", utils.DefaultReportDir, "Directory the CSV reports are written to")
	flags.IntVarP(&opts.threshold, "threshold", "t", utils.DefaultThreshold, "Maximum Hamming distance to a cluster representative")
	flags.StringVar(&opts.hash, "hash", imageprocessor.DefaultHasher, "Hash algorithm (phash, ahash, dhash, whash, cv-dct)")
	flags.IntVar(&opts.hashSize, "hash-size", imageprocessor.DefaultHashSize, "Hash grid size; the fingerprint has size*size bits")
	flags.IntVarP(&opts.workers, "workers", "w", signalhandler.GetOptimalProcs(), "Number of parallel fingerprinting workers")
	flags.StringVar(&opts.cachePath, "cache", "", "Fingerprint cache database (default <report-dir>/fingerprints.db)")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Disable the fingerprint cache")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Hide the progress bar")
	flags.BoolVar(&opts.debug, "debug", false, "Write detailed logs to the log file")
	flags.StringVar(&opts.logFile, "logfile", utils.DefaultLogFile, "Log file used with --debug")
}

func validateClusterFlags(cmd *cobra.Command, args []string) error {
	return clusterOpts.validate()
}

func runCluster(cmd *cobra.Command, args []string) error {
	return clusterOpts.run(cmd.Context(), os.Stdout)
}

// validate builds the hasher and checks the flag values
func (opts *clusterOptions) validate() error {
	hasher, err := imageprocessor.NewHasher(opts.hash, opts.hashSize)
	if err != nil {
		return err
	}
	opts.hasher = hasher

	if err := utils.ValidateThreshold(opts.threshold); err != nil {
		return err
	}
	if err := utils.ValidateWorkers(opts.workers, runtime.NumCPU()); err != nil {
		return err
	}

	if opts.pendingDir, err = utils.ResolveDir(opts.pendingDir); err != nil {
		return err
	}
	if opts.reportDir, err = utils.ResolveDir(opts.reportDir); err != nil {
		return err
	}
	if opts.cachePath == "" {
		opts.cachePath = utils.GetDefaultCachePath(opts.reportDir)
	}
	return nil
}

func (opts clusterOptions) run(parent context.Context, out io.Writer) error {
	startTime := time.Now()
	if parent == nil {
		parent = context.Background()
	}

	// Nothing is created on disk until the pending folder is known to hold images
	paths, err := scanner.ListImages(opts.pendingDir)
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(opts.reportDir); err != nil {
		return err
	}

	if opts.debug {
		if err := logging.SetupLogger(opts.logFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v\n", err)
		} else {
			defer logging.CloseLogger()
			fmt.Fprintf(out, "Debug mode enabled. Logging to: %s\n", opts.logFile)
		}
	}

	ctx, cancel := signalhandler.SetupHandler(parent)
	defer cancel()

	db := openCache(opts)
	if db != nil {
		defer db.Close()
	}

	registry := imageprocessor.NewImageLoaderRegistry()
	registerNativeLoaders(registry)

	scan, err := scanner.Scan(ctx, scanner.ScanOptions{
		FolderPath: opts.pendingDir,
		Paths:      paths,
		Registry:   registry,
		Hasher:     opts.hasher,
		DB:         db,
		MaxWorkers: opts.workers,
		Progress:   !opts.noProgress,
	})
	if err != nil {
		return err
	}
	for _, failure := range scan.Failures {
		logging.LogWarning("Skipping %s: %v", failure.Path, failure)
	}

	clusters, err := cluster.Greedy(scan.Items, opts.threshold)
	if err != nil {
		return fmt.Errorf("clustering failed: %w", err)
	}

	reportPaths, err := report.WriteAll(opts.reportDir, clusters)
	if err != nil {
		return err
	}

	logging.LogInfo("Clustered %d images into %d clusters at threshold %d", len(scan.Items), len(clusters), opts.threshold)
	report.PrintSummary(out, report.NewSummary(len(scan.Items), len(scan.Failures), clusters, reportPaths))

	if db != nil && logging.Enabled() {
		if stats, err := database.GetCacheStats(db, opts.hasher.Name()); err == nil {
			logging.DebugLog("Cache %s: %d entries, %d unique fingerprints, %d hits this run",
				opts.cachePath, stats.TotalEntries, stats.UniqueFingerprints, scan.Stats.Cached)
		}
	}
	logging.DebugLog("Total execution time: %v", time.Since(startTime))
	return nil
}

// openCache returns the fingerprint cache, or nil when it is disabled or
// cannot be opened
func openCache(opts clusterOptions) *sql.DB {
	if opts.noCache {
		return nil
	}

	var db *sql.DB
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = database.InitDatabase(opts.cachePath)
		if err == nil {
			return db
		}
		logging.DebugLog("Error opening cache (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}

	fmt.Fprintf(os.Stderr, "Warning: fingerprint cache disabled: %v\n", err)
	return nil
}
