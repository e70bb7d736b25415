// Package mapping propagates the per-cluster decisions of a reviewed mapping
// template onto a per-file manual mapping table.
package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"imagecluster/logging"
	"imagecluster/report"
)

// Column names shared by the CSV files involved
const (
	ColClusterID   = "cluster_id"
	ColFileName    = "file_name"
	ColSourceName  = "source_name"
	ColProductName = "mapped_product_name"
	ColCategory    = "mapped_category"
	ColAction      = "action"
)

// Actions recognised in the cluster mapping
const (
	ActionSkip   = "skip"
	ActionMapped = "mapped"
)

// ManualFileName is the default name of the per-file mapping table
const ManualFileName = "mapeo-manual.csv"

// ErrEmptyCSV is returned when the manual mapping has no header row
var ErrEmptyCSV = errors.New("csv has no header")

// Options locates the three tables
type Options struct {
	ClusterDetail  string
	ClusterMapping string
	ManualMapping  string
}

// DefaultOptions points at the tables inside reportDir
func DefaultOptions(reportDir string) Options {
	return Options{
		ClusterDetail:  filepath.Join(reportDir, report.DetailFileName),
		ClusterMapping: filepath.Join(reportDir, report.MappingFileName),
		ManualMapping:  filepath.Join(reportDir, ManualFileName),
	}
}

// Result counts what Apply changed
type Result struct {
	ClustersApplied int
	RowsUpdated     int
}

// table is a CSV file held as a header and rows keyed by column name
type table struct {
	header []string
	rows   []map[string]string
}

// Apply copies product name, category and action from every actionable
// cluster mapping row onto the manual rows of the cluster's files, then
// rewrites the manual mapping in place.
func Apply(opts Options) (Result, error) {
	var result Result

	for _, path := range []string{opts.ClusterDetail, opts.ClusterMapping, opts.ManualMapping} {
		if _, err := os.Stat(path); err != nil {
			return result, fmt.Errorf("missing input file %s: %w", path, err)
		}
	}

	detail, err := readTable(opts.ClusterDetail)
	if err != nil {
		return result, err
	}
	clusterMapping, err := readTable(opts.ClusterMapping)
	if err != nil {
		return result, err
	}
	manual, err := readTable(opts.ManualMapping)
	if err != nil {
		return result, err
	}
	if len(manual.header) == 0 {
		return result, fmt.Errorf("%w: %s", ErrEmptyCSV, opts.ManualMapping)
	}

	clusterFiles := make(map[string][]string)
	for _, row := range detail.rows {
		id := strings.TrimSpace(row[ColClusterID])
		name := strings.TrimSpace(row[ColFileName])
		if id == "" || name == "" {
			continue
		}
		clusterFiles[id] = append(clusterFiles[id], name)
	}

	// later duplicates of a source name win
	manualBySource := make(map[string]map[string]string)
	for _, row := range manual.rows {
		if source := strings.TrimSpace(row[ColSourceName]); source != "" {
			manualBySource[source] = row
		}
	}

	for _, row := range clusterMapping.rows {
		id := strings.TrimSpace(row[ColClusterID])
		name := strings.TrimSpace(row[ColProductName])
		category := strings.TrimSpace(row[ColCategory])
		action := strings.ToLower(strings.TrimSpace(row[ColAction]))

		if id == "" || action == ActionSkip || name == "" || category == "" {
			continue
		}
		if action == "" {
			action = ActionMapped
		}

		changed := 0
		for _, file := range clusterFiles[id] {
			target, ok := manualBySource[file]
			if !ok {
				continue
			}
			target[ColProductName] = name
			target[ColCategory] = category
			target[ColAction] = action
			changed++
		}
		if changed > 0 {
			logging.DebugLog("Cluster %s mapped to %q (%s) on %d files", id, name, category, changed)
			result.ClustersApplied++
			result.RowsUpdated += changed
		}
	}

	manual.ensureColumns(ColProductName, ColCategory, ColAction)
	if err := writeTable(opts.ManualMapping, manual); err != nil {
		return result, err
	}
	return result, nil
}

// PrintResult reports an Apply run in the operator-facing format
func PrintResult(w io.Writer, opts Options, result Result) {
	fmt.Fprintln(w, "--- Apply cluster mapping ---")
	fmt.Fprintf(w, "Cluster detail: %s\n", opts.ClusterDetail)
	fmt.Fprintf(w, "Cluster mapping: %s\n", opts.ClusterMapping)
	fmt.Fprintf(w, "Manual mapping updated: %s\n", opts.ManualMapping)
	fmt.Fprintf(w, "Clusters applied: %d\n", result.ClustersApplied)
	fmt.Fprintf(w, "Rows updated: %d\n", result.RowsUpdated)
}

func (t *table) ensureColumns(columns ...string) {
	for _, col := range columns {
		found := false
		for _, h := range t.header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			t.header = append(t.header, col)
		}
	}
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	t := &table{}
	if len(records) == 0 {
		return t, nil
	}

	t.header = make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		t.header[i] = h
	}

	for _, record := range records[1:] {
		row := make(map[string]string, len(t.header))
		for i, h := range t.header {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func writeTable(path string, t *table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}

	writer := csv.NewWriter(f)
	writer.Write(t.header)
	for _, row := range t.rows {
		record := make([]string, len(t.header))
		for i, h := range t.header {
			record[i] = row[h]
		}
		writer.Write(record)
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return f.Close()
}
