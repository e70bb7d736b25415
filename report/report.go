// Package report serializes clusters into the CSV artifacts reviewed by
// operators: a per-image detail, a per-cluster summary and an editable
// per-cluster mapping template.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"imagecluster/cluster"
)

// Artifact file names inside the report directory
const (
	DetailFileName  = "pendientes-clusters.csv"
	SummaryFileName = "pendientes-clusters-summary.csv"
	MappingFileName = "mapeo-por-cluster.csv"
)

// ReviewAction pre-fills the action column of the mapping template
const ReviewAction = "review"

var (
	detailHeader  = []string{"cluster_id", "representative_file", "file_name", "distance_to_representative", "source_path"}
	summaryHeader = []string{"cluster_id", "size", "representative_file"}
	mappingHeader = []string{"cluster_id", "representative_file", "cluster_size", "mapped_product_name", "mapped_category", "action", "notes"}
)

// Paths are the locations of the written artifacts
type Paths struct {
	Detail  string
	Summary string
	Mapping string
}

// WriteDetailCSV writes one row per cluster member. Clusters appear in
// creation order, members by case-insensitive name.
func WriteDetailCSV(w io.Writer, clusters []cluster.Cluster) error {
	return writeCSV(w, detailHeader, func(emit func([]string) error) error {
		for _, c := range cluster.DetailOrder(clusters) {
			for _, m := range c.Members {
				err := emit([]string{
					c.ID,
					c.Representative.Name,
					m.Name,
					strconv.Itoa(m.Distance),
					m.Path,
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteSummaryCSV writes one row per cluster, largest first
func WriteSummaryCSV(w io.Writer, clusters []cluster.Cluster) error {
	return writeCSV(w, summaryHeader, func(emit func([]string) error) error {
		for _, c := range cluster.BySize(clusters) {
			if err := emit([]string{c.ID, strconv.Itoa(c.Size()), c.Representative.Name}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMappingCSV writes the mapping template, largest cluster first, with
// the mapping fields left for the reviewer
func WriteMappingCSV(w io.Writer, clusters []cluster.Cluster) error {
	return writeCSV(w, mappingHeader, func(emit func([]string) error) error {
		for _, c := range cluster.BySize(clusters) {
			err := emit([]string{
				c.ID,
				c.Representative.Name,
				strconv.Itoa(c.Size()),
				"",
				"",
				ReviewAction,
				"",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteAll creates dir if needed and writes the three artifacts into it
func WriteAll(dir string, clusters []cluster.Cluster) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("cannot create report directory %s: %w", dir, err)
	}

	paths := Paths{
		Detail:  filepath.Join(dir, DetailFileName),
		Summary: filepath.Join(dir, SummaryFileName),
		Mapping: filepath.Join(dir, MappingFileName),
	}

	writers := []struct {
		path  string
		write func(io.Writer, []cluster.Cluster) error
	}{
		{paths.Detail, WriteDetailCSV},
		{paths.Summary, WriteSummaryCSV},
		{paths.Mapping, WriteMappingCSV},
	}
	for _, wr := range writers {
		if err := writeFile(wr.path, clusters, wr.write); err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func writeFile(path string, clusters []cluster.Cluster, write func(io.Writer, []cluster.Cluster) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := write(f, clusters); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", path, err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, rows func(emit func([]string) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := rows(cw.Write); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
