package report

import (
	"fmt"
	"io"

	"imagecluster/cluster"
)

// TopN is how many cluster sizes the console summary lists
const TopN = 10

// Summary is the console digest of one clustering run
type Summary struct {
	Processed int
	Failed    int
	Clusters  int
	TopSizes  []int
	Paths     Paths
}

// NewSummary builds the digest for a finished run
func NewSummary(processed, failed int, clusters []cluster.Cluster, paths Paths) Summary {
	return Summary{
		Processed: processed,
		Failed:    failed,
		Clusters:  len(clusters),
		TopSizes:  cluster.TopSizes(clusters, TopN),
		Paths:     paths,
	}
}

// PrintSummary writes the digest in the operator-facing format
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "--- Clustering ---")
	fmt.Fprintf(w, "Images processed: %d\n", s.Processed)
	fmt.Fprintf(w, "Read failures: %d\n", s.Failed)
	fmt.Fprintf(w, "Clusters: %d\n", s.Clusters)
	fmt.Fprintf(w, "Top cluster sizes: %v\n", s.TopSizes)
	fmt.Fprintf(w, "Detail: %s\n", s.Paths.Detail)
	fmt.Fprintf(w, "Summary: %s\n", s.Paths.Summary)
	fmt.Fprintf(w, "Cluster mapping: %s\n", s.Paths.Mapping)
}
