package cluster

import (
	"sort"
	"strings"
)

// DetailOrder returns the clusters in creation order with the members of each
// cluster sorted by case-insensitive name. The input is left untouched.
func DetailOrder(clusters []Cluster) []Cluster {
	out := make([]Cluster, len(clusters))
	for i, c := range clusters {
		members := make([]Member, len(c.Members))
		copy(members, c.Members)
		sort.SliceStable(members, func(a, b int) bool {
			return strings.ToLower(members[a].Name) < strings.ToLower(members[b].Name)
		})
		c.Members = members
		out[i] = c
	}
	return out
}

// BySize returns the clusters sorted by descending size. Clusters of equal
// size keep their creation order.
func BySize(clusters []Cluster) []Cluster {
	out := make([]Cluster, len(clusters))
	copy(out, clusters)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Size() > out[b].Size()
	})
	return out
}

// TopSizes returns the sizes of the n largest clusters, largest first.
func TopSizes(clusters []Cluster, n int) []int {
	sorted := BySize(clusters)
	if n > len(sorted) {
		n = len(sorted)
	}
	if n < 0 {
		n = 0
	}
	sizes := make([]int, n)
	for i := 0; i < n; i++ {
		sizes[i] = sorted[i].Size()
	}
	return sizes
}
