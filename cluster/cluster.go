// Package cluster partitions fingerprinted images into similarity clusters.
//
// The partition is a greedy, order-sensitive approximation: each cluster is
// anchored on a representative and membership is measured against that
// representative only, so two members of one cluster may be further apart
// than the threshold. Results are fully determined by the input order and
// the threshold.
package cluster

import (
	"errors"
	"fmt"

	"imagecluster/fingerprint"
)

var (
	// ErrNegativeThreshold is returned for a threshold below zero.
	ErrNegativeThreshold = errors.New("threshold must not be negative")

	// ErrMixedWidths is returned when the input mixes fingerprint widths.
	ErrMixedWidths = errors.New("fingerprints of different widths in one batch")
)

// Item is a successfully fingerprinted image.
type Item struct {
	Path        string
	Name        string
	Fingerprint fingerprint.Fingerprint
}

// Member is an item assigned to a cluster together with its distance to the
// cluster representative.
type Member struct {
	Item
	Distance int
}

// Cluster is a finalized group of items anchored on a representative.
type Cluster struct {
	ID             string
	Representative Item
	// Members holds the representative first, then the remaining members in
	// input order.
	Members []Member
}

// Size returns the number of members, representative included.
func (c Cluster) Size() int {
	return len(c.Members)
}

// FormatID renders the identifier of the n-th cluster (1-based).
func FormatID(n int) string {
	return fmt.Sprintf("C%03d", n)
}

// Greedy partitions items into clusters. The first unassigned item opens a
// new cluster and every later unassigned item within threshold of it joins;
// the rest carry over, in order, to the next round.
func Greedy(items []Item, threshold int) ([]Cluster, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeThreshold, threshold)
	}
	if err := checkWidths(items); err != nil {
		return nil, err
	}

	clusters := make([]Cluster, 0)
	unassigned := make([]Item, len(items))
	copy(unassigned, items)

	for len(unassigned) > 0 {
		rep := unassigned[0]
		members := []Member{{Item: rep}}
		rest := make([]Item, 0, len(unassigned)-1)

		for _, item := range unassigned[1:] {
			d := fingerprint.MustDistance(rep.Fingerprint, item.Fingerprint)
			if d <= threshold {
				members = append(members, Member{Item: item, Distance: d})
			} else {
				rest = append(rest, item)
			}
		}

		unassigned = rest
		clusters = append(clusters, Cluster{
			ID:             FormatID(len(clusters) + 1),
			Representative: rep,
			Members:        members,
		})
	}

	return clusters, nil
}

func checkWidths(items []Item) error {
	if len(items) == 0 {
		return nil
	}
	first := items[0]
	for _, item := range items[1:] {
		if !fingerprint.SameWidth(first.Fingerprint, item.Fingerprint) {
			return fmt.Errorf("%w: %s has %d bits, %s has %d bits", ErrMixedWidths,
				first.Path, first.Fingerprint.Width(), item.Path, item.Fingerprint.Width())
		}
	}
	return nil
}
