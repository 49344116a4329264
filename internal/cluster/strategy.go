// Package cluster groups embedded diagnosis vectors into semantic
// themes. The cluster count is data-determined, never configured: the
// taxonomy of "why merit wins" is not known in advance, so the strategy
// must discover it.
package cluster

// Strategy assigns each input vector to a cluster and reports how many
// clusters emerged. Implementations choose the cluster count themselves.
type Strategy interface {
	// Cluster returns one 0-based label per input vector, in input
	// order, plus the number of clusters found.
	Cluster(vectors [][]float64) (labels []int, n int, err error)
}
