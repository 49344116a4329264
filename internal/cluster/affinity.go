package cluster

import (
	"fmt"
	"math"
	"sort"
)

// AffinityPropagation implements exemplar-based clustering by message
// passing (Frey & Dueck). It selects its own exemplars, so the number of
// clusters emerges from the similarity structure of the data. Damping
// avoids oscillations between iterations.
type AffinityPropagation struct {
	damping       float64
	maxIterations int
	convergeAfter int
}

// NewAffinityPropagation creates the clustering strategy. The reference
// damping is 0.9.
func NewAffinityPropagation(damping float64, maxIterations, convergeAfter int) *AffinityPropagation {
	if damping < 0.5 || damping >= 1.0 {
		damping = 0.9
	}
	if maxIterations <= 0 {
		maxIterations = 200
	}
	if convergeAfter <= 0 {
		convergeAfter = 15
	}
	return &AffinityPropagation{
		damping:       damping,
		maxIterations: maxIterations,
		convergeAfter: convergeAfter,
	}
}

// Cluster runs message passing until labels are stable or the iteration
// budget runs out. The implementation is fully deterministic.
func (ap *AffinityPropagation) Cluster(vectors [][]float64) ([]int, int, error) {
	n := len(vectors)
	switch n {
	case 0:
		return nil, 0, nil
	case 1:
		return []int{0}, 1, nil
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, 0, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	sim := similarityMatrix(vectors)

	resp := newMatrix(n)
	avail := newMatrix(n)

	var lastLabels []int
	stable := 0

	for iter := 0; iter < ap.maxIterations; iter++ {
		ap.updateResponsibilities(sim, avail, resp)
		ap.updateAvailabilities(resp, avail)

		labels := assign(sim, resp, avail)
		if equalLabels(labels, lastLabels) {
			stable++
			if stable >= ap.convergeAfter {
				break
			}
		} else {
			stable = 0
			lastLabels = labels
		}
	}

	labels := assign(sim, resp, avail)
	return compactLabels(labels)
}

// similarityMatrix computes negative squared euclidean similarities with
// the shared preference (self-similarity) set to the median similarity,
// the standard choice that lets the data pick a moderate cluster count.
func similarityMatrix(vectors [][]float64) [][]float64 {
	n := len(vectors)
	sim := newMatrix(n)

	var offDiag []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := -squaredDistance(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
			offDiag = append(offDiag, s)
		}
	}

	pref := median(offDiag)
	for i := 0; i < n; i++ {
		sim[i][i] = pref
	}
	return sim
}

func (ap *AffinityPropagation) updateResponsibilities(sim, avail, resp [][]float64) {
	n := len(sim)
	for i := 0; i < n; i++ {
		// Track the largest and second-largest a+s over candidates
		best, second := math.Inf(-1), math.Inf(-1)
		bestK := -1
		for k := 0; k < n; k++ {
			v := avail[i][k] + sim[i][k]
			if v > best {
				second = best
				best = v
				bestK = k
			} else if v > second {
				second = v
			}
		}

		for k := 0; k < n; k++ {
			competing := best
			if k == bestK {
				competing = second
			}
			target := sim[i][k] - competing
			resp[i][k] = ap.damping*resp[i][k] + (1-ap.damping)*target
		}
	}
}

func (ap *AffinityPropagation) updateAvailabilities(resp, avail [][]float64) {
	n := len(resp)
	for k := 0; k < n; k++ {
		// Sum of positive responsibilities toward candidate k
		sum := 0.0
		for i := 0; i < n; i++ {
			if i != k && resp[i][k] > 0 {
				sum += resp[i][k]
			}
		}

		for i := 0; i < n; i++ {
			var target float64
			if i == k {
				target = sum
			} else {
				v := resp[k][k] + sum
				if resp[i][k] > 0 {
					v -= resp[i][k]
				}
				target = math.Min(0, v)
			}
			avail[i][k] = ap.damping*avail[i][k] + (1-ap.damping)*target
		}
	}
}

// assign picks exemplars (positive self responsibility+availability) and
// maps every point to its most similar exemplar.
func assign(sim, resp, avail [][]float64) []int {
	n := len(sim)

	var exemplars []int
	for k := 0; k < n; k++ {
		if resp[k][k]+avail[k][k] > 0 {
			exemplars = append(exemplars, k)
		}
	}
	if len(exemplars) == 0 {
		// Degenerate run: fall back to the point with the strongest
		// self-evidence so every input still gets a label.
		best := 0
		for k := 1; k < n; k++ {
			if resp[k][k]+avail[k][k] > resp[best][best]+avail[best][best] {
				best = k
			}
		}
		exemplars = []int{best}
	}

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		bestExemplar := exemplars[0]
		for _, k := range exemplars[1:] {
			if sim[i][k] > sim[i][bestExemplar] {
				bestExemplar = k
			}
		}
		labels[i] = bestExemplar
	}
	// Exemplars always belong to their own cluster
	for _, k := range exemplars {
		labels[k] = k
	}
	return labels
}

// compactLabels renumbers exemplar indices to dense 0..n-1 cluster ids,
// ordered by first appearance.
func compactLabels(labels []int) ([]int, int, error) {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	next := 0
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = next
			mapping[l] = id
			next++
		}
		out[i] = id
	}
	return out, next, nil
}

func newMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func equalLabels(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
