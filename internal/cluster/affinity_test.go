package cluster

import "testing"

func defaultStrategy() *AffinityPropagation {
	return NewAffinityPropagation(0.9, 200, 15)
}

func TestCluster_Empty(t *testing.T) {
	labels, n, err := defaultStrategy().Cluster(nil)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}
	if labels != nil || n != 0 {
		t.Errorf("expected no clusters for empty input, got %v (%d)", labels, n)
	}
}

func TestCluster_SingleVector(t *testing.T) {
	labels, n, err := defaultStrategy().Cluster([][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}
	if n != 1 || len(labels) != 1 || labels[0] != 0 {
		t.Errorf("expected single cluster 0, got %v (%d)", labels, n)
	}
}

func TestCluster_SeparatesDistinctGroups(t *testing.T) {
	// Two tight groups far apart in a 2D space.
	vectors := [][]float64{
		{0.0, 0.0},
		{0.1, 0.0},
		{0.0, 0.1},
		{10.0, 10.0},
		{10.1, 10.0},
		{10.0, 10.1},
	}

	labels, n, err := defaultStrategy().Cluster(vectors)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}

	if n != 2 {
		t.Fatalf("expected 2 emergent clusters, got %d (labels %v)", n, labels)
	}

	// Members of the same group must share a label
	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Errorf("first group split across clusters: %v", labels[:3])
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Errorf("second group split across clusters: %v", labels[3:])
	}
	if labels[0] == labels[3] {
		t.Errorf("distinct groups merged: %v", labels)
	}
}

func TestCluster_CountIsDataDetermined(t *testing.T) {
	// Three well-separated groups: the strategy is never told k.
	var vectors [][]float64
	centers := [][]float64{{0, 0}, {50, 0}, {0, 50}}
	offsets := [][]float64{{0, 0}, {0.2, 0}, {0, 0.2}, {0.2, 0.2}}
	for _, c := range centers {
		for _, o := range offsets {
			vectors = append(vectors, []float64{c[0] + o[0], c[1] + o[1]})
		}
	}

	labels, n, err := defaultStrategy().Cluster(vectors)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 emergent clusters, got %d (labels %v)", n, labels)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0.1}, {5, 5}, {5.1, 5.1}, {10, 0},
	}

	s := defaultStrategy()
	first, n1, err := s.Cluster(vectors)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}

	second, n2, err := defaultStrategy().Cluster(vectors)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}

	if n1 != n2 {
		t.Fatalf("cluster counts differ between runs: %d vs %d", n1, n2)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("label %d differs between runs: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestCluster_DimensionMismatch(t *testing.T) {
	_, _, err := defaultStrategy().Cluster([][]float64{{1, 2}, {1, 2, 3}})
	if err == nil {
		t.Error("expected error for mismatched vector dimensions")
	}
}

func TestCluster_LabelsAreDense(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0}, {20, 20}, {20.1, 20},
	}

	labels, n, err := defaultStrategy().Cluster(vectors)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}

	seen := make(map[int]bool)
	for _, l := range labels {
		if l < 0 || l >= n {
			t.Errorf("label %d outside [0,%d)", l, n)
		}
		seen[l] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct labels, saw %d", n, len(seen))
	}
}
