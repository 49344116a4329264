package worker

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/ajayraho/mgeo/internal/causal"
	"github.com/ajayraho/mgeo/internal/model"
)

// stubFilter admits one pair per query with at least 2 rankings and
// counts invocations.
type stubFilter struct {
	calls int32
}

func (f *stubFilter) FilterQuery(entry model.QueryLog) (model.PairGroup, causal.Stats) {
	atomic.AddInt32(&f.calls, 1)

	group := model.PairGroup{Query: entry.Query}
	var stats causal.Stats
	if len(entry.Rankings) < 2 {
		stats.Skipped = 1
		return group, stats
	}

	stats.Enumerated = 1
	stats.Admitted = 1
	group.Pairs = []model.CausalPair{{
		WinnerID: entry.Rankings[0].ItemID,
		LoserID:  entry.Rankings[1].ItemID,
	}}
	return group, stats
}

func makeLogs(n int) []model.QueryLog {
	logs := make([]model.QueryLog, n)
	for i := range logs {
		logs[i] = model.QueryLog{
			Query: fmt.Sprintf("query %d", i),
			Rankings: []model.RankedResult{
				{ItemID: fmt.Sprintf("W%d", i), VisibilityScore: 0.9},
				{ItemID: fmt.Sprintf("L%d", i), VisibilityScore: 0.1},
			},
		}
	}
	return logs
}

func TestBatchFilter_ProcessesEveryQuery(t *testing.T) {
	filter := &stubFilter{}
	logs := makeLogs(20)

	groups, stats := NewBatchFilter(filter, 4).Process(logs)

	if atomic.LoadInt32(&filter.calls) != 20 {
		t.Errorf("expected 20 filter calls, got %d", filter.calls)
	}
	if len(groups) != 20 || stats.Queries != 20 || stats.Admitted != 20 {
		t.Errorf("unexpected output: %d groups, stats %+v", len(groups), stats)
	}
}

func TestBatchFilter_OutputOrderMatchesInput(t *testing.T) {
	filter := &stubFilter{}
	logs := makeLogs(50)

	groups, _ := NewBatchFilter(filter, 8).Process(logs)

	for i, g := range groups {
		if g.Query != fmt.Sprintf("query %d", i) {
			t.Fatalf("group %d out of order: %q", i, g.Query)
		}
	}
}

func TestBatchFilter_MatchesSequentialRun(t *testing.T) {
	logs := makeLogs(30)
	// Query 7 will be skipped (single ranking), so its group is omitted
	logs[7].Rankings = logs[7].Rankings[:1]

	seqGroups, seqStats := NewBatchFilter(&stubFilter{}, 1).Process(logs)
	parGroups, parStats := NewBatchFilter(&stubFilter{}, 8).Process(logs)

	if !reflect.DeepEqual(seqGroups, parGroups) {
		t.Error("parallel output differs from sequential output")
	}
	if seqStats != parStats {
		t.Errorf("stats differ: sequential %+v vs parallel %+v", seqStats, parStats)
	}
	if len(seqGroups) != 29 || seqStats.Skipped != 1 {
		t.Errorf("expected 29 groups and 1 skip, got %d groups (stats %+v)", len(seqGroups), seqStats)
	}
}

func TestBatchFilter_EmptyInput(t *testing.T) {
	groups, stats := NewBatchFilter(&stubFilter{}, 4).Process(nil)
	if groups != nil || stats.Queries != 0 {
		t.Errorf("expected no output for empty input, got %v (stats %+v)", groups, stats)
	}
}
