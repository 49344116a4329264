package worker

import (
	"context"
	"sort"

	"github.com/ajayraho/mgeo/internal/causal"
	"github.com/ajayraho/mgeo/internal/model"
)

// QueryFilter is the per-query operation the batch runs. Satisfied by
// causal.Filter.
type QueryFilter interface {
	FilterQuery(entry model.QueryLog) (model.PairGroup, causal.Stats)
}

// FilterJob filters one query log entry. Index preserves the input
// position so parallel output can be reordered deterministically.
type FilterJob struct {
	Index  int
	Entry  model.QueryLog
	Filter QueryFilter
}

// FilterResult is the outcome of one filter job.
type FilterResult struct {
	Index int
	Group model.PairGroup
	Stats causal.Stats
}

// GetError always returns nil: the filter is pure computation over
// in-memory lookups and has no failure mode per query.
func (r *FilterResult) GetError() error {
	return nil
}

// Execute runs the filter for one query.
func (j *FilterJob) Execute(ctx context.Context) Result {
	group, stats := j.Filter.FilterQuery(j.Entry)
	return &FilterResult{Index: j.Index, Group: group, Stats: stats}
}

// BatchFilter fans query logs out over a worker pool. The shared catalog
// and brand lookups are read-only, so queries are independent.
type BatchFilter struct {
	filter  QueryFilter
	workers int
}

// NewBatchFilter creates a batch processor with the given parallelism.
func NewBatchFilter(filter QueryFilter, workers int) *BatchFilter {
	return &BatchFilter{filter: filter, workers: workers}
}

// Process filters all logs and returns groups in input order, with empty
// groups omitted. Output is identical to a sequential causal.FilterLogs
// run regardless of worker count.
func (b *BatchFilter) Process(logs []model.QueryLog) ([]model.PairGroup, causal.Stats) {
	var stats causal.Stats
	if len(logs) == 0 {
		return nil, stats
	}

	pool := NewPool(b.workers)
	pool.Start()

	for i, entry := range logs {
		pool.Submit(&FilterJob{Index: i, Entry: entry, Filter: b.filter})
	}

	results := pool.Wait()

	filtered := make([]*FilterResult, 0, len(results))
	for _, r := range results {
		filtered = append(filtered, r.(*FilterResult))
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Index < filtered[j].Index
	})

	var groups []model.PairGroup
	for _, r := range filtered {
		stats.Queries++
		stats.Skipped += r.Stats.Skipped
		stats.Enumerated += r.Stats.Enumerated
		stats.Admitted += r.Stats.Admitted
		stats.MissingItems += r.Stats.MissingItems
		if len(r.Group.Pairs) > 0 {
			groups = append(groups, r.Group)
		}
	}
	return groups, stats
}
