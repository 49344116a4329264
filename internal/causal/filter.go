// Package causal derives ranks from visibility scores, enumerates
// winner/loser pairs per query, and admits only pairs where the winner is
// a low-bias-propensity merit winner with a real visibility margin over
// the loser. Admitted pairs carry inverse-propensity weights.
package causal

import (
	"sort"

	"github.com/ajayraho/mgeo/internal/brand"
	"github.com/ajayraho/mgeo/internal/model"
	"github.com/ajayraho/mgeo/internal/propensity"
	"github.com/ajayraho/mgeo/internal/visibility"
)

// Filter applies the inverse-propensity admission test to ranked engine
// responses. The catalog index and brand popularity map are read-only.
type Filter struct {
	catalog model.CatalogIndex
	brands  model.BrandPopularity
	model   *propensity.Model
	cfg     model.FilterConfig
}

// Stats counts admission outcomes across one filter run.
type Stats struct {
	Queries      int // queries seen
	Skipped      int // queries with fewer than 2 ranked results
	Enumerated   int // candidate pairs considered
	Admitted     int // pairs passing all three criteria
	MissingItems int // ranked items absent from the catalog
}

// NewFilter creates a causal pair filter over the given lookups.
func NewFilter(catalog model.CatalogIndex, brands model.BrandPopularity, m *propensity.Model, cfg model.FilterConfig) *Filter {
	return &Filter{
		catalog: catalog,
		brands:  brands,
		model:   m,
		cfg:     cfg,
	}
}

// DeriveRanks sorts descending by visibility score (stable, ties keep
// input order) and assigns rank = position + 1. The derived rank is
// authoritative; any rank supplied upstream is overwritten.
func DeriveRanks(rankings []model.RankedResult) []model.RankedResult {
	derived := make([]model.RankedResult, len(rankings))
	copy(derived, rankings)

	sort.SliceStable(derived, func(i, j int) bool {
		return derived[i].VisibilityScore > derived[j].VisibilityScore
	})
	for i := range derived {
		derived[i].Rank = i + 1
	}
	return derived
}

// FilterLogs processes every query log and returns the grouped admitted
// pairs. Queries with zero admitted pairs are omitted.
func (f *Filter) FilterLogs(logs []model.QueryLog) ([]model.PairGroup, Stats) {
	var groups []model.PairGroup
	var stats Stats

	for _, entry := range logs {
		group, qstats := f.FilterQuery(entry)
		stats.Queries++
		stats.Skipped += qstats.Skipped
		stats.Enumerated += qstats.Enumerated
		stats.Admitted += qstats.Admitted
		stats.MissingItems += qstats.MissingItems
		if len(group.Pairs) > 0 {
			groups = append(groups, group)
		}
	}
	return groups, stats
}

// FilterQuery runs rank derivation, propensity computation, pair
// enumeration, and the admission test for a single query. A query with
// fewer than 2 ranked results is skipped outright.
func (f *Filter) FilterQuery(entry model.QueryLog) (model.PairGroup, Stats) {
	var stats Stats
	group := model.PairGroup{Query: entry.Query}

	if len(entry.Rankings) < 2 {
		stats.Skipped = 1
		return group, stats
	}

	rankings := entry.Rankings
	if entry.GeneratedText != "" {
		// Raw response logs carry the generated text; score each item's
		// citation visibility from it before deriving ranks.
		rankings = make([]model.RankedResult, len(entry.Rankings))
		copy(rankings, entry.Rankings)
		for i := range rankings {
			rankings[i].VisibilityScore = visibility.Score(entry.GeneratedText, rankings[i].ItemID)
		}
	}

	ranked := DeriveRanks(rankings)

	// Items missing from the catalog are excluded, not defaulted; a zero
	// propensity would read as a false merit win.
	scores := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		item, ok := f.catalog[r.ItemID]
		if !ok {
			stats.MissingItems++
			continue
		}
		textLen := len(item.Features)
		brandScore := brand.Score(f.brands, item)
		rating := item.ResolveRating()
		scores[r.ItemID] = f.model.Score(textLen, brandScore, rating)
	}

	// All O(n²) ordered combinations within the derived order, not just
	// adjacent ranks.
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			winner, loser := ranked[i], ranked[j]
			stats.Enumerated++

			wp, ok := scores[winner.ItemID]
			if !ok {
				continue
			}
			if _, ok := scores[loser.ItemID]; !ok {
				continue
			}

			if !f.admit(winner, loser, wp) {
				continue
			}

			group.Pairs = append(group.Pairs, model.CausalPair{
				WinnerID:         winner.ItemID,
				LoserID:          loser.ItemID,
				WinnerRank:       winner.Rank,
				LoserRank:        loser.Rank,
				WinnerVisibility: winner.VisibilityScore,
				LoserVisibility:  loser.VisibilityScore,
				WinnerPropensity: wp,
				Weight:           1.0 / wp,
			})
			stats.Admitted++
		}
	}

	return group, stats
}

// admit applies the three admission criteria: an invisible winner cannot
// causally explain anything, a noise-level margin is not a signal, and a
// high-propensity win is presumed bias-driven.
func (f *Filter) admit(winner, loser model.RankedResult, winnerPropensity float64) bool {
	if winner.VisibilityScore <= f.cfg.VisibilityFloor {
		return false
	}
	if winner.VisibilityScore-loser.VisibilityScore <= f.cfg.MinVisibilityGap {
		return false
	}
	if winnerPropensity >= f.cfg.PropensityThreshold {
		return false
	}
	return true
}
