// Package target scores which underperforming items are most worth
// optimizing. It joins admitted causal pairs with their diagnoses,
// computes opportunity scores, and keeps the single best-evidenced
// candidate per losing item.
package target

import (
	"math"
	"sort"
	"strings"

	"github.com/ajayraho/mgeo/internal/model"
)

// Selector computes opportunity scores over grouped causal pairs.
type Selector struct {
	cfg model.TargetConfig
}

// NewSelector creates a selector with the given cutoff configuration.
func NewSelector(cfg model.TargetConfig) *Selector {
	if cfg.TopRankCutoff <= 0 {
		cfg.TopRankCutoff = 3
	}
	return &Selector{cfg: cfg}
}

// ruleKey identifies a diagnosed loser within a query.
func ruleKey(query, loserID string) string {
	return query + "|" + loserID
}

// LoserFromSignature extracts the loser item id from a pair signature of
// the form "{winner}_vs_{loser}" or "{query}|{winner}|{loser}". Returns
// "" when the signature matches neither shape.
func LoserFromSignature(sig string) string {
	if idx := strings.LastIndex(sig, "_vs_"); idx >= 0 {
		return sig[idx+len("_vs_"):]
	}
	if idx := strings.LastIndex(sig, "|"); idx >= 0 {
		return sig[idx+1:]
	}
	return ""
}

// indexRules maps query|loser_id to the diagnosis covering that loser.
// Rules without usable provenance are dropped.
func indexRules(rules []model.Rule) map[string]model.Rule {
	indexed := make(map[string]model.Rule, len(rules))
	for _, r := range rules {
		if r.SourceQuery == "" || r.SourcePair == "" {
			continue
		}
		loser := LoserFromSignature(r.SourcePair)
		if loser == "" {
			continue
		}
		indexed[ruleKey(r.SourceQuery, loser)] = r
	}
	return indexed
}

// Select computes opportunity candidates per query. A loser beaten by
// several winners keeps only its highest-scored entry (true
// max-reduction); losers already ranked at or above the cutoff are
// excluded; queries with zero surviving candidates are omitted. Ties
// on opportunity score keep first-seen pair order, so the candidates
// artifact is stable across reruns.
func (s *Selector) Select(groups []model.PairGroup, rules []model.Rule) map[string][]model.Candidate {
	diagnosed := indexRules(rules)
	out := make(map[string][]model.Candidate)

	for _, group := range groups {
		best := make(map[string]model.Candidate)
		var order []string

		for _, pair := range group.Pairs {
			rule, ok := diagnosed[ruleKey(group.Query, pair.LoserID)]
			if !ok {
				continue
			}
			if pair.LoserRank <= s.cfg.TopRankCutoff {
				continue
			}

			rankGap := pair.LoserRank - pair.WinnerRank
			score := round2(float64(rankGap) * pair.Weight)

			candidate := model.Candidate{
				ItemID:             pair.LoserID,
				CurrentRank:        pair.LoserRank,
				CurrentVis:         pair.LoserVisibility,
				TargetGapVis:       round4(pair.WinnerVisibility - pair.LoserVisibility),
				BeatenBy:           pair.WinnerID,
				OpportunityScore:   score,
				DiagnosisSummary:   rule.GapAnalysis,
				SuggestedPrinciple: rule.RuleText,
			}

			prev, seen := best[pair.LoserID]
			if !seen {
				order = append(order, pair.LoserID)
			}
			if !seen || candidate.OpportunityScore > prev.OpportunityScore {
				best[pair.LoserID] = candidate
			}
		}

		if len(best) == 0 {
			continue
		}

		candidates := make([]model.Candidate, 0, len(best))
		for _, id := range order {
			candidates = append(candidates, best[id])
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].OpportunityScore > candidates[j].OpportunityScore
		})
		out[group.Query] = candidates
	}

	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
