package model

import "fmt"

// RankedResult is one item's outcome in a single simulated engine response.
// Rank is always derived from VisibilityScore by the filter; any rank value
// supplied upstream is overwritten.
type RankedResult struct {
	ItemID          string  `json:"item_id"`
	Rank            int     `json:"rank,omitempty"`
	VisibilityScore float64 `json:"visibility_score"`
}

// QueryLog is the recorded engine response for one query. When
// GeneratedText is present, visibility scores are recomputed from it;
// otherwise the recorded scores are taken as-is.
type QueryLog struct {
	Query         string         `json:"query"`
	GeneratedText string         `json:"generated_text,omitempty"`
	Rankings      []RankedResult `json:"rankings"`
}

// CausalPair records a merit winner outranking a loser within one query.
// Weight is the inverse propensity of the winner. Pairs are immutable once
// emitted.
type CausalPair struct {
	WinnerID         string  `json:"winner_id"`
	LoserID          string  `json:"loser_id"`
	WinnerRank       int     `json:"winner_rank"`
	LoserRank        int     `json:"loser_rank"`
	WinnerVisibility float64 `json:"winner_vis"`
	LoserVisibility  float64 `json:"loser_vis"`
	WinnerPropensity float64 `json:"winner_propensity"`
	Weight           float64 `json:"weight"`
}

// Signature returns the stable pair identifier used to tie diagnoses back
// to their originating pair and to skip already-processed work on resume.
func (p CausalPair) Signature() string {
	return fmt.Sprintf("%s_vs_%s", p.WinnerID, p.LoserID)
}

// PairGroup collects the admitted pairs for one query. Queries with zero
// admitted pairs are never emitted.
type PairGroup struct {
	Query string       `json:"query"`
	Pairs []CausalPair `json:"pairs"`
}

// Candidate is one loser item selected for optimization, carrying its
// best-evidenced pair and the attached diagnosis. At most one Candidate
// exists per (query, item_id).
type Candidate struct {
	ItemID             string  `json:"item_id"`
	CurrentRank        int     `json:"current_rank"`
	CurrentVis         float64 `json:"current_vis"`
	TargetGapVis       float64 `json:"target_gap_vis"`
	BeatenBy           string  `json:"beaten_by"`
	OpportunityScore   float64 `json:"opportunity_score"`
	DiagnosisSummary   string  `json:"diagnosis_summary"`
	SuggestedPrinciple string  `json:"suggested_principle"`
}
