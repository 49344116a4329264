package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Rule is one natural-language causal diagnosis produced by the explainer
// for a single winner/loser pair. Rules are deduplicated globally by the
// content hash of their rule text.
type Rule struct {
	FoundGap          bool   `json:"found_gap"`
	RelevantAttribute string `json:"relevant_attribute,omitempty"`
	Evidence          string `json:"evidence,omitempty"`
	RuleText          string `json:"rule"`
	GapCategory       string `json:"gap_category,omitempty"`
	GapAnalysis       string `json:"gap_analysis,omitempty"`

	// Provenance: the originating query and pair signature
	// ("{winner_id}_vs_{loser_id}").
	SourceQuery string `json:"source_query"`
	SourcePair  string `json:"source_pair"`
}

// ContentHash fingerprints the rule by its normalized rule text. Two
// diagnoses with the same text are the same insight regardless of which
// pair produced them.
func (r Rule) ContentHash() string {
	normalized := strings.ToLower(strings.TrimSpace(r.RuleText))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ExplanationText returns the text used for embedding and synthesis:
// the richer gap analysis when present, otherwise the rule itself.
func (r Rule) ExplanationText() string {
	if r.GapAnalysis != "" {
		return r.GapAnalysis
	}
	return r.RuleText
}

// Principle is one generalized optimization policy reduced from a cluster
// of semantically similar rules. Created by aggregation, consumed
// read-only downstream, never mutated.
type Principle struct {
	StrategyName       string `json:"strategy_name"`
	GapType            string `json:"gap_type"`
	ObservationSummary string `json:"observation_summary"`
	ActionPolicy       string `json:"action_policy"`
	SupportCount       int    `json:"support_count"`
	ClusterID          int    `json:"cluster_id"`
}

// PrincipleSet is the serialized aggregation output.
type PrincipleSet struct {
	MGEOPrinciples []Principle `json:"mgeo_principles"`
}
