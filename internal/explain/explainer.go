// Package explain runs the causal diagnosis stage: for every admitted
// winner/loser pair, the LLM is asked why merit won, and the answer is
// kept as an optimization rule. The stage is resumable and deduplicates
// rules globally by content hash.
package explain

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ajayraho/mgeo/internal/llm"
	"github.com/ajayraho/mgeo/internal/model"
)

// maxFeatureChars bounds the product text included in a prompt.
const maxFeatureChars = 500

// Saver persists the accumulated rule list. Called after every new rule
// so an interrupted run loses at most one unit of work.
type Saver func(rules []model.Rule) error

// Stats summarizes one explainer run.
type Stats struct {
	Groups       int
	Pairs        int
	Resumed      int
	MissingItems int
	NoGap        int
	Duplicates   int
	Failures     int
	NewRules     int
}

// Explainer diagnoses causal pairs via an LLM provider.
type Explainer struct {
	provider llm.Provider
	catalog  model.CatalogIndex
	save     Saver
}

// NewExplainer creates the stage. The saver is optional; without one,
// rules are only returned at the end of the run.
func NewExplainer(provider llm.Provider, catalog model.CatalogIndex, save Saver) *Explainer {
	return &Explainer{provider: provider, catalog: catalog, save: save}
}

// Explain processes every pair in every group, skipping pairs whose
// signature already produced a rule in a previous run. It returns the
// combined rule list (existing plus new) and run statistics. Unit-level
// failures are logged and skipped; only context cancellation aborts.
func (e *Explainer) Explain(ctx context.Context, groups []model.PairGroup, existing []model.Rule) ([]model.Rule, Stats, error) {
	rules := make([]model.Rule, len(existing))
	copy(rules, existing)

	processed := make(map[string]bool, len(existing))
	seenHashes := make(map[string]bool, len(existing))
	for _, r := range existing {
		if r.SourcePair != "" {
			processed[r.SourcePair] = true
		}
		seenHashes[r.ContentHash()] = true
	}

	var stats Stats
	stats.Groups = len(groups)

	for gi, group := range groups {
		fmt.Fprintf(os.Stderr, "Processing query group %d/%d: %q\n", gi+1, len(groups), group.Query)

		for _, pair := range group.Pairs {
			stats.Pairs++

			if err := ctx.Err(); err != nil {
				return rules, stats, err
			}

			signature := pair.Signature()
			if processed[signature] {
				stats.Resumed++
				continue
			}

			winner, wok := e.catalog[pair.WinnerID]
			loser, lok := e.catalog[pair.LoserID]
			if !wok || !lok {
				stats.MissingItems++
				continue
			}

			rule, err := e.explainPair(ctx, group.Query, pair, winner, loser)
			if err != nil {
				stats.Failures++
				fmt.Fprintf(os.Stderr, "Warning: pair %s failed: %v\n", signature, err)
				continue
			}

			if !rule.FoundGap || strings.TrimSpace(rule.RuleText) == "" {
				stats.NoGap++
				continue
			}

			h := rule.ContentHash()
			if seenHashes[h] {
				stats.Duplicates++
				continue
			}

			rule.SourceQuery = group.Query
			rule.SourcePair = signature

			rules = append(rules, rule)
			seenHashes[h] = true
			processed[signature] = true
			stats.NewRules++

			if e.save != nil {
				if err := e.save(rules); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: incremental save failed: %v\n", err)
				}
			}
		}
	}

	return rules, stats, nil
}

// explainPair asks the LLM for the causal gap behind one pair.
func (e *Explainer) explainPair(ctx context.Context, query string, pair model.CausalPair, winner, loser model.CatalogItem) (model.Rule, error) {
	resp, err := e.provider.Complete(ctx, llm.CompleteRequest{
		Prompt: diagnosisPrompt(query, pair, winner, loser),
	})
	if err != nil {
		return model.Rule{}, fmt.Errorf("completion: %w", err)
	}

	var rule model.Rule
	if err := llm.ExtractJSON(resp.Text, &rule); err != nil {
		return model.Rule{}, fmt.Errorf("parse diagnosis: %w", err)
	}
	return rule, nil
}

func diagnosisPrompt(query string, pair model.CausalPair, winner, loser model.CatalogItem) string {
	return fmt.Sprintf(`### SYSTEM ROLE
You are a Causal Search Analyst.
Investigate why a "Merit Winner" (Rank %d) beat a "Loser" (Rank %d).

### GOAL
Identify a **PRODUCT ATTRIBUTE** that is:
1. Relevant to the user query.
2. Explicitly mentioned in the **WINNER'S TEXT**.
3. **MISSING** from the **LOSER'S TEXT**.

### EVIDENCE
**1. USER QUERY:** %q

**2. WINNER (Rank %d)**
- **Title:** %s
- **Text:** %s

**3. LOSER (Rank %d)**
- **Title:** %s
- **Text:** %s

### OUTPUT JSON
Return a valid JSON object.
{
    "found_gap": true,
    "relevant_attribute": "e.g. 'Floral Pattern'",
    "evidence": "Winner text mentions 'Floral', Loser text only says 'Multicolor'.",
    "rule": "IF product has 'Floral Pattern', INJECT 'Floral Pattern' into Title."
}
If no clear gap exists, set "found_gap": false.
`,
		pair.WinnerRank, pair.LoserRank,
		query,
		pair.WinnerRank, winner.Title, truncate(winner.Features, maxFeatureChars),
		pair.LoserRank, loser.Title, truncate(loser.Features, maxFeatureChars))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
