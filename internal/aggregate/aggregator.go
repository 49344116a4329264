// Package aggregate reduces the full set of causal diagnoses into a
// small set of generalized optimization principles. Diagnoses are
// deduplicated, embedded, clustered into emergent themes, and each
// cluster is synthesized by the LLM through a two-level map-reduce.
package aggregate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ajayraho/mgeo/internal/cluster"
	"github.com/ajayraho/mgeo/internal/embed"
	"github.com/ajayraho/mgeo/internal/llm"
	"github.com/ajayraho/mgeo/internal/model"
)

// Aggregator clusters diagnoses and synthesizes principles.
type Aggregator struct {
	embedder embed.Embedder
	strategy cluster.Strategy
	provider llm.Provider
	cfg      model.AggregateConfig
}

// NewAggregator wires the external collaborators together. The clustering
// strategy is injected so the "cluster count is data-determined" property
// stays testable.
func NewAggregator(embedder embed.Embedder, strategy cluster.Strategy, provider llm.Provider, cfg model.AggregateConfig) *Aggregator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 15
	}
	return &Aggregator{
		embedder: embedder,
		strategy: strategy,
		provider: provider,
		cfg:      cfg,
	}
}

// Dedupe drops rules whose content hash was already seen, preserving
// first-seen order.
func Dedupe(rules []model.Rule) []model.Rule {
	seen := make(map[string]bool, len(rules))
	var out []model.Rule
	for _, r := range rules {
		h := r.ContentHash()
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, r)
	}
	return out
}

// Aggregate runs the full reduction: dedupe, embed, cluster, synthesize.
// A cluster whose synthesis fails contributes no principle; processing
// continues with the rest.
func (a *Aggregator) Aggregate(ctx context.Context, rules []model.Rule) (model.PrincipleSet, error) {
	out := model.PrincipleSet{MGEOPrinciples: []model.Principle{}}

	rules = Dedupe(rules)
	if len(rules) == 0 {
		return out, nil
	}

	texts := make([]string, len(rules))
	for i, r := range rules {
		texts[i] = r.ExplanationText()
	}

	vectors, err := a.embedder.Embed(ctx, texts)
	if err != nil {
		return out, fmt.Errorf("embed rules: %w", err)
	}

	labels, n, err := a.strategy.Cluster(vectors)
	if err != nil {
		return out, fmt.Errorf("cluster rules: %w", err)
	}

	clusters := make([][]model.Rule, n)
	for i, label := range labels {
		clusters[label] = append(clusters[label], rules[i])
	}

	for cid, members := range clusters {
		if len(members) == 0 {
			continue
		}

		principle, err := a.synthesizeCluster(ctx, cid, members)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cluster %d synthesis failed: %v\n", cid, err)
			continue
		}

		principle.SupportCount = len(members)
		principle.ClusterID = cid
		out.MGEOPrinciples = append(out.MGEOPrinciples, *principle)
	}

	return out, nil
}

// batchLesson is the intermediate map-phase output for one batch.
type batchLesson struct {
	Theme  string `json:"theme"`
	Lesson string `json:"lesson"`
}

// synthesizeCluster reduces one cluster to a principle. Clusters larger
// than the batch size go through an intermediate summarization pass so
// no batch ever outgrows a single LLM context window; truncation there
// would silently bias the principle, so this is a correctness step, not
// an optimization.
func (a *Aggregator) synthesizeCluster(ctx context.Context, cid int, members []model.Rule) (*model.Principle, error) {
	var lessons []batchLesson

	for start := 0; start < len(members); start += a.cfg.BatchSize {
		end := start + a.cfg.BatchSize
		if end > len(members) {
			end = len(members)
		}

		lesson, err := a.synthesizeBatch(ctx, members[start:end])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cluster %d batch %d failed: %v\n", cid, start/a.cfg.BatchSize+1, err)
			continue
		}
		lessons = append(lessons, *lesson)
	}

	if len(lessons) == 0 {
		return nil, fmt.Errorf("no usable batch summaries")
	}

	var findings string
	if len(lessons) == 1 {
		findings = lessons[0].Theme + ": " + lessons[0].Lesson
	} else {
		var sb strings.Builder
		for _, l := range lessons {
			fmt.Fprintf(&sb, "- %s: %s\n", l.Theme, l.Lesson)
		}
		findings = sb.String()
	}

	resp, err := a.provider.Complete(ctx, llm.CompleteRequest{
		Prompt: reducePrompt(findings),
	})
	if err != nil {
		return nil, fmt.Errorf("reduce phase: %w", err)
	}

	var principle model.Principle
	if err := llm.ExtractJSON(resp.Text, &principle); err != nil {
		return nil, fmt.Errorf("parse principle: %w", err)
	}
	return &principle, nil
}

// synthesizeBatch summarizes one batch of rules into a (theme, lesson)
// pair via a single LLM call.
func (a *Aggregator) synthesizeBatch(ctx context.Context, batch []model.Rule) (*batchLesson, error) {
	resp, err := a.provider.Complete(ctx, llm.CompleteRequest{
		Prompt: mapPrompt(batch),
	})
	if err != nil {
		return nil, err
	}

	var lesson batchLesson
	if err := llm.ExtractJSON(resp.Text, &lesson); err != nil {
		return nil, fmt.Errorf("parse batch summary: %w", err)
	}
	return &lesson, nil
}

func mapPrompt(batch []model.Rule) string {
	var digest strings.Builder
	for i, r := range batch {
		cat := r.GapCategory
		if cat == "" {
			cat = "General"
		}
		fmt.Fprintf(&digest, "- Obs %d [%s]: %s\n", i+1, cat, r.ExplanationText())
	}

	return fmt.Sprintf(`### SYSTEM ROLE
You are a Principal Data Scientist.
Analyze these specific observations of Search Engine Ranking Failures.

### INPUT OBSERVATIONS
%s
### TASK
Identify the **Common Semantic Theme** across these failures.
Write the **core optimization lesson** that solves them all in detail.

### OUTPUT JSON
{
    "theme": "e.g. Visual Texture Specificity",
    "lesson": "e.g. Products with visual textures must name them explicitly."
}
`, digest.String())
}

func reducePrompt(findings string) string {
	return fmt.Sprintf(`### TASK
Create a final **MGEO Principle** based on these findings.

### FINDINGS
%s

### OUTPUT FORMAT (JSON)
{
    "strategy_name": "High-Level Strategy Name",
    "gap_type": "Dominant Gap Type (SPECIFICITY/COMPLETENESS/ATMOSPHERE)",
    "observation_summary": "Summary of the failure pattern.",
    "action_policy": "Universal instruction for the Optimizer Agent."
}
`, findings)
}
