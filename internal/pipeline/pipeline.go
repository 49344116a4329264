// Package pipeline wires the analysis stages together: brand statistics,
// causal pair filtering, LLM diagnosis, opportunity selection, and
// principle aggregation. Each stage persists its artifact before the
// next one starts, so any stage can be re-run in isolation.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/ajayraho/mgeo/internal/aggregate"
	"github.com/ajayraho/mgeo/internal/brand"
	"github.com/ajayraho/mgeo/internal/cache"
	"github.com/ajayraho/mgeo/internal/causal"
	"github.com/ajayraho/mgeo/internal/cluster"
	"github.com/ajayraho/mgeo/internal/embed"
	"github.com/ajayraho/mgeo/internal/explain"
	"github.com/ajayraho/mgeo/internal/llm"
	"github.com/ajayraho/mgeo/internal/model"
	"github.com/ajayraho/mgeo/internal/propensity"
	"github.com/ajayraho/mgeo/internal/store"
	"github.com/ajayraho/mgeo/internal/target"
	"github.com/ajayraho/mgeo/internal/worker"
)

// Pipeline holds the shared collaborators for all stages.
type Pipeline struct {
	cfg      *model.Config
	store    *store.Store
	provider llm.Provider   // nil when no completion provider is configured
	embedder embed.Embedder // nil when no embedding provider is configured
	limiter  *worker.Limiter
}

// NewPipeline builds the pipeline from configuration. Provider setup
// failures are warnings, not errors: the offline stages (brands, filter,
// targets) work without any external service.
func NewPipeline(cfg *model.Config) *Pipeline {
	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.BurstSize)

	// One layered cache serves both completions and embedding vectors;
	// cache hits bypass the rate limiter and retries entirely.
	var layered cache.Cache
	if cfg.Cache.Enabled {
		layered = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else if p != nil {
			provider = &pacedProvider{
				inner:   llm.NewRetrier(p, cfg.Retry),
				limiter: limiter,
			}
			if layered != nil {
				provider = llm.NewCachedProvider(provider, layered, cfg.Cache.TTL)
			}
		}
	}

	var embedder embed.Embedder
	if cfg.Embedding.Provider != "" {
		e, err := embed.NewEmbedder(embed.ConfigFromModel(cfg.Embedding))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize embedding provider: %v\n", err)
		} else {
			embedder = &pacedEmbedder{inner: e, limiter: limiter}
			if layered != nil {
				embedder = embed.NewCachedEmbedder(embedder, layered, cfg.Cache.TTL)
			}
		}
	}

	return &Pipeline{
		cfg:      cfg,
		store:    store.NewStore(cfg.Paths),
		provider: provider,
		embedder: embedder,
		limiter:  limiter,
	}
}

// pacedProvider rate-limits completion calls through the shared limiter.
type pacedProvider struct {
	inner   llm.Provider
	limiter *worker.Limiter
}

func (p *pacedProvider) Name() string { return p.inner.Name() }

func (p *pacedProvider) IsAvailable(ctx context.Context) bool { return p.inner.IsAvailable(ctx) }

func (p *pacedProvider) Complete(ctx context.Context, req llm.CompleteRequest) (*llm.CompleteResponse, error) {
	if err := p.limiter.Wait(ctx, "llm"); err != nil {
		return nil, err
	}
	return p.inner.Complete(ctx, req)
}

// pacedEmbedder rate-limits embedding calls through the shared limiter.
type pacedEmbedder struct {
	inner   embed.Embedder
	limiter *worker.Limiter
}

func (e *pacedEmbedder) Name() string { return e.inner.Name() }

func (e *pacedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := e.limiter.Wait(ctx, "embedding"); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, texts)
}

// RunBrands computes and persists the brand popularity table.
func (p *Pipeline) RunBrands(ctx context.Context) (model.BrandPopularity, error) {
	catalog, err := p.store.LoadCatalog()
	if err != nil {
		return nil, err
	}

	brands := brand.BuildPopularity(catalog)
	if err := p.store.SaveBrands(brands); err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Brand analysis: %d items, %d brands\n", len(catalog), len(brands))
	return brands, nil
}

// RunFilter derives ranks, applies the admission test per query, and
// persists the grouped causal pairs. A missing brand table is rebuilt
// from the catalog first.
func (p *Pipeline) RunFilter(ctx context.Context) ([]model.PairGroup, error) {
	catalog, err := p.store.LoadCatalog()
	if err != nil {
		return nil, err
	}
	logs, err := p.store.LoadLogs()
	if err != nil {
		return nil, err
	}

	brands, err := p.store.LoadBrands()
	if err != nil {
		brands, err = p.RunBrands(ctx)
		if err != nil {
			return nil, err
		}
	}

	filter := causal.NewFilter(
		model.NewCatalogIndex(catalog),
		brands,
		propensity.NewModel(p.cfg.Propensity),
		p.cfg.Filter,
	)

	groups, stats := worker.NewBatchFilter(filter, p.cfg.Concurrency.Workers).Process(logs)
	if err := p.store.SavePairs(groups); err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Causal filter: %d queries (%d skipped), %d pairs enumerated, %d admitted, %d missing items\n",
		stats.Queries, stats.Skipped, stats.Enumerated, stats.Admitted, stats.MissingItems)
	return groups, nil
}

// RunExplain diagnoses admitted pairs via the LLM, resuming from any
// existing rules artifact.
func (p *Pipeline) RunExplain(ctx context.Context) ([]model.Rule, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("explain requires an LLM provider; set llm.provider in config")
	}

	catalog, err := p.store.LoadCatalog()
	if err != nil {
		return nil, err
	}
	groups, err := p.store.LoadPairs()
	if err != nil {
		return nil, err
	}
	existing, err := p.store.LoadRules()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		fmt.Fprintf(os.Stderr, "Resuming explainer: %d existing rules\n", len(existing))
	}

	explainer := explain.NewExplainer(p.provider, model.NewCatalogIndex(catalog), p.store.SaveRules)
	rules, stats, err := explainer.Explain(ctx, groups, existing)
	if err != nil {
		return rules, err
	}

	if err := p.store.SaveRules(rules); err != nil {
		return rules, err
	}

	fmt.Fprintf(os.Stderr, "Explainer: %d pairs, %d resumed, %d new rules, %d no-gap, %d duplicates, %d failures\n",
		stats.Pairs, stats.Resumed, stats.NewRules, stats.NoGap, stats.Duplicates, stats.Failures)
	return rules, nil
}

// RunTargets joins pairs with diagnoses and persists the per-query
// opportunity candidates.
func (p *Pipeline) RunTargets(ctx context.Context) (map[string][]model.Candidate, error) {
	groups, err := p.store.LoadPairs()
	if err != nil {
		return nil, err
	}
	rules, err := p.store.LoadRules()
	if err != nil {
		return nil, err
	}

	candidates := target.NewSelector(p.cfg.Target).Select(groups, rules)
	if err := p.store.SaveCandidates(candidates); err != nil {
		return nil, err
	}

	total := 0
	for _, list := range candidates {
		total += len(list)
	}
	fmt.Fprintf(os.Stderr, "Target selection: %d candidates across %d queries\n", total, len(candidates))
	return candidates, nil
}

// RunAggregate clusters diagnoses and persists the synthesized
// principle set.
func (p *Pipeline) RunAggregate(ctx context.Context) (model.PrincipleSet, error) {
	if p.provider == nil {
		return model.PrincipleSet{}, fmt.Errorf("aggregate requires an LLM provider; set llm.provider in config")
	}
	if p.embedder == nil {
		return model.PrincipleSet{}, fmt.Errorf("aggregate requires an embedding provider; set embedding.provider in config")
	}

	rules, err := p.store.LoadRules()
	if err != nil {
		return model.PrincipleSet{}, err
	}

	strategy := cluster.NewAffinityPropagation(
		p.cfg.Aggregate.Damping,
		p.cfg.Aggregate.MaxIterations,
		p.cfg.Aggregate.ConvergeAfter,
	)

	agg := aggregate.NewAggregator(p.embedder, strategy, p.provider, p.cfg.Aggregate)
	set, err := agg.Aggregate(ctx, rules)
	if err != nil {
		return set, err
	}

	if err := p.store.SavePrinciples(set); err != nil {
		return set, err
	}

	fmt.Fprintf(os.Stderr, "Aggregation: %d rules reduced to %d principles\n", len(rules), len(set.MGEOPrinciples))
	return set, nil
}

// RunAll executes the full loop in order, persisting each artifact.
func (p *Pipeline) RunAll(ctx context.Context) error {
	if _, err := p.RunBrands(ctx); err != nil {
		return fmt.Errorf("brands stage: %w", err)
	}
	if _, err := p.RunFilter(ctx); err != nil {
		return fmt.Errorf("filter stage: %w", err)
	}
	if _, err := p.RunExplain(ctx); err != nil {
		return fmt.Errorf("explain stage: %w", err)
	}
	if _, err := p.RunTargets(ctx); err != nil {
		return fmt.Errorf("targets stage: %w", err)
	}
	if _, err := p.RunAggregate(ctx); err != nil {
		return fmt.Errorf("aggregate stage: %w", err)
	}
	return nil
}
