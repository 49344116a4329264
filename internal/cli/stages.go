package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ajayraho/mgeo/internal/model"
	"github.com/ajayraho/mgeo/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dataDir     string
	llmProvider string
	llmModel    string
	workers     int
	timeout     time.Duration
)

// brandsCmd represents the brands command
var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Build the brand popularity table from the catalog",
	Long: `Brands normalizes every catalog item's brand string and computes a
log-scaled popularity score per brand. The table feeds the propensity
model used by the causal filter.

Example:
  mgeo brands --data-dir data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ctx, cancel := newPipeline(cmd)
		defer cancel()
		_, err := p.RunBrands(ctx)
		return err
	},
}

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter query logs into weighted causal winner/loser pairs",
	Long: `Filter derives ranks from visibility scores, enumerates all ordered
winner/loser pairs per query, and admits only pairs where the winner is
visible, beats the loser by a real margin, and has low bias propensity.
Admitted pairs carry inverse-propensity weights.

Example:
  mgeo filter --data-dir data --workers 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ctx, cancel := newPipeline(cmd)
		defer cancel()
		_, err := p.RunFilter(ctx)
		return err
	},
}

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Diagnose the textual gap behind each causal pair via LLM",
	Long: `Explain asks the configured LLM why each admitted winner beat its
loser and stores the answers as optimization rules. Already-diagnosed
pairs are skipped, so interrupted runs resume where they left off.

Example:
  mgeo explain --llm-provider openai --llm-model gpt-4o-mini
  mgeo explain --llm-provider ollama --llm-model llama3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ctx, cancel := newPipeline(cmd)
		defer cancel()
		_, err := p.RunExplain(ctx)
		return err
	},
}

// targetsCmd represents the targets command
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Select the optimization candidates with the largest upside",
	Long: `Targets joins causal pairs with their diagnoses and computes an
opportunity score (rank gap times causal weight) per losing item,
keeping the best-evidenced entry per item and dropping items already
ranked near the top.

Example:
  mgeo targets --data-dir data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ctx, cancel := newPipeline(cmd)
		defer cancel()
		_, err := p.RunTargets(ctx)
		return err
	},
}

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Cluster diagnoses into generalized optimization principles",
	Long: `Aggregate embeds every unique diagnosis, clusters them by semantic
similarity (the cluster count emerges from the data), and asks the LLM
to reduce each cluster to one reusable optimization principle.

Example:
  mgeo aggregate --llm-provider openai`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ctx, cancel := newPipeline(cmd)
		defer cancel()
		_, err := p.RunAggregate(ctx)
		return err
	},
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis loop end to end",
	Long: `Run executes every stage in order: brands, filter, explain, targets,
aggregate. Each stage persists its artifact before the next starts, so
a failed run can be resumed stage by stage.

Example:
  mgeo run --data-dir data --llm-provider openai`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ctx, cancel := newPipeline(cmd)
		defer cancel()
		return p.RunAll(ctx)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{brandsCmd, filterCmd, explainCmd, targetsCmd, aggregateCmd, runCmd} {
		cmd.Flags().StringVar(&dataDir, "data-dir", "", "artifact directory (default: data)")
		cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
		cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
		cmd.Flags().IntVar(&workers, "workers", 0, "filter worker count (default: 1)")
		cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall timeout (0 = none)")
		rootCmd.AddCommand(cmd)
	}
}

// newPipeline builds a pipeline from the merged configuration and an
// optionally bounded context.
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, context.Context, context.CancelFunc) {
	cfg := loadConfig()

	if cmd.Flags().Changed("data-dir") {
		cfg.Paths.DataDir = dataDir
	}
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	resolveAPIKeys(cfg)

	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	return pipeline.NewPipeline(cfg), ctx, cancel
}

// loadConfig merges defaults with the viper-managed config file and
// environment overrides.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid configuration: %v\n", err)
	}
	cfg.Output.Verbose = verbose
	return cfg
}

// resolveAPIKeys fills provider credentials from the conventional
// environment variables when the config carries none.
func resolveAPIKeys(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Embedding.Provider == "ollama" && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}
