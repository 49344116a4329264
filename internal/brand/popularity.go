package brand

import (
	"math"

	"github.com/ajayraho/mgeo/internal/model"
)

// BuildPopularity counts normalized brand occurrences across the catalog
// and assigns each brand a log-scaled popularity score in [0,1].
// Score 1.0 is the most frequent brand in the snapshot; a brand that
// appears once scores exactly 0.0.
func BuildPopularity(catalog []model.CatalogItem) model.BrandPopularity {
	counts := make(map[string]int)
	for _, item := range catalog {
		key := Normalize(item.ResolveBrand())
		counts[key]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	pop := make(model.BrandPopularity, len(counts))
	for key, count := range counts {
		pop[key] = model.BrandStat{
			Count:           count,
			PopularityScore: popularityScore(count, maxCount),
		}
	}
	return pop
}

// popularityScore computes ln(count)/ln(maxCount), clipped to [0,1] and
// rounded to 4 decimals. count == 1 is pinned to 0.0, and a degenerate
// catalog where every brand is unique (maxCount == 1) scores everything
// 0.0 rather than dividing by ln(1).
func popularityScore(count, maxCount int) float64 {
	if count <= 1 || maxCount <= 1 {
		return 0.0
	}
	score := math.Log(float64(count)) / math.Log(float64(maxCount))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*10000) / 10000
}

// Score looks up the popularity score for an item's brand, applying the
// same Normalize used at population time. Unseen brands score 0.0.
func Score(pop model.BrandPopularity, item model.CatalogItem) float64 {
	key := Normalize(item.ResolveBrand())
	if stat, ok := pop[key]; ok {
		return stat.PopularityScore
	}
	return 0.0
}
