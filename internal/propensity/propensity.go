// Package propensity models the probability that a ranked item won "by
// bias" (brand authority, rating, text length) rather than merit. The
// causal filter uses it to separate merit winners from bias winners and
// to weight pairs by inverse propensity.
package propensity

import (
	"math"

	"github.com/ajayraho/mgeo/internal/model"
)

// Model computes bias propensities from configurable weights. The weights
// are experiment hyperparameters; the reference tuning is 0.8/1.2/1.2.
type Model struct {
	cfg model.PropensityConfig
}

// NewModel creates a propensity model from the given tuning.
func NewModel(cfg model.PropensityConfig) *Model {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = 2000
	}
	return &Model{cfg: cfg}
}

// Score returns P(win | bias factors alone) in (0,1). It is monotonically
// increasing in each of text length, brand score, and rating.
func (m *Model) Score(textLength int, brandScore, rating float64) float64 {
	normLen := math.Min(float64(textLength)/float64(m.cfg.MaxTextLength), 1.0)

	// Ratings below 3.0 contribute zero bias credit; 5.0 contributes full.
	normRating := math.Max(0, (rating-3.0)/2.0)

	logits := m.cfg.LengthWeight*normLen +
		m.cfg.BrandWeight*brandScore +
		m.cfg.RatingWeight*normRating

	return sigmoid(logits)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
