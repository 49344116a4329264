package model

import "strings"

// CatalogItem represents one product record from the catalog snapshot.
// Items are read-only inputs to all scoring; nothing mutates them after load.
type CatalogItem struct {
	ItemID         string            `json:"item_id"`
	Title          string            `json:"title"`
	Features       string            `json:"features,omitempty"`       // free text, pipe- or bullet-delimited
	Specifications map[string]string `json:"specifications,omitempty"` // optional "brand" key
	Category       string            `json:"category,omitempty"`

	// Rating fields are optional in the source data. SimRating is the
	// simulated social proof injected by the engine run; Rating is the
	// real catalog value. ResolveRating picks between them.
	SimRating   *float64 `json:"sim_rating,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
}

// DefaultRating is assumed when an item carries no rating at all.
const DefaultRating = 4.0

// ResolveBrand returns the raw brand string for an item: the explicit
// specifications entry when present, otherwise the first two
// whitespace-separated title tokens. The title fallback is a known-noisy
// heuristic carried over from the reference data; callers normalize the
// result before any comparison.
func (c CatalogItem) ResolveBrand() string {
	if b, ok := c.Specifications["brand"]; ok && strings.TrimSpace(b) != "" {
		return b
	}
	fields := strings.Fields(c.Title)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}

// ResolveRating returns the effective rating for propensity scoring:
// simulated rating first, then the real one, then DefaultRating.
func (c CatalogItem) ResolveRating() float64 {
	if c.SimRating != nil {
		return *c.SimRating
	}
	if c.Rating != nil {
		return *c.Rating
	}
	return DefaultRating
}

// CatalogIndex is an immutable item_id lookup built once at pipeline start
// and passed explicitly to every component that needs it.
type CatalogIndex map[string]CatalogItem

// NewCatalogIndex builds the lookup. Later duplicates win, matching the
// load order of the reference data.
func NewCatalogIndex(items []CatalogItem) CatalogIndex {
	idx := make(CatalogIndex, len(items))
	for _, item := range items {
		idx[item.ItemID] = item
	}
	return idx
}

// BrandStat holds the occurrence count and log-scaled popularity for one
// normalized brand key.
type BrandStat struct {
	Count           int     `json:"count"`
	PopularityScore float64 `json:"popularity_score"`
}

// BrandPopularity maps normalized brand key to its statistics.
type BrandPopularity map[string]BrandStat
