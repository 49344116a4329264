// Package store persists the JSON artifacts the pipeline stages
// exchange. Every write is atomic (temp file plus rename) so a crash
// mid-write never corrupts a checkpoint, and serialization is
// deterministic so re-running a stage on unchanged inputs produces a
// byte-identical file.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ajayraho/mgeo/internal/model"
)

// Store resolves artifact names against the configured data directory.
type Store struct {
	paths model.PathsConfig
}

// NewStore creates a store rooted at the configured data directory.
func NewStore(paths model.PathsConfig) *Store {
	return &Store{paths: paths}
}

// DataDir returns the resolved artifact directory.
func (s *Store) DataDir() string {
	return s.paths.DataDir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.paths.DataDir, name)
}

// WriteJSON marshals v with 2-space indentation and writes it atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// ReadJSON unmarshals the file at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadCatalog reads the catalog snapshot. The catalog is a required
// input; a missing file is an error.
func (s *Store) LoadCatalog() ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	if err := ReadJSON(s.path(s.paths.Catalog), &items); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return items, nil
}

// LoadLogs reads the simulated engine query logs.
func (s *Store) LoadLogs() ([]model.QueryLog, error) {
	var logs []model.QueryLog
	if err := ReadJSON(s.path(s.paths.Logs), &logs); err != nil {
		return nil, fmt.Errorf("load simulation logs: %w", err)
	}
	return logs, nil
}

// SaveBrands persists the brand popularity table.
func (s *Store) SaveBrands(brands model.BrandPopularity) error {
	return WriteJSON(s.path(s.paths.Brands), brands)
}

// LoadBrands reads the brand popularity table.
func (s *Store) LoadBrands() (model.BrandPopularity, error) {
	var brands model.BrandPopularity
	if err := ReadJSON(s.path(s.paths.Brands), &brands); err != nil {
		return nil, fmt.Errorf("load brand popularity: %w", err)
	}
	return brands, nil
}

// SavePairs persists the grouped causal pairs.
func (s *Store) SavePairs(groups []model.PairGroup) error {
	if groups == nil {
		groups = []model.PairGroup{}
	}
	return WriteJSON(s.path(s.paths.Pairs), groups)
}

// LoadPairs reads the grouped causal pairs.
func (s *Store) LoadPairs() ([]model.PairGroup, error) {
	var groups []model.PairGroup
	if err := ReadJSON(s.path(s.paths.Pairs), &groups); err != nil {
		return nil, fmt.Errorf("load causal pairs: %w", err)
	}
	return groups, nil
}

// SaveRules persists the diagnosis rules.
func (s *Store) SaveRules(rules []model.Rule) error {
	if rules == nil {
		rules = []model.Rule{}
	}
	return WriteJSON(s.path(s.paths.Rules), rules)
}

// LoadRules reads existing diagnosis rules. A missing file means a fresh
// run, not an error: the explainer resumes from whatever exists.
func (s *Store) LoadRules() ([]model.Rule, error) {
	var rules []model.Rule
	err := ReadJSON(s.path(s.paths.Rules), &rules)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rules, nil
}

// SaveCandidates persists the per-query optimization candidates.
func (s *Store) SaveCandidates(candidates map[string][]model.Candidate) error {
	if candidates == nil {
		candidates = map[string][]model.Candidate{}
	}
	return WriteJSON(s.path(s.paths.Candidates), candidates)
}

// LoadCandidates reads the per-query optimization candidates.
func (s *Store) LoadCandidates() (map[string][]model.Candidate, error) {
	var candidates map[string][]model.Candidate
	if err := ReadJSON(s.path(s.paths.Candidates), &candidates); err != nil {
		return nil, fmt.Errorf("load target candidates: %w", err)
	}
	return candidates, nil
}

// SavePrinciples persists the aggregated principle set.
func (s *Store) SavePrinciples(set model.PrincipleSet) error {
	if set.MGEOPrinciples == nil {
		set.MGEOPrinciples = []model.Principle{}
	}
	return WriteJSON(s.path(s.paths.Principles), set)
}

// LoadPrinciples reads the aggregated principle set.
func (s *Store) LoadPrinciples() (model.PrincipleSet, error) {
	var set model.PrincipleSet
	if err := ReadJSON(s.path(s.paths.Principles), &set); err != nil {
		return model.PrincipleSet{}, fmt.Errorf("load principles: %w", err)
	}
	return set, nil
}
