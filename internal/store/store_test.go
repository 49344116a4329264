package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajayraho/mgeo/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(model.PathsConfig{
		DataDir:    t.TempDir(),
		Catalog:    "query.json",
		Brands:     "brand_popularity.json",
		Logs:       "simulation_logs.json",
		Pairs:      "causal_pairs.json",
		Rules:      "optimization_rules.json",
		Candidates: "target_candidates.json",
		Principles: "mgeo_principles.json",
	})
}

func TestPairsRoundTrip(t *testing.T) {
	s := testStore(t)
	groups := []model.PairGroup{{
		Query: "red shoes",
		Pairs: []model.CausalPair{{
			WinnerID: "W1", LoserID: "L1",
			WinnerRank: 1, LoserRank: 5,
			WinnerVisibility: 0.9, LoserVisibility: 0.2,
			WinnerPropensity: 0.5, Weight: 2.0,
		}},
	}}

	if err := s.SavePairs(groups); err != nil {
		t.Fatalf("SavePairs failed: %v", err)
	}

	got, err := s.LoadPairs()
	if err != nil {
		t.Fatalf("LoadPairs failed: %v", err)
	}
	if len(got) != 1 || got[0].Query != "red shoes" || got[0].Pairs[0].Weight != 2.0 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	s := testStore(t)
	rules := []model.Rule{
		{FoundGap: true, RuleText: "Mention the texture.", SourceQuery: "q", SourcePair: "a_vs_b"},
		{FoundGap: true, RuleText: "Mention the color.", SourceQuery: "q", SourcePair: "c_vs_d"},
	}

	if err := s.SaveRules(rules); err != nil {
		t.Fatalf("SaveRules failed: %v", err)
	}
	path := filepath.Join(s.DataDir(), "optimization_rules.json")
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if err := s.SaveRules(rules); err != nil {
		t.Fatalf("SaveRules failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("re-saving unchanged rules changed file bytes")
	}
	if !bytes.HasSuffix(first, []byte("\n")) {
		t.Error("output missing trailing newline")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	if err := s.SaveBrands(model.BrandPopularity{"nike": {Count: 2, PopularityScore: 0.5}}); err != nil {
		t.Fatalf("SaveBrands failed: %v", err)
	}

	entries, err := os.ReadDir(s.DataDir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadRules_MissingFileIsFreshRun(t *testing.T) {
	s := testStore(t)
	rules, err := s.LoadRules()
	if err != nil {
		t.Fatalf("missing rules file should not error: %v", err)
	}
	if rules != nil {
		t.Errorf("expected nil rules on fresh run, got %v", rules)
	}
}

func TestLoadCatalog_MissingFileIsError(t *testing.T) {
	s := testStore(t)
	if _, err := s.LoadCatalog(); err == nil {
		t.Error("missing catalog must be an error")
	}
}

func TestSaveEmptyCollectionsWriteJSONContainers(t *testing.T) {
	s := testStore(t)

	if err := s.SavePairs(nil); err != nil {
		t.Fatalf("SavePairs failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.DataDir(), "causal_pairs.json"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("nil pairs should serialize as [], got %q", data)
	}

	if err := s.SavePrinciples(model.PrincipleSet{}); err != nil {
		t.Fatalf("SavePrinciples failed: %v", err)
	}
	set, err := s.LoadPrinciples()
	if err != nil {
		t.Fatalf("LoadPrinciples failed: %v", err)
	}
	if set.MGEOPrinciples == nil || len(set.MGEOPrinciples) != 0 {
		t.Errorf("expected empty principle list, got %v", set.MGEOPrinciples)
	}
}

func TestCandidatesRoundTrip(t *testing.T) {
	s := testStore(t)
	in := map[string][]model.Candidate{
		"red shoes": {{
			ItemID: "L1", CurrentRank: 5, CurrentVis: 0.2,
			TargetGapVis: 0.7, BeatenBy: "W1", OpportunityScore: 7.5,
			SuggestedPrinciple: "Name the visible texture.",
		}},
	}

	if err := s.SaveCandidates(in); err != nil {
		t.Fatalf("SaveCandidates failed: %v", err)
	}
	got, err := s.LoadCandidates()
	if err != nil {
		t.Fatalf("LoadCandidates failed: %v", err)
	}
	if got["red shoes"][0].OpportunityScore != 7.5 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// The on-disk field names are the artifact contract
	raw, err := os.ReadFile(filepath.Join(s.paths.DataDir, s.paths.Candidates))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), `"suggested_principle"`) {
		t.Errorf("candidates artifact missing suggested_principle field:\n%s", raw)
	}
}
