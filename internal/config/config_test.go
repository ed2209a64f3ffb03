package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Router.InProcessThreshold != 50 || cfg.Router.ExternalThreshold != 150 {
		t.Fatalf("router thresholds = %+v", cfg.Router)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Path != ".codegraph/cache/artifacts.db" {
		t.Fatalf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Neo4j.Enabled {
		t.Fatal("expected neo4j disabled by default")
	}
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
router:
  in_process_threshold: 10
  external_threshold: 200
neo4j:
  enabled: true
  uri: "bolt://db:7687"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Router.InProcessThreshold != 10 || cfg.Router.ExternalThreshold != 200 {
		t.Fatalf("router = %+v", cfg.Router)
	}
	if !cfg.Neo4j.Enabled || cfg.Neo4j.URI != "bolt://db:7687" {
		t.Fatalf("neo4j = %+v", cfg.Neo4j)
	}
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
}
