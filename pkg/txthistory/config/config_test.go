package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /tmp/history.db
nlp:
  version: v2.1
  enable_sentiment: false
  entity_source: processed
export:
  chunk_size: 5MiB
  default_format: json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/history.db" || cfg.NLP.Version != "v2.1" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.NLP.EnableSentiment {
		t.Error("enable_sentiment: false was ignored")
	}
	if cfg.NLP.EntitySource != "processed" {
		t.Errorf("entity_source = %q", cfg.NLP.EntitySource)
	}
	if !cfg.NLP.EnableNER || cfg.NLP.BatchSize != 100 {
		t.Errorf("defaults lost for unset fields: %+v", cfg.NLP)
	}
	n, err := cfg.Export.ChunkBytes()
	if err != nil || n != 5*1024*1024 {
		t.Errorf("ChunkBytes = %d, %v", n, err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NLP.Version != Default().NLP.Version {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("nlp: [unclosed"), 0o644)
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TXT_HISTORY_NLP_VERSION":       "exp-3",
		"TXT_HISTORY_NLP_BATCH_SIZE":    "25",
		"TXT_HISTORY_NLP_ENABLE_NER":    "false",
		"TXT_HISTORY_EXPORT_CHUNK_SIZE": "512KB",
		"TXT_HISTORY_CACHE_SIZE":        "8",
		"TXT_HISTORY_DATABASE_PATH":     "env.db",
		"UNRELATED_NLP_VERSION":         "ignored",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.NLP.Version != "exp-3" || cfg.NLP.BatchSize != 25 || cfg.NLP.EnableNER {
		t.Errorf("nlp overrides not applied: %+v", cfg.NLP)
	}
	if cfg.Cache.Size != 8 || cfg.Database.Path != "env.db" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if n, _ := cfg.Export.ChunkBytes(); n != 512000 {
		t.Errorf("ChunkBytes = %d, want 512000", n)
	}

	env["TXT_HISTORY_CACHE_SIZE"] = "lots"
	if err := cfg.ApplyEnv(lookup); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("bad number error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AppConfig)
	}{
		{"empty db path", func(c *AppConfig) { c.Database.Path = "" }},
		{"bad version", func(c *AppConfig) { c.NLP.Version = "v 1" }},
		{"zero batch", func(c *AppConfig) { c.NLP.BatchSize = 0 }},
		{"entity source", func(c *AppConfig) { c.NLP.EntitySource = "raw" }},
		{"format", func(c *AppConfig) { c.Export.DefaultFormat = "xml" }},
		{"chunk size", func(c *AppConfig) { c.Export.ChunkSize = "lots" }},
		{"both chunkings", func(c *AppConfig) { c.Export.ChunkSize = "1MB"; c.Export.LinesPerChunk = 10 }},
		{"cache size", func(c *AppConfig) { c.Cache.Size = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	valid := []string{"v1", "2024.05-rc_1", strings.Repeat("a", MaxVersionLength)}
	for _, v := range valid {
		if err := ValidateVersion(v); err != nil {
			t.Errorf("ValidateVersion(%q) = %v", v, err)
		}
	}
	invalid := []string{"", "v 1", "v1/2", "ünï", strings.Repeat("a", MaxVersionLength+1)}
	for _, v := range invalid {
		if err := ValidateVersion(v); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("ValidateVersion(%q) = %v, want ErrInvalidInput", v, err)
		}
	}
}
