package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultClient != "ollama" {
		t.Fatalf("DefaultClient = %q, want ollama", cfg.DefaultClient)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoad_ParsesJSON5WithCommentsAndTrailingCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		// picks lmstudio for this run
		"DefaultClient": "lmstudio",
		"LMStudio": {
			"BaseUrl": "http://localhost:1234/v1",
			"DefaultModel": "qwen2.5-coder",
		},
		"Strategy": { "IntelligentMaxIterations": 30, },
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultClient != "lmstudio" {
		t.Fatalf("DefaultClient = %q", cfg.DefaultClient)
	}
	if cfg.LMStudio.DefaultModel != "qwen2.5-coder" {
		t.Fatalf("DefaultModel = %q", cfg.LMStudio.DefaultModel)
	}
	if cfg.Strategy.IntelligentMaxIters != 30 {
		t.Fatalf("IntelligentMaxIters = %d", cfg.Strategy.IntelligentMaxIters)
	}
}

func TestLoad_RejectsUnknownDefaultClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"DefaultClient": "bedrock"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized DefaultClient")
	}
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"DefaultClient": "ollama", "Ollama": {"BaseUrl": "http://localhost:11434", "DefaultModel": "llama3"}, "SomeFutureKey": {"nested": true}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("unknown keys should be ignored, got error: %v", err)
	}
}
