package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// Default returns the built-in defaults: a local Ollama backend, no
// sidecar, and the strategy iteration caps internal/agent already falls
// back to when Strategy is left unset.
func Default() *Config {
	return &Config{
		DefaultClient: "ollama",
		Ollama: BackendConfig{
			BaseUrl:      "http://localhost:11434",
			DefaultModel: "llama3",
		},
		LMStudio: BackendConfig{
			BaseUrl:      "http://localhost:1234/v1",
			DefaultModel: "local-model",
		},
		Strategy: StrategyConfig{
			SingleMaxIterations:   6,
			CollaborativeMaxIters: 10,
			IntelligentMaxIters:   25,
		},
		CacheDir: "cache",
	}
}

// Load reads config from path, which may use JSON5's relaxed syntax
// (comments, trailing commas) since hand-edited config files accumulate
// both. A missing file is not an error — the built-in defaults apply, so
// a first run with no config file still produces a usable orchestrator.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoRoot walks upward from dir looking for a .git directory or a
// go.mod file, falling back to dir itself if neither is found anywhere
// above it. This mirrors how the CLI locates cache/ relative to the
// project it's being run against, rather than the process's literal cwd.
func FindRepoRoot(dir string) string {
	current, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}
