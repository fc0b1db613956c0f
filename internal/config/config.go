// Package config loads the orchestrator's single JSON configuration file:
// which LLM backend to talk to, that backend's connection settings, the
// optional sidecar subprocess, per-strategy iteration defaults, and the
// optional telemetry and MCP expansion blocks. Unknown keys are ignored,
// so an older config file keeps working as new blocks are added.
package config

import (
	"encoding/json"
	"fmt"
)

// Config is the root configuration document.
type Config struct {
	DefaultClient string `json:"DefaultClient"`

	Ollama   BackendConfig `json:"Ollama,omitempty"`
	LMStudio BackendConfig `json:"LMStudio,omitempty"`

	Sidecar SidecarConfig `json:"Sidecar,omitempty"`

	Strategy StrategyConfig `json:"Strategy,omitempty"`

	// [EXPANSION] Telemetry and Mcp are additive blocks absent from the
	// minimal contract; both default to inert zero values so a config
	// file that predates them still loads unchanged.
	Telemetry TelemetryConfig `json:"Telemetry,omitempty"`
	Mcp       []McpServer     `json:"Mcp,omitempty"`
	PGMirror  PGMirrorConfig  `json:"PGMirror,omitempty"`

	CacheDir string `json:"CacheDir,omitempty"`
}

// BackendConfig is one LLM backend's connection settings.
type BackendConfig struct {
	BaseUrl      string  `json:"BaseUrl"`
	DefaultModel string  `json:"DefaultModel"`
	Temperature  float64 `json:"Temperature,omitempty"`
	MaxTokens    int     `json:"MaxTokens,omitempty"`
	ApiKey       string  `json:"ApiKey,omitempty"`
}

// SidecarConfig describes an optional local subprocess the orchestrator
// manages alongside itself (e.g. a model server it launches and
// supervises rather than assuming is already running).
type SidecarConfig struct {
	Enabled                bool   `json:"Enabled"`
	Path                   string `json:"Path,omitempty"`
	Script                 string `json:"Script,omitempty"`
	Port                   int    `json:"Port,omitempty"`
	StartupTimeoutSeconds  int    `json:"StartupTimeoutSeconds,omitempty"`
	ShutdownTimeoutSeconds int    `json:"ShutdownTimeoutSeconds,omitempty"`
}

// StrategyConfig overrides the built-in per-mode iteration caps.
type StrategyConfig struct {
	MaxIterations         int `json:"MaxIterations,omitempty"`
	SingleMaxIterations   int `json:"SingleMaxIterations,omitempty"`
	CollaborativeMaxIters int `json:"CollaborativeMaxIterations,omitempty"`
	IntelligentMaxIters   int `json:"IntelligentMaxIterations,omitempty"`
}

// TelemetryConfig configures the OTel exporter sessionlog.Tracer uses.
// An empty Endpoint disables exporting (spans are still created, just
// never sent anywhere).
type TelemetryConfig struct {
	Endpoint       string  `json:"Endpoint,omitempty"`
	ServiceName    string  `json:"ServiceName,omitempty"`
	SamplingRate   float64 `json:"SamplingRate,omitempty"`
	EnableInsecure bool    `json:"EnableInsecure,omitempty"`
}

// PGMirrorConfig turns on the optional, best-effort Postgres mirror of the
// tool execution log stream. It is off by default; Enabled requires a
// non-empty DSN.
type PGMirrorConfig struct {
	Enabled bool   `json:"Enabled"`
	DSN     string `json:"DSN,omitempty"`
}

// McpServer describes one external MCP server whose tools should be
// registered into the tool catalogue at startup. Exactly one of
// (Command, URL) is expected to be set: Command launches a local
// stdio-speaking server process, URL connects to a remote SSE/HTTP one.
type McpServer struct {
	Name    string            `json:"Name"`
	Command string            `json:"Command,omitempty"`
	Args    []string          `json:"Args,omitempty"`
	Env     map[string]string `json:"Env,omitempty"`
	URL     string            `json:"URL,omitempty"`
}

// Validate checks the minimal set of invariants the loader cannot default
// its way out of: DefaultClient must name a backend this process knows
// how to speak to, and that backend must carry a base URL.
func (c *Config) Validate() error {
	switch c.DefaultClient {
	case "ollama":
		if c.Ollama.BaseUrl == "" {
			return fmt.Errorf("config: DefaultClient is ollama but Ollama.BaseUrl is empty")
		}
	case "lmstudio":
		if c.LMStudio.BaseUrl == "" {
			return fmt.Errorf("config: DefaultClient is lmstudio but LMStudio.BaseUrl is empty")
		}
	default:
		return fmt.Errorf("config: DefaultClient must be %q or %q, got %q", "ollama", "lmstudio", c.DefaultClient)
	}
	return nil
}

// Backend returns the settings block for the named backend ("ollama" or
// "lmstudio").
func (c *Config) Backend(name string) (BackendConfig, bool) {
	switch name {
	case "ollama":
		return c.Ollama, true
	case "lmstudio":
		return c.LMStudio, true
	default:
		return BackendConfig{}, false
	}
}

// String renders the config for diagnostics, redacting API keys.
func (c *Config) String() string {
	redacted := *c
	if redacted.Ollama.ApiKey != "" {
		redacted.Ollama.ApiKey = "<redacted>"
	}
	if redacted.LMStudio.ApiKey != "" {
		redacted.LMStudio.ApiKey = "<redacted>"
	}
	b, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %+v", redacted)
	}
	return string(b)
}
