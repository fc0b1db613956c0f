// Package cmd implements the orchestrator's CLI: a single root command
// that runs one query through the reasoning loop, plus a few
// introspection subcommands (doctor, tools, sessions, version).
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/agentcore/orchestrator/internal/agent"
	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/mcp"
	"github.com/agentcore/orchestrator/internal/providers"
	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/agentcore/orchestrator/internal/session"
	"github.com/agentcore/orchestrator/internal/sessionlog"
	"github.com/agentcore/orchestrator/internal/tools"
)

// Version is set at build time via -ldflags "-X github.com/agentcore/orchestrator/cmd.Version=v1.0.0"
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orchestrator <query> [mode]",
	Short: "Run one query through the agent reasoning loop",
	Long: "orchestrator drives an LLM backend through a multi-step reasoning loop, " +
		"dispatching sandboxed tools on its behalf, and prints the final answer.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		mode := "single"
		if len(args) == 2 {
			mode = strings.ToLower(args[1])
		}
		return runQuery(cmd.Context(), query, mode)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json or $ORCHESTRATOR_CONFIG)")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(sessionsCmd())
}

// Execute runs the root cobra command, returning a non-zero process exit
// code on any irrecoverable error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// resolveCacheRoot anchors a relative CacheDir to the enclosing repo root
// (the nearest ancestor directory with a .git or go.mod, falling back to
// the working directory itself) rather than the CLI's literal invocation
// directory, so "cache" resolves the same way no matter which subdirectory
// of a project the orchestrator is run from. An absolute CacheDir is used
// as-is.
func resolveCacheRoot(cfg *config.Config) string {
	cacheRoot := cfg.CacheDir
	if cacheRoot == "" {
		cacheRoot = "cache"
	}
	if filepath.IsAbs(cacheRoot) {
		return cacheRoot
	}
	wd, err := os.Getwd()
	if err != nil {
		return cacheRoot
	}
	return filepath.Join(config.FindRepoRoot(wd), cacheRoot)
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("ORCHESTRATOR_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

// buildRegistry assembles the shared tool catalogue: the built-in tools
// plus whatever MCP servers the config names. The returned mcp.Manager
// must be stopped by the caller once the session(s) it serves are done.
func buildRegistry(ctx context.Context, cfg *config.Config, sb sandbox.Manager) (*tools.Registry, *mcp.Manager) {
	registry := tools.NewRegistry()

	builtins := []tools.Tool{
		tools.NewReadFileTool(sb),
		tools.NewWriteFileTool(sb),
		tools.NewListFilesTool(sb),
		tools.NewDeleteFileTool(sb),
		tools.NewCopyMoveTool(sb),
		tools.NewExecTool(sb),
		tools.NewRepoDownloadTool(sb),
		tools.NewWebFetchTool(tools.WebFetchConfig{}),
		tools.NewWebSearchTool(tools.WebSearchConfig{}),
		tools.NewBrowserFetchTool(),
		tools.NewReadImageTool(sb),
		tools.NewResizeImageTool(sb),
		tools.NewScheduleCheckTool(),
	}
	for _, t := range builtins {
		if err := registry.Register(t); err != nil {
			fmt.Fprintf(os.Stderr, "orchestrator: tool registration: %v\n", err)
		}
	}

	mcpMgr := mcp.NewManager(registry)
	if len(cfg.Mcp) > 0 {
		mcpMgr.Start(ctx, cfg.Mcp)
	}
	return registry, mcpMgr
}

// buildProvider resolves the configured default backend into a
// providers.Provider plus the model name to drive it with.
func buildProvider(cfg *config.Config) (providers.Provider, string, error) {
	backend, ok := cfg.Backend(cfg.DefaultClient)
	if !ok {
		return nil, "", fmt.Errorf("orchestrator: unknown DefaultClient %q", cfg.DefaultClient)
	}
	switch cfg.DefaultClient {
	case "ollama":
		return providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      backend.BaseUrl,
			DefaultModel: backend.DefaultModel,
		}), backend.DefaultModel, nil
	case "lmstudio":
		return providers.NewLMStudioProvider(providers.LMStudioConfig{
			BaseURL:      backend.BaseUrl,
			DefaultModel: backend.DefaultModel,
			APIKey:       backend.ApiKey,
		}), backend.DefaultModel, nil
	default:
		return nil, "", fmt.Errorf("orchestrator: unsupported DefaultClient %q", cfg.DefaultClient)
	}
}

func runQuery(ctx context.Context, query, mode string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("orchestrator: load config: %w", err)
	}

	provider, model, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	sb := sandbox.NewFSManager(resolveCacheRoot(cfg))

	registry, mcpMgr := buildRegistry(ctx, cfg, sb)
	defer mcpMgr.Stop()

	tracer, shutdownTracer := sessionlog.NewTracer(sessionlog.TraceConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		EnableInsecure: cfg.Telemetry.EnableInsecure,
	})
	defer shutdownTracer(context.Background())

	mirror, closeMirror, err := buildMirror(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: pg mirror disabled: %v\n", err)
	}
	defer closeMirror()

	dispatcher := tools.NewDispatcher(registry)
	mgr := session.NewManager(session.Config{
		Provider:   provider,
		Model:      model,
		Registry:   registry,
		Dispatcher: dispatcher,
		Sandbox:    sb,
		Tracer:     tracer,
		Mirror:     mirror,
		Iterations: agent.IterationOverrides{
			MaxIterations:         cfg.Strategy.MaxIterations,
			SingleMaxIterations:   cfg.Strategy.SingleMaxIterations,
			CollaborativeMaxIters: cfg.Strategy.CollaborativeMaxIters,
			IntelligentMaxIters:   cfg.Strategy.IntelligentMaxIters,
		},
	})

	sessionID := newSessionID()
	rootCtx, rootSpan := tracer.StartRoot(ctx, sessionID, mode)
	defer rootSpan.End()

	outcome, err := mgr.Run(rootCtx, sessionID, mode, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: session %s failed: %v\n", sessionID, err)
		return err
	}

	fmt.Println(outcome.Response)
	fmt.Println()
	fmt.Printf("session: %s (iterations=%d truncated=%v)\n", sessionID, outcome.Iteration, outcome.Truncated)
	return nil
}

// buildMirror constructs the optional Postgres mirror of the tool execution
// log when cfg.PGMirror.Enabled is set. The returned close func is always
// safe to defer, even when mirroring is disabled or setup fails.
func buildMirror(ctx context.Context, cfg *config.Config) (*sessionlog.PGMirror, func(), error) {
	noop := func() {}
	if !cfg.PGMirror.Enabled {
		return nil, noop, nil
	}
	if cfg.PGMirror.DSN == "" {
		return nil, noop, fmt.Errorf("PGMirror.Enabled is true but PGMirror.DSN is empty")
	}

	pool, err := pgxpool.New(ctx, cfg.PGMirror.DSN)
	if err != nil {
		return nil, noop, fmt.Errorf("connect: %w", err)
	}

	mirror := sessionlog.NewPGMirror(pool)
	if err := mirror.Migrate(ctx); err != nil {
		pool.Close()
		return nil, noop, fmt.Errorf("migrate: %w", err)
	}
	return mirror, pool.Close, nil
}

func newSessionID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("orchestrator %s\n", Version)
		},
	}
}

