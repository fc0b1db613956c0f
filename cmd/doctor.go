package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentcore/orchestrator/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and LLM backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	fmt.Println("orchestrator doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (using defaults, file not found)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return err
	}

	fmt.Println()
	fmt.Println("  Backend:")
	fmt.Printf("    %-12s %s\n", "Default:", cfg.DefaultClient)
	provider, model, err := buildProvider(cfg)
	if err != nil {
		fmt.Printf("    %-12s %s\n", "Status:", err)
		return err
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := provider.HealthCheck(checkCtx); err != nil {
		fmt.Printf("    %-12s UNREACHABLE (%s)\n", "Status:", err)
	} else {
		fmt.Printf("    %-12s reachable, model=%s\n", "Status:", model)
	}

	fmt.Println()
	fmt.Println("  MCP servers:")
	if len(cfg.Mcp) == 0 {
		fmt.Println("    (none configured)")
	} else {
		for _, srv := range cfg.Mcp {
			fmt.Printf("    %-16s %s\n", srv.Name+":", describeServer(srv))
		}
	}

	fmt.Println()
	cacheRoot := resolveCacheRoot(cfg)
	fmt.Printf("  Cache dir: %s", cacheRoot)
	if err := os.MkdirAll(cacheRoot, 0o755); err != nil {
		fmt.Printf(" (NOT WRITABLE: %s)\n", err)
	} else {
		fmt.Println(" (OK)")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
	return nil
}

func describeServer(srv config.McpServer) string {
	if srv.Command != "" {
		return fmt.Sprintf("stdio command=%s", srv.Command)
	}
	return fmt.Sprintf("sse url=%s", srv.URL)
}
