package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/sandbox"
)

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalogue an agent run would see",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("orchestrator: load config: %w", err)
			}
			sb := sandbox.NewFSManager(resolveCacheRoot(cfg))

			registry, mcpMgr := buildRegistry(cmd.Context(), cfg, sb)
			defer mcpMgr.Stop()

			fmt.Print(registry.Catalogue())
			return nil
		},
	}
}
