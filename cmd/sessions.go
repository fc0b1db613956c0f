package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/sandbox"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect session sandbox directories left under the cache root",
	}
	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsCleanCmd())
	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session ids found under the cache root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheRoot, err := cacheRootDir()
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(cacheRoot)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("(no sessions: cache root does not exist yet)")
					return nil
				}
				return fmt.Errorf("orchestrator: list cache root: %w", err)
			}
			found := false
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				found = true
				info, err := e.Info()
				if err != nil {
					fmt.Println(e.Name())
					continue
				}
				fmt.Printf("%s\tmodified=%s\n", e.Name(), info.ModTime().Format("2006-01-02T15:04:05Z07:00"))
			}
			if !found {
				fmt.Println("(no sessions)")
			}
			return nil
		},
	}
}

func sessionsCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <sessionId>",
		Short: "Remove a session's sandbox directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheRoot, err := cacheRootDir()
			if err != nil {
				return err
			}
			sb := sandbox.NewFSManager(cacheRoot)
			if err := sb.Cleanup(args[0]); err != nil {
				return fmt.Errorf("orchestrator: cleanup %s: %w", args[0], err)
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}

func cacheRootDir() (string, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return "", fmt.Errorf("orchestrator: load config: %w", err)
	}
	return resolveCacheRoot(cfg), nil
}
