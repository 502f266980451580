// Package cmd provides the CLI commands for ragdex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/config"
	"github.com/ragdex/ragdex/internal/logging"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// Execute runs the root ragdex command.
func Execute() error {
	root := NewRootCmd()
	return root.Execute()
}

// NewRootCmd builds the root cobra command and wires its subcommands,
// grounded on the teacher's cmd/amanmcp/cmd.NewRootCmd (a PersistentPreRunE
// that sets up debug logging, narrowed to that one concern -- no
// profiling flags, since ragdex has no equivalent to the teacher's
// MLX/GPU embedding backends to profile).
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragdex",
		Short: "Index and search a source tree with retrieval-augmented-generation",
		Long: `ragdex scans a folder, chunks its files by AST-aware boundaries,
embeds the chunks and persists an approximate-nearest-neighbor index,
then answers similarity queries with ranked snippets.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.ragdex/logs/ragdex.log")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logCfg := logging.DefaultConfig()
		if debugMode {
			logCfg.Level = "debug"
		}
		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
		return nil
	}

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newServeCmd())

	return root
}

// loadConfig loads the project-local .ragdex.yaml for path, falling back
// to built-in defaults, and reports load errors to stderr without
// failing the command -- a malformed config should not block indexing.
func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragdex: warning: %v\n", err)
	}
	return cfg
}
