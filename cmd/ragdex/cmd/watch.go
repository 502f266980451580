package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/cliui"
	"github.com/ragdex/ragdex/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		outputFolder string
		concurrency  int
		batchSize    int
	)

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a folder and re-index on every debounced batch of file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			cfg := loadConfig(absPath)
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}
			if batchSize > 0 {
				cfg.EmbedBatchSize = batchSize
			}

			a := newApp(cfg, nil)
			opts := indexerOptionsFrom(cfg, outputFolder)

			reporter := cliui.NewPlainReporter(cmd.OutOrStdout())

			// An initial full index gives the watcher a baseline before it
			// starts reacting to incremental filesystem events.
			if _, err := a.indexer.Index(ctx, absPath, opts); err != nil {
				return err
			}

			w := watch.New(a.indexer, absPath, opts, a.logger)
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl+c to stop)\n", absPath)
			return w.Run(ctx, reporter.Report)
		},
	}

	cmd.Flags().StringVar(&outputFolder, "output", "", "write the index under this folder instead of the indexed folder")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "bounded file-processing concurrency")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "embedding batch size")

	return cmd
}
