package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/cliui"
	"github.com/ragdex/ragdex/internal/indexer"
	"github.com/ragdex/ragdex/pkg/types"
)

func newIndexCmd() *cobra.Command {
	var (
		include      string
		exclude      string
		concurrency  int
		batchSize    int
		outputFolder string
		noTUI        bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a folder for searching",
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
			if include != "" {
				cfg.IncludeExtensions = splitCSV(include)
			}
			if exclude != "" {
				cfg.ExcludeFolders = splitCSV(exclude)
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}
			if batchSize > 0 {
				cfg.EmbedBatchSize = batchSize
			}

			a := newApp(cfg, nil)
			opts := indexerOptionsFrom(cfg, outputFolder)

			if !noTUI && cliui.IsTTY(cmd.OutOrStdout()) {
				return runIndexTUI(ctx, a, absPath, opts)
			}
			return runIndexPlain(ctx, cmd, a, absPath, opts)
		},
	}

	cmd.Flags().StringVar(&include, "include", "", "comma-separated file extensions to include (overrides .ragdex.yaml)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "comma-separated directory names to exclude")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "bounded file-processing concurrency")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "embedding batch size")
	cmd.Flags().StringVar(&outputFolder, "output", "", "write the index under this folder instead of the indexed folder")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "force plain-text progress output")

	return cmd
}

func runIndexPlain(ctx context.Context, cmd *cobra.Command, a *app, path string, opts indexer.Options) error {
	reporter := cliui.NewPlainReporter(cmd.OutOrStdout())
	opts.OnProgress = reporter.Report

	status, err := a.indexer.Index(ctx, path, opts)
	if err != nil {
		return err
	}
	if status.Phase == types.PhaseError {
		return fmt.Errorf("%s", status.Message)
	}
	return nil
}

// runIndexTUI drives indexer.Index in the background while a bubbletea
// program renders its progress, grounded on the teacher's pattern of
// running the long operation in a goroutine and feeding status snapshots
// into the program via Send.
func runIndexTUI(ctx context.Context, a *app, path string, opts indexer.Options) error {
	model := cliui.NewIndexModel(path)
	program := tea.NewProgram(model)

	opts.OnProgress = func(status types.Status) {
		program.Send(cliui.StatusMsg(status))
	}

	go func() {
		status, err := a.indexer.Index(ctx, path, opts)
		program.Send(cliui.DoneMsg{Status: status, Err: err})
	}()

	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(cliui.IndexModel); ok {
		if m.Err() != nil {
			return m.Err()
		}
		if m.Status().Phase == types.PhaseError {
			return fmt.Errorf("%s", m.Status().Message)
		}
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
