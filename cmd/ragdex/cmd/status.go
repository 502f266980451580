package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/indexer"
	"github.com/ragdex/ragdex/pkg/types"
)

func newStatusCmd() *cobra.Command {
	var (
		outputFolder string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Report a folder's indexing status without mutating it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			cfg := loadConfig(absPath)
			a := newApp(cfg, nil)

			status, err := a.indexer.GetStatus(absPath, indexer.Options{OutputFolder: outputFolder})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}

			printStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFolder, "output", "", "must match the --output used at index time, if any")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, status types.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "folder:   %s\n", status.FolderPath)
	fmt.Fprintf(out, "phase:    %s\n", status.Phase)
	fmt.Fprintf(out, "files:    %d total, %d embedded, %d skipped\n", status.TotalFiles, status.EmbeddedFiles, status.SkippedUnchanged)
	fmt.Fprintf(out, "chunks:   %d\n", status.TotalChunks)
	fmt.Fprintf(out, "db size:  %d bytes\n", status.DBSizeBytes)
	if status.LastIndexedAt != nil {
		fmt.Fprintf(out, "indexed:  %d ms since epoch\n", *status.LastIndexedAt)
	}
	if status.StaleWarning {
		fmt.Fprintf(out, "stale:    yes (%d ms old, threshold %d ms)\n", status.StaleAgeMs, status.StaleThresholdMs)
	}
	if status.FileChangeDrift {
		fmt.Fprintf(out, "drift:    +%d ~%d -%d\n", status.DriftAddedFiles, status.DriftModifiedFiles, status.DriftDeletedFiles)
	}
	if status.Message != "" {
		fmt.Fprintf(out, "message:  %s\n", status.Message)
	}
}
