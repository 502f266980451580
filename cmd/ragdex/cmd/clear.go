package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/indexer"
)

func newClearCmd() *cobra.Command {
	var outputFolder string

	cmd := &cobra.Command{
		Use:   "clear [path]",
		Short: "Drop the in-memory cache and delete the on-disk index for a folder",
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

			if err := a.indexer.ClearFolder(absPath, indexer.Options{OutputFolder: outputFolder}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared index for %s\n", absPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFolder, "output", "", "must match the --output used at index time, if any")

	return cmd
}
