package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/cliui"
	"github.com/ragdex/ragdex/internal/searcher"
)

func newSearchCmd() *cobra.Command {
	var (
		topK         int
		outputFolder string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "search <path> <query>",
		Short: "Search a previously indexed folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, query := args[0], args[1]

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			cfg := loadConfig(absPath)
			a := newApp(cfg, nil)

			result, err := a.searcher.Search(cmd.Context(), absPath, query, searcher.Options{
				TopK:         topK,
				OutputFolder: outputFolder,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			styles := cliui.DefaultStyles()
			if !cliui.IsTTY(cmd.OutOrStdout()) || cliui.DetectNoColor() {
				styles = cliui.NoColorStyles()
			}
			out := cmd.OutOrStdout()
			if len(result.Matches) == 0 {
				fmt.Fprintln(out, styles.Dim.Render("no matches"))
				return nil
			}
			for _, m := range result.Matches {
				fmt.Fprintln(out, styles.Header.Render(fmt.Sprintf("%s (score %.3f)", m.FilePath, m.Score)))
				fmt.Fprintln(out, m.Content)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum number of results (default 6)")
	cmd.Flags().StringVar(&outputFolder, "output", "", "must match the --output used at index time, if any")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}
