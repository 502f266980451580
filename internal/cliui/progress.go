package cliui

import (
	"fmt"
	"io"

	"github.com/ragdex/ragdex/pkg/types"
)

// PlainReporter writes one line per status transition to w, used when
// stdout is not a terminal (the teacher's non-TUI fallback path).
type PlainReporter struct {
	w      io.Writer
	styles Styles
}

// NewPlainReporter creates a PlainReporter writing to w.
func NewPlainReporter(w io.Writer) *PlainReporter {
	styles := DefaultStyles()
	if !IsTTY(w) || DetectNoColor() {
		styles = NoColorStyles()
	}
	return &PlainReporter{w: w, styles: styles}
}

// Report renders a single Status snapshot as a plain-text line.
func (r *PlainReporter) Report(status types.Status) {
	switch status.Phase {
	case types.PhaseScanning:
		fmt.Fprintln(r.w, r.styles.Dim.Render("scanning "+status.FolderPath))
	case types.PhaseEmbedding:
		fmt.Fprintln(r.w, r.styles.Active.Render(fmt.Sprintf(
			"embedding %d/%d files (%d unchanged)", status.EmbeddedFiles, status.FilesToEmbed, status.SkippedUnchanged)))
	case types.PhaseReady:
		fmt.Fprintln(r.w, r.styles.Success.Render(fmt.Sprintf(
			"ready: %d files, %d chunks", status.TotalFiles, status.TotalChunks)))
	case types.PhaseIdle:
		if status.Message != "" {
			fmt.Fprintln(r.w, r.styles.Warning.Render(status.Message))
		}
	case types.PhaseError:
		fmt.Fprintln(r.w, r.styles.Error.Render("error: "+status.Message))
	}
}
