// Package cliui provides TTY-aware styled CLI output: plain-text
// summaries when stdout is not a terminal, and a bubbletea progress view
// for "ragdex index" when it is. Grounded on the teacher's internal/ui
// package (TTY detection via mattn/go-isatty, a lipgloss Styles struct,
// a bubbletea progress model), narrowed to the handful of phases
// spec.md's Status.phase actually has.
package cliui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette colors, grounded on the teacher's asitop-inspired scheme.
const (
	ColorAccent = "154"
	ColorDim    = "106"
	ColorWhite  = "255"
	ColorGray   = "245"
	ColorBorder = "238"
	ColorError  = "196"
	ColorWarn   = "220"
)

// Styles bundles the lipgloss styles used across plain and TUI output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
}

// DefaultStyles returns the accent-colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarn)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
	}
}

// NoColorStyles returns an unstyled set, used when output is not a TTY
// or NO_COLOR is set.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Header: plain, Success: plain, Warning: plain, Error: plain, Dim: plain, Active: plain}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set per https://no-color.org.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
