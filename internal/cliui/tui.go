package cliui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ragdex/ragdex/pkg/types"
)

// StatusMsg carries a Status snapshot into the bubbletea program.
type StatusMsg types.Status

// DoneMsg signals the index() call returned.
type DoneMsg struct {
	Status types.Status
	Err    error
}

// IndexModel is the bubbletea model backing "ragdex index"'s TUI
// progress view, grounded on the teacher's indexingModel (a spinner
// while scanning, a progress bar while embedding, a final summary line).
type IndexModel struct {
	folder   string
	styles   Styles
	spinner  spinner.Model
	bar      progress.Model
	status   types.Status
	done     bool
	err      error
}

// NewIndexModel creates the TUI model for indexing folderPath.
func NewIndexModel(folderPath string) IndexModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := progress.New(progress.WithDefaultGradient())
	return IndexModel{
		folder:  folderPath,
		styles:  DefaultStyles(),
		spinner: sp,
		bar:     bar,
		status:  types.Status{Phase: types.PhaseIdle},
	}
}

// Status returns the model's last-observed Status snapshot.
func (m IndexModel) Status() types.Status { return m.status }

// Err returns the error the index() call finished with, if any.
func (m IndexModel) Err() error { return m.err }

func (m IndexModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m IndexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StatusMsg:
		m.status = types.Status(msg)
		return m, nil
	case DoneMsg:
		m.status = msg.Status
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m IndexModel) View() string {
	if m.done {
		if m.err != nil {
			return m.styles.Error.Render("error: "+m.err.Error()) + "\n"
		}
		return m.styles.Success.Render(fmt.Sprintf(
			"ready: %d files, %d chunks, %d skipped\n",
			m.status.TotalFiles, m.status.TotalChunks, m.status.SkippedUnchanged))
	}

	header := m.styles.Header.Render("ragdex index " + m.folder)
	switch m.status.Phase {
	case types.PhaseEmbedding:
		frac := 0.0
		if m.status.FilesToEmbed > 0 {
			frac = float64(m.status.EmbeddedFiles) / float64(m.status.FilesToEmbed)
		}
		return header + "\n" + m.spinner.View() + " embedding\n" + m.bar.ViewAs(frac) + "\n"
	default:
		return header + "\n" + m.spinner.View() + " " + string(m.status.Phase) + "\n"
	}
}
