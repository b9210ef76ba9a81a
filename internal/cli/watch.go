package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/GianGoulart/printer-queue-generation/pkg/manifest"
)

const watchPollInterval = time.Second

// watchCommand creates the "watch" command: a live terminal view that
// polls a manifest store for one job and renders each base's placement
// count and utilization as it shows up in the saved manifest.
//
// The manifest store is write-once per job — partial success is never
// emitted — so there is no incremental per-base status to stream:
// "watch" instead polls until the completed manifest appears, then
// renders its bases as a completed set. The progress bars fill
// immediately on arrival rather than growing base-by-base.
func (c *CLI) watchCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Watch a manifest store for one job's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := manifest.NewFileStore(dir)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newWatchModel(store, args[0]))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "./output/manifests", "manifest store directory to watch")

	return cmd
}

// =============================================================================
// watchModel - polls one job's manifest
// =============================================================================

type tickMsg time.Time

type manifestPollMsg struct {
	m     manifest.Manifest
	found bool
	err   error
}

type watchModel struct {
	store *manifest.FileStore
	jobID string

	manifest manifest.Manifest
	found    bool
	err      error
}

func newWatchModel(store *manifest.FileStore, jobID string) watchModel {
	return watchModel{store: store, jobID: jobID}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(pollManifest(m.store, m.jobID), tickEvery(watchPollInterval))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		if m.found {
			return m, tea.Quit
		}
		return m, tea.Batch(pollManifest(m.store, m.jobID), tickEvery(watchPollInterval))
	case manifestPollMsg:
		m.manifest = msg.m
		m.found = msg.found
		m.err = msg.err
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Job %s", m.jobID)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("polling manifest store · q to quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render(m.err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	if !m.found {
		b.WriteString(StyleDim.Render("waiting for job to complete..."))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.manifest.Errors) > 0 {
		for _, e := range m.manifest.Errors {
			b.WriteString(StyleWarning.Render("✗ " + e))
			b.WriteString("\n")
		}
		return b.String()
	}

	for _, base := range m.manifest.Packing.Bases {
		b.WriteString(baseProgressBar(base))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%d base(s), avg utilization %.1f%%, %.2fs",
		m.manifest.Packing.TotalBases, m.manifest.Packing.AvgUtilization*100, m.manifest.ProcessingTimeSeconds)))
	b.WriteString("\n")

	return b.String()
}

// baseProgressBar renders one base's utilization as a filled,
// lipgloss-styled progress bar.
func baseProgressBar(base manifest.Base) string {
	const width = 30
	filled := int(base.Utilization * width)
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(colorCyan).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(colorDim).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("  base %-3d %s %5.1f%%  (%d items)", base.Index, bar, base.Utilization*100, base.ItemsCount)
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func pollManifest(store *manifest.FileStore, jobID string) tea.Cmd {
	return func() tea.Msg {
		m, found, err := store.Get(context.Background(), jobID)
		return manifestPollMsg{m: m, found: found, err: err}
	}
}
