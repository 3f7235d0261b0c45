// Package tui provides the terminal user interface for Axon.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/axonhq/axon/internal/graph"
	"github.com/axonhq/axon/internal/store"
	"github.com/axonhq/axon/pkg/models"
)

// graphReloadMsg is sent when the graph file changes on disk.
type graphReloadMsg struct {
	graph *models.Graph
	err   error
}

// WatchModel renders a live view of the bead graph, refreshed whenever the
// engine rewrites the graph file.
type WatchModel struct {
	store   *store.Store
	watcher *fsnotify.Watcher
	spinner spinner.Model

	graph *models.Graph
	err   error
	width int

	headerStyle   lipgloss.Style
	statusStyles  map[models.BeadStatus]lipgloss.Style
	dimStyle      lipgloss.Style
	errorStyle    lipgloss.Style
	percentStyle  lipgloss.Style
	titleMaxWidth int
}

// NewWatchModel creates a watch view over the given graph file.
func NewWatchModel(st *store.Store) (*WatchModel, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory, not the file: the store replaces the file by
	// rename, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(st.Path())); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch graph directory: %w", err)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &WatchModel{
		store:   st,
		watcher: watcher,
		spinner: sp,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")),

		statusStyles: map[models.BeadStatus]lipgloss.Style{
			models.BeadStatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			models.BeadStatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
			models.BeadStatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
			models.BeadStatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			models.BeadStatusPaused:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
		dimStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		errorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		percentStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
		titleMaxWidth: 48,
	}

	return m, nil
}

// Close releases the file watcher.
func (m *WatchModel) Close() error {
	return m.watcher.Close()
}

// Init starts the spinner and the first load.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reload, m.waitForChange)
}

// reload reads the graph file.
func (m *WatchModel) reload() tea.Msg {
	g, err := m.store.Load()
	return graphReloadMsg{graph: g, err: err}
}

// waitForChange blocks until the graph file is rewritten.
func (m *WatchModel) waitForChange() tea.Msg {
	target := filepath.Base(m.store.Path())
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				return m.reload()
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// Update handles messages.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.reload
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case graphReloadMsg:
		m.graph, m.err = msg.graph, msg.err
		return m, m.waitForChange
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the graph state.
func (m *WatchModel) View() string {
	var b strings.Builder

	b.WriteString(m.headerStyle.Render("axon watch  "+m.store.Path()) + "\n\n")

	if m.err != nil {
		b.WriteString(m.errorStyle.Render("cannot read graph: "+m.err.Error()) + "\n")
		b.WriteString(m.dimStyle.Render("waiting for changes... press q to quit") + "\n")
		return b.String()
	}
	if m.graph == nil {
		b.WriteString(m.spinner.View() + " loading graph...\n")
		return b.String()
	}

	stats := graph.ComputeStats(m.graph)
	fmt.Fprintf(&b, "%s  %d beads  %s done  $%.4f spent\n\n",
		m.spinner.View(),
		stats.Total,
		m.percentStyle.Render(fmt.Sprintf("%.0f%%", stats.PercentComplete)),
		m.graph.Metadata.TotalCostUSD,
	)

	for _, bead := range m.graph.Beads {
		style := m.statusStyles[bead.Status]
		title := bead.Title
		if len(title) > m.titleMaxWidth {
			title = title[:m.titleMaxWidth-3] + "..."
		}
		fmt.Fprintf(&b, "  %s  %-12s %s\n",
			style.Render(statusGlyph(bead.Status)),
			bead.ID,
			title,
		)
		if bead.Status == models.BeadStatusFailed && bead.Error != "" {
			b.WriteString("      " + m.errorStyle.Render(firstLine(bead.Error)) + "\n")
		}
	}

	b.WriteString("\n" + m.dimStyle.Render("r refresh  q quit") + "\n")
	return b.String()
}

func statusGlyph(s models.BeadStatus) string {
	switch s {
	case models.BeadStatusCompleted:
		return "✓"
	case models.BeadStatusFailed:
		return "✗"
	case models.BeadStatusRunning:
		return "▶"
	case models.BeadStatusPaused:
		return "⏸"
	default:
		return "·"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
