package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	refreshEvery = 250 * time.Millisecond
	topTalkers   = 10
)

// TickMsg triggers a refresh from Stats.
type TickMsg time.Time

// Model is the bubbletea model of the dashboard.
type Model struct {
	stats  *Stats
	listen string
	table  table.Model

	talkers    []Count
	protocols  []Count
	totalBytes int64
	received   int64
	malformed  int64
}

// NewModel creates a dashboard over stats. listen is shown in the footer.
func NewModel(stats *Stats, listen string) Model {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Type", Width: 10},
		{Title: "Source", Width: 24},
		{Title: "Destination", Width: 24},
		{Title: "Info / SSID", Width: 30},
		{Title: "Signal", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(DefaultHistory),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		stats:  stats,
		listen: listen,
		table:  t,
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
