package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1F4E9C")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#C0392B")).
			Padding(0, 1).
			Margin(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	totalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#1F4E9C"))
	footerStyle  = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	title := titleStyle.Render("ringsniff - WiFi & Network Dashboard")

	packets := infoStyle.Render("Live Traffic Stream\n" + m.table.View())
	stats := infoStyle.Render(m.statsPanel())

	row := lipgloss.JoinHorizontal(lipgloss.Top, packets, stats)
	footer := footerStyle.Render(fmt.Sprintf("Listening on %s | Press q to quit.", m.listen))
	return lipgloss.JoinVertical(lipgloss.Left, title, row, footer)
}

func (m Model) statsPanel() string {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Top Sources"))
	b.WriteByte('\n')
	if len(m.talkers) == 0 {
		b.WriteString("Waiting for data...\n")
	}
	for _, t := range m.talkers {
		fmt.Fprintf(&b, "%-18s : %d\n", truncate(t.Key, 18), t.Count)
	}

	b.WriteByte('\n')
	b.WriteString(headingStyle.Render("Breakdown"))
	b.WriteByte('\n')
	for _, p := range m.protocols {
		fmt.Fprintf(&b, "%-10s : %d\n", p.Key, p.Count)
	}

	b.WriteByte('\n')
	b.WriteString(totalStyle.Render(fmt.Sprintf("Total: %s", formatBytes(m.totalBytes))))
	fmt.Fprintf(&b, "\nPackets: %d", m.received)
	if m.malformed > 0 {
		fmt.Fprintf(&b, " (%d malformed)", m.malformed)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-2] + ".."
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
