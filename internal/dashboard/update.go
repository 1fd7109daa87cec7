package dashboard

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/telemetry"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case TickMsg:
		m.refresh()
		return m, tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	m.talkers = m.stats.TopTalkers(topTalkers)
	m.protocols = m.stats.Protocols()
	m.totalBytes, m.received, m.malformed = m.stats.Totals()

	history := m.stats.History()
	rows := make([]table.Row, 0, len(history))
	// Newest first.
	for i := len(history) - 1; i >= 0; i-- {
		rows = append(rows, row(history[i]))
	}
	m.table.SetRows(rows)
}

func row(e Entry) table.Row {
	r := e.Record
	ts := e.At.Format("15:04:05")

	if r.Type == telemetry.Proto80211 {
		return table.Row{ts, wirelessLabel(r), r.SrcMAC, r.DestMAC, wirelessInfo(r), signal(r.SignalDBm)}
	}
	return table.Row{
		ts,
		r.Type,
		hostPort(r.SrcIP, r.SrcMAC, r.SrcPort),
		hostPort(r.DestIP, r.DestMAC, r.DestPort),
		fmt.Sprintf("Size: %d bytes", r.Size),
		"Wired",
	}
}

func wirelessLabel(r telemetry.Record) string {
	switch r.Subtype {
	case core.FrameKindProbeReq:
		return "PROBE"
	case "":
		return r.Type
	}
	return r.Subtype
}

func wirelessInfo(r telemetry.Record) string {
	switch r.SSID {
	case core.SSIDHandshake:
		return "KEY EXCHANGE!"
	case core.SSIDHidden:
		return fmt.Sprintf("[Hidden] (Ch:%d)", r.Channel)
	case core.SSIDBroadcast:
		return fmt.Sprintf("[Searching...] (Ch:%d)", r.Channel)
	case "":
		return fmt.Sprintf("(Ch:%d)", r.Channel)
	}
	return fmt.Sprintf("%s (Ch:%d)", r.SSID, r.Channel)
}

func signal(dbm int8) string {
	if dbm >= 0 {
		return "-"
	}
	return strconv.Itoa(int(dbm)) + " dBm"
}

func hostPort(ip, mac string, port uint16) string {
	if ip == "" {
		return mac
	}
	return ip + ":" + strconv.Itoa(int(port))
}
