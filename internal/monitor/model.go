package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"dronewatch/internal/telemetry"
)

const maxLogLines = 1000

type model struct {
	table        table.Model
	vp           viewport.Model
	logs         []string
	snap         telemetry.Snapshot
	connected    bool
	wrap         bool
	autoscroll   bool
	help         bool
	height       int
	headerHeight int
}

func newModel() model {
	cols := []table.Column{
		{Title: "Drone", Width: 18},
		{Title: "Lat", Width: 10},
		{Title: "Lon", Width: 11},
		{Title: "MSL", Width: 7},
		{Title: "AGL", Width: 7},
		{Title: "Hdg", Width: 6},
		{Title: "Spd", Width: 6},
		{Title: "Link", Width: 5},
		{Title: "Health", Width: 8},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(2))
	return model{
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case snapshotMsg:
		m.snap = msg.Snapshot
		m.refreshTable()
		m.resize()
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case connMsg:
		m.connected = msg.connected
	}
	return m, nil
}

func (m *model) refreshTable() {
	rows := make([]table.Row, 0, len(m.snap.Drones))
	for _, d := range m.snap.Drones {
		c := healthColor(d.Health)
		rows = append(rows, table.Row{
			d.ID,
			fmt.Sprintf("%.5f", d.Lat),
			fmt.Sprintf("%.5f", d.Lon),
			fmt.Sprintf("%.1f", d.AltMSL),
			fmt.Sprintf("%.1f", d.AltAGL),
			fmt.Sprintf("%.0f", d.Heading),
			fmt.Sprintf("%.1f", d.Speed),
			fmt.Sprintf("%.2f", d.LinkQuality),
			c + d.Health + colorReset,
		})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(len(rows) + 1)
}

func (m *model) resize() {
	m.headerHeight = lipgloss.Height(m.table.View())
	h := m.height - m.headerHeight - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *model) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m model) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.table.View(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m model) renderBottom() string {
	connColor := lipgloss.Color("9")
	if m.connected {
		connColor = lipgloss.Color("10")
	}
	scrollColor := lipgloss.Color("10")
	if !m.autoscroll {
		scrollColor = lipgloss.Color("9")
	}
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	connIndicator := lipgloss.NewStyle().Foreground(connColor).Render("●")
	scrollIndicator := lipgloss.NewStyle().Foreground(scrollColor).Render("●")
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	return fmt.Sprintf("t=%.1fs drones=%d | Feed %s | Scroll %s | Wrap %s | h help q quit",
		m.snap.Time, len(m.snap.Drones), connIndicator, scrollIndicator, wrapIndicator)
}

func (m model) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" s  toggle auto-scroll",
		" w  toggle event log wrap",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
