// Package monitor renders a live view of the telemetry subsystem in the
// terminal. It subscribes to the server's WebSocket feed and shows the fleet
// as a table plus a scrolling event log.
package monitor

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dronewatch/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// snapshotMsg carries a full fleet snapshot from the feed.
type snapshotMsg struct{ telemetry.Snapshot }

// logMsg carries one event log line.
type logMsg struct{ line string }

// connMsg reports feed connection state.
type connMsg struct{ connected bool }

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// Monitor drives the TUI and accepts snapshots from the feed client.
type Monitor struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool

	prevHealth map[string]string
}

// New starts the bubbletea program and returns a Monitor ready to receive
// snapshots.
func New() *Monitor {
	m := &Monitor{
		done:       make(chan struct{}),
		prevHealth: make(map[string]string),
	}
	m.sendSignal.Store(true)
	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	m.program = p
	go func() {
		_ = p.Start()
		close(m.done)
		if m.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return m
}

// Push feeds one snapshot into the view and logs health transitions.
func (m *Monitor) Push(snap telemetry.Snapshot) {
	for _, d := range snap.Drones {
		prev, seen := m.prevHealth[d.ID]
		switch {
		case !seen:
			m.program.Send(logMsg{line: eventLine(snap.Time, d.ID, "tracking", colorBlue)})
		case prev != d.Health:
			c := healthColor(d.Health)
			m.program.Send(logMsg{line: eventLine(snap.Time, d.ID, prev+" -> "+d.Health, c)})
		}
		m.prevHealth[d.ID] = d.Health
	}
	m.program.Send(snapshotMsg{Snapshot: snap})
}

// SetConnected updates the connection indicator.
func (m *Monitor) SetConnected(connected bool) {
	m.program.Send(connMsg{connected: connected})
}

// Close shuts the TUI down and waits for terminal restore.
func (m *Monitor) Close() error {
	m.sendSignal.Store(false)
	if m.program != nil {
		m.program.Send(tea.Quit())
	}
	if m.done != nil {
		<-m.done
	}
	return nil
}

func eventLine(t float64, droneID, what, color string) string {
	ts := time.Now().Format(time.RFC3339)
	return fmt.Sprintf("%s[%s]%s %st=%.1f%s %sdrone=%s%s %s%s%s",
		colorGray, ts, colorReset,
		colorCyan, t, colorReset,
		colorWhite(), droneID, colorReset,
		color, what, colorReset)
}

func healthColor(health string) string {
	switch health {
	case telemetry.HealthOK:
		return colorGreen
	case telemetry.HealthWarning:
		return colorYellow
	case telemetry.HealthError:
		return colorRed
	default:
		return colorGray
	}
}

func colorWhite() string { return "\x1b[37m" }
