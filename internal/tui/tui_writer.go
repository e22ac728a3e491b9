// Package tui renders flight status using a bubbletea TUI: a config table
// up top, a scrolling status log below.
package tui

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"dronefollow/internal/config"
	"dronefollow/internal/record"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a formatted status line for the viewport.
type logMsg struct{ line string }

// rowMsg carries the latest status row for the header.
type rowMsg struct{ record.StatusRow }

const maxLogLines = 500

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	violateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Writer renders status rows in a terminal UI.
type Writer struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewWriter starts a bubbletea program and returns a Writer. When the user
// quits the UI, the process receives an interrupt so the control loops
// shut down with it.
func NewWriter(cfg *config.Config) *Writer {
	w := &Writer{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements record.Writer.
func (w *Writer) Write(row record.StatusRow) error {
	verdictStyle := okStyle
	switch row.Verdict {
	case "WARNING":
		verdictStyle = warnStyle
	case "VIOLATION":
		verdictStyle = violateStyle
	}

	line := fmt.Sprintf("%s %s %s fwd=%.2f right=%.2f up=%.2f yaw=%.1f batt=%.1f alt=%.1f sats=%d",
		dimStyle.Render(row.Timestamp.Format(time.RFC3339)),
		headerStyle.Render(row.State),
		verdictStyle.Render(row.Verdict+"/"+row.VerdictKind),
		row.Forward, row.Right, row.Up, row.YawRate,
		row.Battery, row.Altitude, row.Satellites)
	if row.TargetLost {
		line += " " + warnStyle.Render("no-target")
	}
	w.program.Send(logMsg{line: line})
	w.program.Send(rowMsg{StatusRow: row})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *Writer) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type model struct {
	table      table.Model
	vp         viewport.Model
	logs       []string
	latest     record.StatusRow
	haveLatest bool
	wrap       bool
	autoscroll bool
	height     int
}

func newModel(cfg *config.Config) model {
	cols := []table.Column{
		{Title: "Limit", Width: 24},
		{Title: "Value", Width: 12},
		{Title: "Limit", Width: 24},
		{Title: "Value", Width: 12},
	}
	rows := []table.Row{
		{"Max Velocity (m/s)", fmt.Sprintf("%.1f", cfg.Limits.MaxVelocity), "Max Yaw Rate (deg/s)", fmt.Sprintf("%.1f", cfg.Limits.MaxYawRate)},
		{"Altitude (m)", fmt.Sprintf("%.1f-%.1f", cfg.Limits.MinAltitude, cfg.Limits.MaxAltitude), "Max Distance (m)", fmt.Sprintf("%.1f", cfg.Limits.MaxFollowingDistance)},
		{"Low Battery (%)", fmt.Sprintf("%.0f", cfg.Limits.LowBatteryThreshold), "Critical Battery (%)", fmt.Sprintf("%.0f", cfg.Limits.CriticalBatteryThreshold)},
		{"Min GPS Sats", fmt.Sprintf("%d", cfg.Limits.MinGPSSatellites), "Following Distance (m)", fmt.Sprintf("%.1f", cfg.Control.FollowingDistance)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return model{table: t, vp: viewport.New(0, 0), autoscroll: true}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refresh()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
		headerHeight := m.table.Height() + 4
		m.vp.Width = msg.Width
		m.vp.Height = msg.Height - headerHeight
		m.refresh()
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refresh()
	case rowMsg:
		m.latest = msg.StatusRow
		m.haveLatest = true
	}
	return m, nil
}

func (m *model) refresh() {
	content := strings.Join(m.logs, "\n")
	if m.wrap && m.vp.Width > 0 {
		content = wordwrap.String(content, m.vp.Width)
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m model) View() string {
	status := "waiting for first cycle"
	if m.haveLatest {
		status = fmt.Sprintf("state=%s verdict=%s seq=%d", m.latest.State, m.latest.Verdict, m.latest.CommandSeq)
	}
	header := headerStyle.Render("dronefollow") + "  " + status + "\n" +
		m.table.View() + "\n" +
		dimStyle.Render("q: quit  w: wrap  s: autoscroll") + "\n"
	return header + m.vp.View()
}
