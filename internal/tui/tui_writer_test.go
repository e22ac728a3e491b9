package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dronefollow/internal/config"
	"dronefollow/internal/record"
)

// fakeProgram records messages instead of rendering.
type fakeProgram struct {
	msgs []tea.Msg
}

func (p *fakeProgram) Send(m tea.Msg) { p.msgs = append(p.msgs, m) }

func newTestWriter() (*Writer, *fakeProgram) {
	p := &fakeProgram{}
	done := make(chan struct{})
	close(done)
	return &Writer{program: p, done: done}, p
}

func TestWriter_SendsLogAndRowMessages(t *testing.T) {
	w, p := newTestWriter()

	err := w.Write(record.StatusRow{
		State:     "autonomous_tracking",
		Verdict:   "OK",
		Battery:   87.5,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(p.msgs) != 2 {
		t.Fatalf("expected log and row messages, got %d", len(p.msgs))
	}
	log, ok := p.msgs[0].(logMsg)
	if !ok {
		t.Fatalf("first message is %T, want logMsg", p.msgs[0])
	}
	if !strings.Contains(log.line, "autonomous_tracking") {
		t.Errorf("log line missing state: %q", log.line)
	}
	if _, ok := p.msgs[1].(rowMsg); !ok {
		t.Errorf("second message is %T, want rowMsg", p.msgs[1])
	}
}

func TestModel_KeepsBoundedLogBuffer(t *testing.T) {
	m := newModel(config.Default())
	var updated tea.Model = m
	for i := 0; i < maxLogLines+50; i++ {
		updated, _ = updated.(model).Update(logMsg{line: "x"})
	}
	if got := len(updated.(model).logs); got != maxLogLines {
		t.Errorf("log buffer grew to %d, want %d", got, maxLogLines)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := newModel(config.Default())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q must quit")
	}
}

func TestModel_TracksLatestRow(t *testing.T) {
	m := newModel(config.Default())
	updated, _ := m.Update(rowMsg{StatusRow: record.StatusRow{State: "hold", CommandSeq: 7}})
	view := updated.(model).View()
	if !strings.Contains(view, "state=hold") || !strings.Contains(view, "seq=7") {
		t.Errorf("view missing latest row summary")
	}
}
