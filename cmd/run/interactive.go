package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/objmodel/sim"
	"github.com/wippyai/objmodel/trace"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	violationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	unspecifiedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type stepperModel struct {
	err      error
	filename string
	tr       *trace.Trace
	ev       *sim.Evaluator
	results  []trace.Result
	next     int
	vp       viewport.Model
	ready    bool
}

func newStepperModel(filename string) *stepperModel {
	return &stepperModel{filename: filename}
}

type loadedMsg struct {
	err error
	tr  *trace.Trace
	ev  *sim.Evaluator
}

func (m *stepperModel) Init() tea.Cmd {
	return m.loadTrace
}

func (m *stepperModel) loadTrace() tea.Msg {
	f, err := os.Open(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	defer f.Close()

	tr, err := trace.Decode(f)
	if err != nil {
		return loadedMsg{err: err}
	}

	ev := sim.New(sim.Config{})
	if err := ev.Load(tr); err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{tr: tr, ev: ev}
}

// step evaluates the next operation. Malformed records surface as the
// model error and end the session.
func (m *stepperModel) step() {
	if m.tr == nil || m.next >= len(m.tr.Ops) {
		return
	}
	res, err := m.ev.Step(m.next, m.tr.Ops[m.next])
	if err != nil {
		m.err = err
		return
	}
	m.results = append(m.results, res)
	m.next++
}

// runToViolation steps until the next violation or the end of the trace.
func (m *stepperModel) runToViolation() {
	for m.tr != nil && m.next < len(m.tr.Ops) && m.err == nil {
		m.step()
		if n := len(m.results); n > 0 && m.results[n-1].Kind == trace.ResultViolation {
			return
		}
	}
}

func (m *stepperModel) reset() error {
	ev := sim.New(sim.Config{})
	if err := ev.Load(m.tr); err != nil {
		return err
	}
	m.ev = ev
	m.results = nil
	m.next = 0
	m.err = nil
	return nil
}

func (m *stepperModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "n", " ":
			m.step()
			m.syncViewport()

		case "r":
			m.runToViolation()
			m.syncViewport()

		case "R":
			if m.tr != nil {
				if err := m.reset(); err != nil {
					m.err = err
				}
				m.syncViewport()
			}

		case "up", "k":
			m.vp.SetYOffset(m.vp.YOffset - 1)

		case "down", "j":
			m.vp.SetYOffset(m.vp.YOffset + 1)
		}

	case tea.WindowSizeMsg:
		// Title and help lines take three rows.
		h := msg.Height - 3
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = h
		}
		m.syncViewport()

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tr = msg.tr
		m.ev = msg.ev
		m.syncViewport()
	}

	return m, nil
}

func (m *stepperModel) syncViewport() {
	if !m.ready || m.tr == nil {
		return
	}

	var b strings.Builder
	for i, rec := range m.tr.Ops {
		line := fmt.Sprintf("%3d  %s", i, formatRecord(rec))
		switch {
		case i == m.next:
			line = cursorStyle.Render("> " + line)
		case i < m.next:
			line = "  " + opStyle.Render(line)
		default:
			line = "  " + pendingStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(m.results) {
			b.WriteString("\n       ")
			b.WriteString(formatResult(m.results[i]))
		}
		b.WriteString("\n")
	}
	m.vp.SetContent(b.String())

	// Keep the cursor in view while stepping.
	if m.next > m.vp.Height/2 {
		m.vp.SetYOffset(m.next*2 - m.vp.Height/2)
	}
}

func formatRecord(rec trace.Record) string {
	switch rec.Op {
	case trace.OpCreateRegion:
		return fmt.Sprintf("create_region size=%d", rec.Size)
	case trace.OpCreateObject:
		return fmt.Sprintf("create_object r%d+%d %s", rec.Region, rec.Offset, rec.Type)
	case trace.OpDestroyObject:
		return fmt.Sprintf("destroy_object #%d", rec.Object)
	case trace.OpDestroyRegion:
		return fmt.Sprintf("destroy_region r%d", rec.Region)
	case trace.OpCast:
		return fmt.Sprintf("cast %s -> %s", formatPtr(rec.Ptr), rec.Type)
	case trace.OpAdd:
		return fmt.Sprintf("add %s %+d", formatPtr(rec.Ptr), rec.N)
	case trace.OpDereference:
		return fmt.Sprintf("dereference %s", formatPtr(rec.Ptr))
	}
	return string(rec.Op)
}

func formatPtr(ref *trace.PtrRef) string {
	if ref == nil {
		return "?"
	}
	if ref.Result != nil {
		return fmt.Sprintf("[%d]", *ref.Result)
	}
	return fmt.Sprintf("&#%d", ref.Object)
}

func formatResult(res trace.Result) string {
	switch res.Kind {
	case trace.ResultViolation:
		return violationStyle.Render(fmt.Sprintf("UB %s: %s", res.Violation, res.Detail))
	case trace.ResultUnspecified:
		return unspecifiedStyle.Render("unspecified")
	case trace.ResultOkPointer:
		return opStyle.Render(fmt.Sprintf("ptr r%d+%d %s", res.Pointer.Region, res.Pointer.Offset, res.Pointer.Type))
	}
	return opStyle.Render(fmt.Sprintf("ok %d", res.Value))
}

func (m *stepperModel) View() string {
	if m.err != nil {
		return violationStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.tr == nil || !m.ready {
		return "Loading trace..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Trace Stepper"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n/space step • r run to violation • R reset • ↑/↓ scroll • q quit"))
	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newStepperModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
