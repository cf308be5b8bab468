// Package tui renders step responses in the terminal: a live view that
// plots samples as the telemetry task emits them, and a static plot for
// stored runs.
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/mecha04/motorlab/internal/rig"
)

const (
	plotWidth  = 70
	plotHeight = 15
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	plotStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Event is one telemetry sample, or the end of the run.
type Event struct {
	Time     int64
	Position int64
	Done     bool
	Result   *rig.Result
	Err      error
}

type Model struct {
	motor    string
	kp       float64
	periodMs int
	setpoint int64
	events   <-chan Event

	positions []float64
	lastTime  int64
	metrics   map[string]float64
	done      bool
	err       error
}

func NewModel(motor string, kp float64, periodMs int, setpoint int64, events <-chan Event) Model {
	return Model{
		motor:    motor,
		kp:       kp,
		periodMs: periodMs,
		setpoint: setpoint,
		events:   events,
	}
}

func waitEvent(ch <-chan Event) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m Model) Init() tea.Cmd {
	return waitEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}
	case Event:
		if msg.Done {
			m.done = true
			m.err = msg.Err
			if msg.Result != nil {
				m.metrics = msg.Result.Metrics
			}
			return m, nil
		}
		m.positions = append(m.positions, float64(msg.Position))
		m.lastTime = msg.Time
		return m, waitEvent(m.events)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("%s step response  kp=%g  period=%dms  setpoint=%d",
		m.motor, m.kp, m.periodMs, m.setpoint)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(m.positions) > 1 {
		chart := asciigraph.Plot(m.positions,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("position, counts (t=%dms)", m.lastTime)))
		b.WriteString(plotStyle.Render(chart))
	} else {
		b.WriteString(plotStyle.Render("waiting for samples..."))
	}
	b.WriteString("\n")

	if m.done {
		if m.err != nil {
			b.WriteString(labelStyle.Render("error: ") + valueStyle.Render(m.err.Error()))
		} else {
			b.WriteString(renderMetrics(m.metrics))
		}
		b.WriteString(helpStyle.Render("\nenter/q: quit"))
	} else {
		last := int64(0)
		if len(m.positions) > 0 {
			last = int64(m.positions[len(m.positions)-1])
		}
		b.WriteString(labelStyle.Render("position ") + valueStyle.Render(fmt.Sprintf("%d", last)) +
			labelStyle.Render("  error ") + valueStyle.Render(fmt.Sprintf("%d", m.setpoint-last)))
		b.WriteString(helpStyle.Render("\nq: quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func renderMetrics(metrics map[string]float64) string {
	if len(metrics) == 0 {
		return labelStyle.Render("no metrics")
	}
	var b strings.Builder
	for _, k := range []string{"overshoot_pct", "settling_time_s", "rise_time_s", "steady_state_error"} {
		v, ok := metrics[k]
		if !ok {
			continue
		}
		var s string
		switch {
		case math.IsInf(v, 1):
			s = "never"
		case math.IsNaN(v):
			s = "n/a"
		default:
			s = fmt.Sprintf("%.3g", v)
		}
		b.WriteString(labelStyle.Render(k+" ") + valueStyle.Render(s) + "  ")
	}
	return b.String()
}

type outcome struct {
	res *rig.Result
	err error
}

// Live runs a step response while plotting its samples as they arrive.
// The run function is started in the background and fed an observer.
// Samples are dropped rather than blocking the run if the view falls
// behind or the user quits early.
func Live(motor string, kp float64, periodMs int, setpoint int64,
	run func(obs rig.Observer) (*rig.Result, error)) (*rig.Result, error) {

	events := make(chan Event, 1024)
	outc := make(chan outcome, 1)
	go func() {
		res, err := run(func(t, pos int64) {
			select {
			case events <- Event{Time: t, Position: pos}:
			default:
			}
		})
		outc <- outcome{res: res, err: err}
		select {
		case events <- Event{Done: true, Result: res, Err: err}:
		default:
		}
	}()

	m := NewModel(motor, kp, periodMs, setpoint, events)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return nil, err
	}
	select {
	case o := <-outc:
		return o.res, o.err
	default:
		return nil, nil // quit before the run finished
	}
}
