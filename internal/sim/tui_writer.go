package sim

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// sampleMsg carries one tracking sample into the model.
type sampleMsg struct{ telemetry.TrackingSample }

// logMsg carries a formatted log line for the viewport.
type logMsg struct{ line string }

const maxLogLines = 500

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyles  = map[fleet.Status]lipgloss.Style{
		fleet.StatusIdle:        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		fleet.StatusInDelivery:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		fleet.StatusReturning:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		fleet.StatusCharging:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		fleet.StatusMaintenance: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
	fallbackStyle = lipgloss.NewStyle()
)

// TUIWriter renders live fleet telemetry in a bubbletea terminal UI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. When the
// user quits the UI, the process receives an interrupt so the service shuts
// down with it.
func NewTUIWriter() *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(), tea.WithAltScreen())
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

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(sample telemetry.TrackingSample) error {
	order := "-"
	if sample.OrderID != nil {
		order = strconv.FormatInt(*sample.OrderID, 10)
	}
	line := fmt.Sprintf("[%s] drone=%d order=%s lat=%.5f lng=%.5f spd=%.1f batt=%.1f status=%s",
		sample.Timestamp.Format(time.RFC3339),
		sample.DroneID, order, sample.Lat, sample.Lng,
		sample.SpeedKMH, sample.BatteryPct, sample.Status)
	w.program.Send(logMsg{line: line})
	w.program.Send(sampleMsg{sample})
	return nil
}

// WriteBatch outputs multiple samples.
func (w *TUIWriter) WriteBatch(samples []telemetry.TrackingSample) error {
	for _, s := range samples {
		_ = w.Write(s)
	}
	return nil
}

// Close stops the UI without signaling the process.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	table      table.Model
	vp         viewport.Model
	logs       []string
	latest     map[int64]telemetry.TrackingSample
	width      int
	height     int
	autoscroll bool
	wrap       bool
}

func newTUIModel() tuiModel {
	cols := []table.Column{
		{Title: "Drone", Width: 7},
		{Title: "Order", Width: 7},
		{Title: "Lat", Width: 10},
		{Title: "Lng", Width: 11},
		{Title: "Spd", Width: 6},
		{Title: "Batt", Width: 6},
		{Title: "Status", Width: 12},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))
	return tuiModel{
		table:      t,
		vp:         viewport.New(0, 0),
		latest:     make(map[int64]telemetry.TrackingSample),
		autoscroll: true,
		wrap:       true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.refreshViewport()
			}
		case "up", "k":
			m.vp.LineUp(1)
		case "down", "j":
			m.vp.LineDown(1)
		}
	case sampleMsg:
		m.latest[msg.DroneID] = msg.TrackingSample
		m.refreshTable()
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	}
	return m, nil
}

func (m *tuiModel) refreshTable() {
	ids := make([]int64, 0, len(m.latest))
	for id := range m.latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		s := m.latest[id]
		order := "-"
		if s.OrderID != nil {
			order = strconv.FormatInt(*s.OrderID, 10)
		}
		style, ok := statusStyles[s.Status]
		if !ok {
			style = fallbackStyle
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(id, 10),
			order,
			fmt.Sprintf("%.5f", s.Lat),
			fmt.Sprintf("%.5f", s.Lng),
			fmt.Sprintf("%.1f", s.SpeedKMH),
			fmt.Sprintf("%.1f", s.BatteryPct),
			style.Render(string(s.Status)),
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) refreshViewport() {
	content := ""
	for i, line := range m.logs {
		if i > 0 {
			content += "\n"
		}
		if m.wrap && m.vp.Width > 0 {
			line = wordwrap.String(line, m.vp.Width)
		}
		content += line
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) updateViewportHeight() {
	// Header line, table block, and a one-line footer.
	used := 1 + m.table.Height() + 2
	h := m.height - used
	if h < 3 {
		h = 3
	}
	m.vp.Height = h
}

func (m tuiModel) View() string {
	header := headerStyle.Render("dronedispatch fleet")
	footer := "q quit · w wrap · s autoscroll · j/k scroll"
	return header + "\n" + m.table.View() + "\n" + m.vp.View() + "\n" + footer
}
