// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/results"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for notices
}

// listenModel is the Bubble Tea model for the listen TUI
type listenModel struct {
	session  *listenSession
	connInfo string

	results []results.Result
	table   table.Model
	spinner spinner.Model
	stats   fox.ListenerStats

	eventLog      []eventLogEntry
	maxLogEntries int

	width    int
	height   int
	stopped  bool
	quitting bool
}

// Messages
type listenTickMsg time.Time

type resultMsg struct {
	result results.Result
	err    error
}

type blockErrorMsg struct {
	err error
}

type listenerDoneMsg struct {
	err error
}

var resultColumns = []table.Column{
	{Title: "ID", Width: 4},
	{Title: "Tag", Width: 6},
	{Title: "Name", Width: 18},
	{Title: "Fox 1", Width: 8},
	{Title: "Fox 2", Width: 8},
	{Title: "Fox 3", Width: 8},
	{Title: "Fox 4", Width: 8},
	{Title: "Fox 5", Width: 8},
	{Title: "Secrets", Width: 7},
}

func initialListenModel(session *listenSession, connInfo string, existing []results.Result) listenModel {
	t := table.New(
		table.WithColumns(resultColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("12"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("235")).
		Background(lipgloss.Color("12"))
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	m := listenModel{
		session:       session,
		connInfo:      connInfo,
		table:         t,
		spinner:       sp,
		stats:         session.listener.Stats(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         100,
		height:        30,
	}
	for _, r := range existing {
		m.results = append([]results.Result{r}, m.results...)
	}
	m.table.SetRows(m.rows())
	return m
}

func (m listenModel) Init() tea.Cmd {
	return tea.Batch(
		listenTickCmd(),
		m.spinner.Tick,
	)
}

func listenTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return listenTickMsg(t)
	})
}

// rows renders results newest first
func (m listenModel) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.results))
	for _, r := range m.results {
		name := r.Name
		if name == "" {
			name = "(unknown)"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(r.ID, 10),
			strconv.Itoa(r.TagID),
			name,
			r.FoxTimes[0], r.FoxTimes[1], r.FoxTimes[2], r.FoxTimes[3], r.FoxTimes[4],
			r.Secrets,
		})
	}
	return rows
}

func (m listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		tableHeight := m.height - 20
		if tableHeight < 5 {
			tableHeight = 5
		}
		m.table.SetHeight(tableHeight)

	case listenTickMsg:
		m.stats = m.session.listener.Stats()
		m.stats.CalculateRates()
		return m, listenTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("STORE FAILED: %v", msg.err), true)
			return m, nil
		}
		r := msg.result
		m.results = append([]results.Result{r}, m.results...)
		m.table.SetRows(m.rows())
		name := r.Name
		if name == "" {
			name = "unregistered tag"
		}
		if strings.Contains(r.Secrets, "n") {
			m.addLogEntry(fmt.Sprintf("Tag %d (%s): secrets %s", r.TagID, name, r.Secrets), true)
		} else {
			m.addLogEntry(fmt.Sprintf("Tag %d (%s): all foxes found", r.TagID, name), false)
		}
		m.stats = m.session.listener.Stats()

	case blockErrorMsg:
		m.addLogEntry(fmt.Sprintf("MALFORMED TAG: %v", msg.err), true)

	case listenerDoneMsg:
		m.stopped = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("LISTENER STOPPED: %v", msg.err), true)
		} else {
			m.addLogEntry("Listener stopped", false)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *listenModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m listenModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("FOXSTAT - TAG LISTENER"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s on %s | Event start %s | Press 'q' to quit",
		m.connInfo, foxName(m.session.id), m.session.portName, m.session.start.Format(time.DateTime))))
	s.WriteString("\n\n")

	if m.stopped {
		s.WriteString(errorStyle.Render("✗ Not listening"))
	} else {
		s.WriteString(m.spinner.View())
		s.WriteString(warningStyle.Render(" Waiting for tags..."))
	}
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Tags:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Records)),
		statsLabelStyle.Render("All found:"), statsValueStyle.Render(fmt.Sprintf("%d", st.FullMatches)),
		statsLabelStyle.Render("Missing secrets:"), func() string {
			if st.PartialMatches > 0 {
				return warningStyle.Render(fmt.Sprintf("%d", st.PartialMatches))
			}
			return statsValueStyle.Render("0")
		}(),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Malformed:"), func() string {
			if st.MalformedBlocks > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", st.MalformedBlocks))
			}
			return statsValueStyle.Render("0")
		}(),
		statsLabelStyle.Render("Lines:"), statsValueStyle.Render(fmt.Sprintf("%d", st.LinesRead)),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f tags/min", st.RecordRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Results
	s.WriteString(statsLabelStyle.Render("Results:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.table.View()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := 5
	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(boxStyle.Width(width).Render(logContent.String()))

	return s.String()
}

func runListenTUI(ctx context.Context, session *listenSession) error {
	existing, err := session.store.Results()
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen
	app.log.Quiet()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialListenModel(session, app.conn.info, existing)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go session.simulate(ctx, listenSimInterval)

	runErr := make(chan error, 1)
	go func() {
		err := session.listener.Run(ctx)
		runErr <- err
		p.Send(listenerDoneMsg{err: err})
	}()

	go func() {
		records := session.listener.Records()
		errs := session.listener.Errors()
		for records != nil || errs != nil {
			select {
			case rec, ok := <-records:
				if !ok {
					records = nil
					continue
				}
				result, err := session.record(rec)
				p.Send(resultMsg{result: result, err: err})
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				p.Send(blockErrorMsg{err: err})
			}
		}
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	cancel()
	return <-runErr
}
