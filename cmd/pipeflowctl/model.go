package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// statusMsg carries one decoded workflow-status tick into the bubbletea
// update loop.
type statusMsg workflowStatusMessage

// closedMsg signals the watcher goroutine stopped (connection closed or
// context cancelled).
type closedMsg struct{}

type model struct {
	projectID string
	updates   <-chan workflowStatusMessage
	states    map[string]string
	closed    bool
	spinner   spinner.Model
}

func newModel(projectID string, updates <-chan workflowStatusMessage) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return model{projectID: projectID, updates: updates, states: map[string]string{}, spinner: s}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), m.spinner.Tick)
}

func waitForUpdate(updates <-chan workflowStatusMessage) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return statusMsg(msg)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case statusMsg:
		m.states = msg.BlockStates
		return m, waitForUpdate(m.updates)
	case closedMsg:
		m.closed = true
		return m, nil
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("project "+m.projectID))

	if len(m.states) == 0 {
		fmt.Fprintf(&b, "%s waiting for status...\n", m.spinner.View())
	} else {
		ids := make([]string, 0, len(m.states))
		for id := range m.states {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "%s  %s\n", id, renderState(m.states[id]))
		}
	}

	if m.closed {
		fmt.Fprintln(&b, failureStyle.Render("\nconnection closed"))
	}
	fmt.Fprintln(&b, helpStyle.Render("q to quit"))
	return b.String()
}

func renderState(state string) string {
	switch state {
	case "SUCCESS", "FINISHED":
		return successStyle.Render(state)
	case "RUNNING", "SCHEDULED":
		return runningStyle.Render(state)
	case "FAILED":
		return failureStyle.Render(state)
	default:
		return idleStyle.Render(state)
	}
}
