// Package tui provides the BubbleTea-based route menu.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/store"
)

// Activator switches routes on the running daemon.
type Activator interface {
	Activate(route model.Route) error
}

// Model is the menu model.
type Model struct {
	activator Activator
	loadState func() (*store.SharedState, error)

	state  *store.SharedState
	cursor int

	keys     KeyMap
	help     help.Model
	showHelp bool
	width    int

	// Status message
	statusMsg string
	statusErr bool

	// State file change subscription
	refreshCh <-chan *store.SharedState
}

// New creates a new menu model. loadState reads the current indicator
// state; refreshCh, if not nil, delivers state changes.
func New(activator Activator, loadState func() (*store.SharedState, error), refreshCh <-chan *store.SharedState) Model {
	return Model{
		activator: activator,
		loadState: loadState,
		state:     store.DefaultSharedState(),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		refreshCh: refreshCh,
	}
}

type stateMsg struct {
	state *store.SharedState
	err   error
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type activateResultMsg struct {
	route model.Route
	err   error
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load, m.watchForChanges)
}

func (m Model) load() tea.Msg {
	if m.loadState == nil {
		return nil
	}
	state, err := m.loadState()
	return stateMsg{state: state, err: err}
}

// watchForChanges waits for the next state file change.
func (m Model) watchForChanges() tea.Msg {
	if m.refreshCh == nil {
		return nil
	}
	state, ok := <-m.refreshCh
	if !ok {
		return nil
	}
	return stateMsg{state: state}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		if msg.err != nil {
			return m, status("Failed to read state: "+msg.err.Error(), true)
		}
		if msg.state != nil {
			m.state = msg.state
		}
		if m.refreshCh != nil {
			return m, m.watchForChanges
		}
		return m, nil

	case activateResultMsg:
		if msg.err != nil {
			return m, status(msg.err.Error(), true)
		}
		return m, tea.Batch(status("Switching to "+msg.route.Label(), false), m.load)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(model.Routes)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		return m, m.activate(model.Routes[m.cursor])
	case key.Matches(msg, m.keys.Internal):
		m.cursor = 0
		return m, m.activate(model.RouteInternal)
	case key.Matches(msg, m.keys.Headphone):
		m.cursor = 1
		return m, m.activate(model.RouteHeadphone)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load
	}
	return m, nil
}

// activate returns a command that asks the daemon to switch route.
// Checked entries are insensitive and yield no command.
func (m Model) activate(route model.Route) tea.Cmd {
	if !m.state.Present {
		return status("Headphones are not present", true)
	}
	if m.state.Checked(route) {
		return nil
	}
	if m.activator == nil {
		return status("hpswitchd is not reachable", true)
	}
	activator := m.activator
	return func() tea.Msg {
		return activateResultMsg{route: route, err: activator.Activate(route)}
	}
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	insensitiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// View renders the menu.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(indicator.Name))
	b.WriteString("\n")

	if !m.state.Present {
		b.WriteString(mutedStyle.Render("Headphones not present"))
		b.WriteString("\n")
	} else {
		for i, route := range model.Routes {
			b.WriteString(m.renderEntry(i, route))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.statusMsg))
	} else {
		b.WriteString(m.help.View(m.keys))
	}

	return b.String()
}

func (m Model) renderEntry(index int, route model.Route) string {
	pointer := "  "
	if index == m.cursor {
		pointer = cursorStyle.Render("> ")
	}

	checked := m.state.Checked(route)
	ornament := "  "
	if checked {
		ornament = "✓ "
	}

	label := route.Label()
	if checked {
		label = insensitiveStyle.Render(label)
	}
	return pointer + ornament + label
}

// RunOptions configures the TUI.
type RunOptions struct {
	Activator Activator
	StatePath string // State file to read and watch
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	loadState := func() (*store.SharedState, error) {
		return store.LoadSharedStateFrom(opts.StatePath)
	}

	if err := os.MkdirAll(filepath.Dir(opts.StatePath), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	refreshCh := make(chan *store.SharedState, 1)
	watcher, err := store.NewFileWatcher(opts.StatePath, func(state *store.SharedState) {
		// Keep only the latest state
		select {
		case <-refreshCh:
		default:
		}
		refreshCh <- state
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create file watcher: %v\n", err)
	} else if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to start file watcher: %v\n", err)
	}

	m := New(opts.Activator, loadState, refreshCh)
	p := tea.NewProgram(m)

	_, err = p.Run()

	if watcher != nil {
		_ = watcher.Stop()
	}

	return err
}
