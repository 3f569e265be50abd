// Package tui provides a Bubble Tea install monitor for mixlauncher.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/mixlauncher/internal/launcher"
	"github.com/handiism/mixlauncher/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#62C370")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInstalling
	StateLoader
	StateComplete
	StateError
)

// LogLevel classifies log lines.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   LogLevel
}

const maxLogs = 10

var loaderCycle = []model.LoaderKind{model.LoaderVanilla, model.LoaderFabric, model.LoaderQuilt, model.LoaderForge}

// Core is the part of launcher.Core the monitor drives.
type Core interface {
	Install(versionID string) *launcher.Operation
	InstallLoader(kind model.LoaderKind, gameVersion string) *launcher.Operation
	Events() <-chan launcher.Event
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	core      Core
	dataDir   string
	logs      []LogEntry
	err       error

	version string
	loader  int
	op      *launcher.Operation

	done        int
	total       int
	bytes       int64
	currentFile string
	succeeded   int
	failed      int
	installedID string

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(core Core, dataDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "1.20.1"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#62C370"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		core:      core,
		dataDir:   dataDir,
		logs:      make([]LogEntry, 0),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listen())
}

// Message types
type (
	// EventMsg wraps a launcher event.
	EventMsg struct {
		Event launcher.Event
	}

	// EventsClosedMsg is sent when the launcher has shut down.
	EventsClosedMsg struct{}
)

// listen waits for the next launcher event.
func (m Model) listen() tea.Cmd {
	if m.core == nil {
		return nil
	}
	events := m.core.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Loader returns the selected loader.
func (m Model) Loader() model.LoaderKind {
	return loaderCycle[m.loader]
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateInstalling || m.state == StateLoader {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.version = strings.TrimSpace(m.textInput.Value())
				m.state = StateInstalling
				m.log(LevelInfo, "installing "+m.version)
				m.op = m.core.Install(m.version)
				return m, m.spinner.Tick
			}

		case "tab":
			if m.state == StateInput {
				m.loader = (m.loader + 1) % len(loaderCycle)
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EventMsg:
		if cmd := m.handleEvent(msg.Event); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.listen())

	case EventsClosedMsg:
		if m.state == StateInstalling || m.state == StateLoader {
			m.state = StateError
			m.err = fmt.Errorf("launcher closed")
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleEvent(ev launcher.Event) tea.Cmd {
	if m.state != StateInstalling && m.state != StateLoader {
		return nil
	}

	switch ev := ev.(type) {
	case launcher.Progress:
		m.done, m.total, m.bytes, m.currentFile = ev.Done, ev.Total, ev.Bytes, ev.File
		var percent float64
		if ev.Total > 0 {
			percent = float64(ev.Done) / float64(ev.Total)
		}
		return m.progress.SetPercent(percent)

	case launcher.InstallFinished:
		m.succeeded, m.failed = ev.Succeeded, ev.Failed
		if !ev.OK {
			m.log(LevelError, ev.Message)
			m.state = StateError
			m.err = fmt.Errorf("install %s failed: %s", ev.VersionID, ev.Message)
			return nil
		}
		m.log(LevelSuccess, fmt.Sprintf("%s: %s", ev.VersionID, ev.Message))
		m.installedID = ev.VersionID

		if kind := m.Loader(); kind != model.LoaderVanilla {
			m.state = StateLoader
			m.log(LevelInfo, fmt.Sprintf("installing %s loader", kind))
			m.op = m.core.InstallLoader(kind, m.version)
			return nil
		}
		m.state = StateComplete
		return m.progress.SetPercent(1)

	case launcher.LoaderInstalled:
		if !ev.OK {
			m.log(LevelError, fmt.Sprintf("%s loader failed", ev.Loader))
			return nil
		}
		m.log(LevelSuccess, fmt.Sprintf("%s loader installed as %s", ev.Loader, ev.VersionID))
		m.installedID = ev.VersionID
		m.state = StateComplete

	case launcher.OperationFailed:
		m.log(LevelError, fmt.Sprintf("%s: %v", ev.Op, ev.Err))
		if m.state == StateLoader || ev.Op == "install" {
			m.state = StateError
			m.err = ev.Err
		}
	}
	return nil
}

func (m *Model) log(level LogLevel, message string) {
	m.logs = append(m.logs, LogEntry{Message: message, Level: level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *Model) cancel() {
	if m.op != nil {
		m.op.Cancel()
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.op = nil
	m.version = ""
	m.done, m.total, m.bytes, m.currentFile = 0, 0, 0, ""
	m.succeeded, m.failed = 0, 0
	m.installedID = ""
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("⛏ MixLauncher"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Install game versions and mod loaders"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInstalling, StateLoader:
		b.WriteString(m.viewInstalling())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter game version:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Loader:"))
	b.WriteString("\n")
	for i, kind := range loaderCycle {
		check := "( )"
		if i == m.loader {
			check = "(•)"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", check, kind))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Data directory: %s", m.dataDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInstalling() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.state == StateLoader {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Installing %s loader for %s...", m.Loader(), m.version)))
	} else {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Installing %s...", m.version)))
	}
	b.WriteString("\n\n")

	var percent float64
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Downloaded: %.2f MB",
		m.done,
		m.total,
		float64(m.bytes)/1024/1024,
	)))
	b.WriteString("\n")
	if m.currentFile != "" {
		b.WriteString(fileStyle.Render("  " + m.currentFile))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"✨ Install Complete!\n\n"+
			"Version: %s\n"+
			"Files: %d\n"+
			"Size: %.2f MB",
		m.installedID,
		m.succeeded,
		float64(m.bytes)/1024/1024,
	))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case LevelError:
			style = errorStyle
			prefix = "✗"
		case LevelWarning:
			style = warningStyle
			prefix = "!"
		case LevelSuccess:
			style = successStyle
			prefix = "✓"
		default:
			style = infoStyle
			prefix = "›"
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: install • tab: loader • esc: quit"
	case StateInstalling, StateLoader:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new install • q: quit"
	}
	return ""
}

// Run starts the TUI application on core.
func Run(core Core, dataDir string) error {
	p := tea.NewProgram(NewModel(core, dataDir), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
