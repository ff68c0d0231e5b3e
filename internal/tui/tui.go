// Package tui provides a Bubble Tea terminal user interface for suno-dl.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sunodl/suno-dl/internal/config"
	"github.com/sunodl/suno-dl/internal/download"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
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

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDiscovering
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// eventSink collects progress events from worker goroutines until the
// next UI tick drains them. Bubble Tea models must only change inside
// Update, so the manager callback never touches the model directly.
type eventSink struct {
	mu     sync.Mutex
	events []download.ProgressEvent
}

func (s *eventSink) add(e download.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) drain() []download.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	logs      []LogEntry
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	sink    *eventSink

	// Live counters, refreshed every tick
	snap        download.Snapshot
	summary     *download.Summary
	interrupted bool

	// Options
	thumbnails bool
	playlist   bool
	verbose    bool

	outputDir string

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel() Model {
	ti := textinput.New()
	ti.Placeholder = "Suno API bearer token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.SetValue(os.Getenv("SUNO_TOKEN"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:      StateInput,
		textInput:  ti,
		spinner:    sp,
		progress:   prog,
		logs:       make([]LogEntry, 0),
		ctx:        ctx,
		cancel:     cancel,
		thumbnails: true,
		outputDir:  config.DefaultSettings().OutputDir,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// RunDoneMsg is sent when the whole run finishes.
	RunDoneMsg struct {
		Summary *download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
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
			if m.state == StateDiscovering || m.state == StateDownloading {
				m.cancel()
				m.interrupted = true
				m.logs = appendLog(m.logs, LogEntry{
					Message: "Stopping: songs already in flight will finish",
					Level:   download.LevelWarning,
				})
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				return m.startRun()
			}

		case "t":
			if m.state == StateInput {
				m.thumbnails = !m.thumbnails
			}

		case "p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a fresh run
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.manager = nil
				m.sink = nil
				m.summary = nil
				m.snap = download.Snapshot{}
				m.interrupted = false
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue(os.Getenv("SUNO_TOKEN"))
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case RunDoneMsg:
		m.summary = msg.Summary
		m.drainEvents()
		switch {
		case msg.Err == nil:
			m.state = StateComplete
		case errors.Is(msg.Err, context.Canceled):
			// Interrupted runs still completed some songs; show what
			// landed instead of an error screen.
			m.interrupted = true
			m.state = StateComplete
		default:
			m.state = StateError
			m.err = msg.Err
		}

	case TickMsg:
		if m.manager != nil && (m.state == StateDiscovering || m.state == StateDownloading) {
			m.drainEvents()
			m.snap = m.manager.Progress()

			if m.state == StateDiscovering && m.snap.Pages > 0 {
				m.state = StateDownloading
			}

			var percent float64
			if m.snap.Discovered > 0 {
				percent = float64(m.snap.Processed) / float64(m.snap.Discovered)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
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

// startRun builds the manager from the current options and launches
// the download in the background.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	settings := config.DefaultSettings()
	settings.Token = strings.TrimSpace(m.textInput.Value())
	settings.EmbedArtwork = m.thumbnails
	settings.CreatePlaylist = m.playlist

	sink := &eventSink{}
	// Progress reaches the UI through the sink; a logger would only
	// scribble over the alt screen.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager, err := download.NewManager(settings, logger, sink.add)
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	m.manager = manager
	m.sink = sink
	m.outputDir = settings.OutputDir
	m.state = StateDiscovering

	ctx := m.ctx
	runCmd := func() tea.Msg {
		summary, err := manager.Run(ctx)
		return RunDoneMsg{Summary: summary, Err: err}
	}

	return m, tea.Batch(runCmd, m.tickProgress(), m.spinner.Tick)
}

// drainEvents moves buffered progress events into the visible log.
func (m *Model) drainEvents() {
	if m.sink == nil {
		return
	}
	for _, event := range m.sink.drain() {
		if event.Level == download.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = appendLog(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	}
}

func appendLog(logs []LogEntry, entry LogEntry) []LogEntry {
	logs = append(logs, entry)
	// Keep only the last 10 entries
	if len(logs) > 10 {
		logs = logs[len(logs)-10:]
	}
	return logs
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎵 Suno Library Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download your whole Suno library"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDiscovering:
		b.WriteString(m.viewDiscovering())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Paste your Suno API token:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	// Options
	thumbnailsCheck := "[ ]"
	if m.thumbnails {
		thumbnailsCheck = "[×]"
	}
	playlistCheck := "[ ]"
	if m.playlist {
		playlistCheck = "[×]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Embed cover art (t)\n", thumbnailsCheck))
	b.WriteString(fmt.Sprintf("  %s Create playlist (p)\n", playlistCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output directory: %s", m.outputDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDiscovering() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Discovering library size..."))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.snap.Pages > 0 {
		b.WriteString(accentStyle.Render(fmt.Sprintf("♪ %d pages of songs", m.snap.Pages)))
		b.WriteString("\n\n")
	}

	// Progress bar
	var percent float64
	if m.snap.Discovered > 0 {
		percent = float64(m.snap.Processed) / float64(m.snap.Discovered)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Songs: %d/%d | Downloaded: %d | Skipped: %d | Failed: %d | %.2f MB",
		m.snap.Processed,
		m.snap.Discovered,
		m.snap.Downloaded,
		m.snap.Skipped,
		m.snap.Failed,
		float64(m.snap.Bytes)/1024/1024,
	)))
	b.WriteString("\n")

	if m.interrupted {
		b.WriteString(warningStyle.Render("Stopping after the songs in flight finish..."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	heading := "✨ Download Complete!"
	if m.interrupted {
		heading = "⏹ Interrupted: partial download"
	}

	s := m.summary
	if s == nil {
		s = &download.Summary{}
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Pages: %d\n"+
			"Downloaded: %d\n"+
			"Skipped: %d\n"+
			"Failed: %d\n"+
			"Size: %.2f MB\n"+
			"Elapsed: %s",
		heading,
		s.Pages,
		s.Downloaded,
		s.Skipped,
		s.Failed,
		float64(s.Bytes)/1024/1024,
		s.Elapsed.Round(time.Second),
	))

	return box
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • t: cover art • p: playlist • v: verbose • esc: quit"
	case StateDiscovering, StateDownloading:
		return "esc: stop (songs in flight finish) • ctrl+c: abort"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
