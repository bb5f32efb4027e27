package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"moodlist/internal/models"
	"moodlist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	BuildingView
	ResultView
	ErrorView
)

type progressUpdateMsg tasks.ProgressUpdate

type buildCompleteMsg struct {
	result *models.BuildResult
	err    error
}

// Model represents the TUI application state: a prompt input that feeds a
// build, a live progress view while the build runs, and a result summary.
type Model struct {
	ctx     context.Context
	view    ViewState
	builder tasks.Builder
	target  models.PlaylistTarget

	prompt   textinput.Model
	spin     spinner.Model
	progress tasks.ProgressUpdate
	log      []string

	result *models.BuildResult
	err    error

	progressChan chan tasks.ProgressUpdate
	width        int
	height       int
}

// NewModel creates a new TUI model with the provided build pipeline.
func NewModel(ctx context.Context, builder tasks.Builder, target models.PlaylistTarget) *Model {
	prompt := textinput.New()
	prompt.Placeholder = "rainy sunday afternoon, coffee and a book"
	prompt.CharLimit = 280
	prompt.Width = 60
	prompt.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    PromptView,
		builder: builder,
		target:  target,
		prompt:  prompt,
		spin:    spin,
	}
}

// Init starts the cursor blink for the prompt input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case ResultView, ErrorView:
			return m.handleFinalKeys(msg)
		case BuildingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		m.log = append(m.log, m.progress.Message)
		return m, m.waitForProgress()

	case buildCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		if msg.err != nil {
			m.view = ErrorView
		} else {
			m.view = ResultView
		}
		m.progressChan = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case BuildingView:
		return m.renderBuilding()
	case ResultView:
		return m.renderResult()
	case ErrorView:
		return m.renderError()
	default:
		return ""
	}
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		if strings.TrimSpace(m.prompt.Value()) == "" {
			return m, nil
		}
		m.view = BuildingView
		m.log = nil
		return m, tea.Batch(m.spin.Tick, m.startBuild(), m.waitForProgress())
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) handleFinalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc", "enter":
		return m, tea.Quit
	case "r":
		m.view = PromptView
		m.result = nil
		m.err = nil
		m.prompt.SetValue("")
		m.prompt.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// startBuild runs the pipeline in the background, streaming progress through
// the channel the TUI drains via waitForProgress.
func (m *Model) startBuild() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 16)
	progressChan := m.progressChan
	prompt := m.prompt.Value()

	return func() tea.Msg {
		result, err := m.builder.Build(m.ctx, progressChan, prompt, m.target)
		close(progressChan)
		return buildCompleteMsg{result: result, err: err}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	if progressChan == nil {
		return nil
	}

	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPrompt() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Moodlist"))
	b.WriteString("\n\nDescribe a mood, get a playlist.\n\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")
	b.WriteString(styles.help.Render("enter: build • esc: quit"))

	return b.String()
}

func (m *Model) renderBuilding() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Building playlist"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n", m.spin.View(), m.progress.Message))

	start := 0
	if len(m.log) > 10 {
		start = len(m.log) - 10
	}
	for _, line := range m.log[start:] {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Playlist ready"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Added %s, skipped %s\n\n",
		styles.ok.Render(fmt.Sprintf("%d tracks", m.result.Added)),
		styles.warn.Render(fmt.Sprintf("%d", m.result.Skipped)),
	))

	for _, track := range m.result.Tracks {
		if track.Resolved() {
			b.WriteString(fmt.Sprintf("  %s %s - %s\n", styles.ok.Render("✓"), track.Suggestion.Artist, track.Suggestion.Title))
		} else {
			b.WriteString(fmt.Sprintf("  %s %s - %s\n", styles.err.Render("✗"), track.Suggestion.Artist, track.Suggestion.Title))
		}
	}

	if m.result.PlaylistURL != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", m.result.PlaylistURL))
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render("r: new prompt • q: quit"))

	return b.String()
}

func (m *Model) renderError() string {
	var b strings.Builder

	b.WriteString(styles.err.Render("Build failed"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%v\n\n", m.err))
	b.WriteString(styles.help.Render("r: try again • q: quit"))

	return b.String()
}
