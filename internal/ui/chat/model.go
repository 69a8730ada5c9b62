// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/ui/components"
	"github.com/jeranaias/concierge/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State represents the chat surface's display state.
type State int

const (
	// StateReady means the input is focused and a new turn can be sent.
	StateReady State = iota
	// StateStreaming means a reply is arriving; input is paused.
	StateStreaming
	// StateError means an error display is up and wants dismissing.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateStreaming:
		return "Streaming"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// =============================================================================
// INLINE ENTRIES
// =============================================================================

// entryKind distinguishes the non-transcript items woven into the view.
type entryKind int

const (
	// entryNotice is a system note (reset confirmations, command output).
	entryNotice entryKind = iota
	// entryPartial is the preserved text of a reply whose stream failed.
	// It stays on screen but never joins the transcript.
	entryPartial
)

// inlineEntry is display-only content rendered between transcript
// messages. anchorID names the message the entry follows; an empty
// anchor renders before the first message.
type inlineEntry struct {
	anchorID string
	kind     entryKind
	text     string
	when     time.Time
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat surface.
//
// The model reads conversation state through the controller's snapshot
// methods and never mutates it. Mutations travel upward as request
// messages for the Runner to apply.
type Model struct {
	width  int
	height int

	controller *model.Controller

	// UI components
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	keys      KeyMap
	theme     *styles.Theme
	statusBar *components.StatusBar

	// Streaming display state
	state       State
	isThinking  bool
	streamStart time.Time
	liveText    string
	buffer      *StreamingBuffer

	// Display-only entries interleaved with the transcript
	entries []inlineEntry

	// Branding and assistant identity
	appTitle       string
	assistantName  string
	assistantModel string

	// Tab completion cycle for slash commands
	completionBase string
	completionIdx  int
	completionLast string

	// Error display
	errorDisplay components.ErrorDisplay
	showHelp     bool

	// Idle countdown mirrored into the status bar
	idleRemaining time.Duration
}

// New creates a chat model over the given controller. The controller
// must be non-nil; the theme may be nil, in which case one is detected.
func New(theme *styles.Theme, controller *model.Controller) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}

	cfg := config.Global()

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = cfg.Branding.Prompt()
	input.CharLimit = 4096
	input.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	sp.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	return Model{
		controller:   controller,
		theme:        theme,
		input:        input,
		viewport:     vp,
		spinner:      sp,
		keys:         DefaultKeyMap(),
		statusBar:    components.NewStatusBar(theme),
		buffer:       NewStreamingBuffer(),
		state:        StateReady,
		appTitle:     cfg.Branding.Title(),
		errorDisplay: components.NewErrorDisplay(),
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current display state.
func (m Model) State() State {
	return m.state
}

// Streaming reports whether a reply is currently arriving.
func (m Model) Streaming() bool {
	return m.state == StateStreaming
}

// SetBranding refreshes the title and input placeholder, typically
// after a configuration reload. Empty values keep the current text.
func (m *Model) SetBranding(title, prompt string) {
	if title != "" {
		m.appTitle = title
	}
	if prompt != "" {
		m.input.Placeholder = prompt
	}
}

// SetAssistantInfo records the assistant's display name and model.
func (m *Model) SetAssistantInfo(name, modelName string) {
	m.assistantName = name
	m.assistantModel = modelName
}

// SetIdleRemaining mirrors the session idle countdown into the status
// bar. Zero or negative hides the countdown.
func (m *Model) SetIdleRemaining(d time.Duration) {
	m.idleRemaining = d
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		// Only animate while waiting for the first fragment.
		if m.state == StateStreaming && m.isThinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamFragmentMsg:
		return m.handleStreamFragment(msg)

	case StreamTickMsg:
		return m.handleStreamTick(msg)

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case ThreadCreatedMsg:
		return m.handleThreadCreated(msg)

	case ThreadErrorMsg:
		return m.handleThreadError(msg)

	case ResetDoneMsg:
		return m.handleResetDone(msg)

	case AssistantInfoMsg:
		m.assistantName = msg.Name
		m.assistantModel = msg.Model
		return m, nil

	case NoticeMsg:
		m.pushNotice(msg.Text)
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case ErrorMsg:
		return m.handleError(msg)

	case ErrorDismissMsg:
		return m.dismissError()

	case components.ErrorAutoDismissMsg:
		var cmd tea.Cmd
		m.errorDisplay, cmd = m.errorDisplay.Update(msg)
		if m.state == StateError && !m.errorDisplay.IsVisible() {
			m.state = StateReady
			m.input.Focus()
			return m, tea.Batch(cmd, textinput.Blink)
		}
		return m, cmd

	case components.ErrorCopyRequestMsg:
		text := msg.Title
		if msg.Message != "" {
			text += "\n" + msg.Message
		}
		if msg.Context != "" {
			text += "\n" + msg.Context
		}
		if err := copyToClipboard(text); err != nil {
			m.pushNotice("Clipboard unavailable: " + err.Error())
		} else {
			m.pushNotice("Error details copied to clipboard.")
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	// Everything else (cursor blink, paste events) flows through the
	// input component.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

// handleResize recalculates component dimensions for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Line counts of renderHeader, renderInput, and renderStatusBar.
	// renderChat re-measures and corrects if they drift.
	const (
		headerHeight    = 1
		inputAreaHeight = 3
		statusBarHeight = 1
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	m.viewport.Width = m.width
	m.viewport.Height = viewportHeight

	inputWidth := m.width - 6 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}
	m.errorDisplay.SetSize(m.width, m.height)

	m.updateViewport()

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey processes keyboard input according to the current state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit always works, whatever state the surface is in.
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The help overlay swallows the next keypress.
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.state == StateError {
		return m.handleErrorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Reset):
		return m, requestReset()

	case key.Matches(msg, m.keys.Clear):
		m.clearNotices()
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.state == StateStreaming {
		// Typing is paused until the reply lands; navigation handled
		// above still works.
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submitInput()
	}

	if key.Matches(msg, m.keys.Complete) {
		return m.completeCommand()
	}

	// Any other keystroke ends a completion cycle.
	m.resetCompletion()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleErrorKey processes keys while an error display is up.
func (m Model) handleErrorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", " ":
		return m.dismissError()
	}

	// Let the display handle its own keys (copy to clipboard).
	var cmd tea.Cmd
	m.errorDisplay, cmd = m.errorDisplay.Update(msg)
	if !m.errorDisplay.IsVisible() {
		m.state = StateReady
		m.input.Focus()
		return m, tea.Batch(cmd, textinput.Blink)
	}
	return m, cmd
}

// dismissError hides the error display and hands focus back to the input.
func (m Model) dismissError() (tea.Model, tea.Cmd) {
	m.errorDisplay.Hide()
	if m.state == StateError {
		m.state = StateReady
	}
	m.input.Focus()
	return m, textinput.Blink
}

// =============================================================================
// HELPERS
// =============================================================================

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

// pushNotice appends a system note after the newest transcript message.
func (m *Model) pushNotice(text string) {
	m.entries = append(m.entries, inlineEntry{
		anchorID: m.lastAnchorID(),
		kind:     entryNotice,
		text:     text,
		when:     time.Now(),
	})
}

// pushPartial preserves the text of an interrupted reply.
func (m *Model) pushPartial(text string, when time.Time) {
	m.entries = append(m.entries, inlineEntry{
		anchorID: m.lastAnchorID(),
		kind:     entryPartial,
		text:     text,
		when:     when,
	})
}

// clearNotices drops system notes. Preserved partial replies stay.
func (m *Model) clearNotices() {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.kind == entryPartial {
			kept = append(kept, e)
		}
	}
	m.entries = kept
}

// lastAnchorID returns the ID of the newest settled transcript message,
// or empty when the transcript has none.
func (m Model) lastAnchorID() string {
	if m.controller == nil {
		return ""
	}
	msgs := m.controller.Conversation().Transcript()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsStreaming {
			return msgs[i].ID
		}
	}
	return ""
}
