// concierge - branded terminal front end for one OpenAI Assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jeranaias/concierge/internal/assistant"
	"github.com/jeranaias/concierge/internal/cli"
	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/session"
	"github.com/jeranaias/concierge/internal/ui/chat"
	"github.com/jeranaias/concierge/internal/ui/components"
	"github.com/jeranaias/concierge/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdServe:
		cli.HandleServe(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	case cli.CmdUnknown:
		cli.HandleUnknown(args)
	default:
		runTUI(args)
	}
}

// sendToProgram delivers a message to the running program, if any.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// runTUI starts the full-screen terminal interface.
func runTUI(args cli.Args) {
	cfg := config.Global()

	// Logging goes to a file; writing to stderr would tear the alt
	// screen apart.
	if f, err := openLogFile(); err == nil {
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	if args.Verbose {
		log.Printf("TUI_START | version=%s commit=%s", Version, GitCommit)
	}

	theme := styles.NewTheme()
	client := newAssistantClient(cfg)
	ctrl := model.NewController(client)

	m := newAppModel(theme, cfg, ctrl, client)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	// Store program reference for async operations
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	m.runner = chat.NewRunner(p, ctrl)

	// Branding assets reload in place so kiosk deployments can edit
	// the .env, disclaimer, or logo without a restart.
	watcher, err := config.StartWatcher(cfg.WatchPaths(), 500*time.Millisecond, func(changed []string) {
		sendToProgram(brandingChangedMsg{paths: changed})
	})
	if err != nil {
		log.Printf("BRAND_WATCH | error=%v", err)
	}
	if watcher != nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running concierge: %v\n", err)
		os.Exit(1)
	}

	// Farewell in the deployment's voice once the alt screen restores.
	fmt.Println(config.Global().Branding.ExitText())
}

// openLogFile routes the standard logger into ~/.concierge/logs/.
func openLogFile() (*os.File, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	return tea.LogToFile(filepath.Join(logDir, "concierge.log"), "concierge")
}

// newAssistantClient constructs the provider client from configuration.
func newAssistantClient(cfg *config.Config) *assistant.Client {
	client := assistant.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.AssistantID)
	if cfg.OpenAI.BaseURL != "" {
		client = client.WithBaseURL(cfg.OpenAI.BaseURL)
	}
	if cfg.OpenAI.Model != "" {
		client = client.WithModel(cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Instructions != "" {
		client = client.WithInstructions(cfg.OpenAI.Instructions)
	}
	return client
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents the current application screen.
type State int

const (
	StateWelcome State = iota // Branded welcome screen
	StateChat                 // Conversation view
)

// AssistantCheckMsg reports the startup assistant identity probe.
type AssistantCheckMsg struct {
	Name  string
	Model string
	Err   error
}

// brandingChangedMsg reports edited branding assets from the watcher.
type brandingChangedMsg struct {
	paths []string
}

// appModel is the root Bubble Tea model. It owns the screen state, the
// welcome and chat surfaces, and the idle-timeout machinery; controller
// operations run through the Runner off the UI goroutine.
type appModel struct {
	state State

	width  int
	height int

	theme  *styles.Theme
	cfg    *config.Config
	ctrl   *model.Controller
	client *assistant.Client
	runner *chat.Runner

	welcome  components.Welcome
	chat     chat.Model
	overlay  components.SessionTimeoutOverlay
	sessions *session.Manager
}

// newAppModel creates the root model with branding applied.
func newAppModel(theme *styles.Theme, cfg *config.Config, ctrl *model.Controller, client *assistant.Client) *appModel {
	welcome := components.NewWelcome(theme)
	welcome.SetVersion(Version)
	welcome.SetBranding(cfg.Branding.Title(), cfg.Branding.WelcomeMessage, cfg.Branding.StartLabel())
	welcome.SetLogo(readAsset(cfg.Branding.LogoPath))
	welcome.SetDisclaimer(readAsset(cfg.Branding.DisclaimerPath))

	return &appModel{
		state:    StateWelcome,
		theme:    theme,
		cfg:      cfg,
		ctrl:     ctrl,
		client:   client,
		welcome:  welcome,
		chat:     chat.New(theme, ctrl),
		overlay:  components.NewSessionTimeoutOverlay(),
		sessions: session.NewManager(session.Config{Timeout: cfg.Session.IdleTimeout()}),
	}
}

// readAsset reads an optional branding asset, returning "" when the
// path is unset or unreadable.
func readAsset(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("BRAND_ASSET | path=%s error=%v", path, err)
		return ""
	}
	return string(data)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the surfaces, the assistant probe, and the idle ticker.
func (m *appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.welcome.Init(),
		m.chat.Init(),
		m.checkAssistant(),
	}
	if m.sessions.Enabled() {
		cmds = append(cmds, session.TickCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AssistantCheckMsg:
		if msg.Err != nil {
			log.Printf("ASSISTANT_CHECK | error=%v", msg.Err)
			return m, nil
		}
		return m.updateChat(chat.AssistantInfoMsg{Name: msg.Name, Model: msg.Model})

	case brandingChangedMsg:
		return m.handleBrandingChanged(msg)

	case chat.StartRequestMsg:
		return m.handleStartRequest()

	case chat.SubmitInputMsg:
		return m.handleSubmit(msg)

	case chat.ResetRequestMsg:
		return m.handleResetRequest()

	case chat.ResetDoneMsg:
		// The conversation is gone; the next visitor gets the welcome
		// screen and a fresh idle clock.
		m.state = StateWelcome
		m.sessions.Restart()
		return m.updateChat(msg)

	case session.TickMsg:
		return m.handleSessionTick()

	case session.TimeoutWarningMsg:
		return m.handleTimeoutWarning(msg)

	case session.TimeoutMsg:
		return m.handleTimeout()

	case components.SessionExtendedMsg:
		m.sessions.RecordActivity()
		return m, nil
	}

	// Everything else (stream, thread, spinner, blink) belongs to the
	// chat surface.
	return m.updateChat(msg)
}

// View renders the active screen. The timeout overlay paints over
// whichever screen is up.
func (m *appModel) View() string {
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	switch m.state {
	case StateChat:
		return m.chat.View()
	default:
		return m.welcome.View()
	}
}

// updateChat forwards a message to the chat surface.
func (m *appModel) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.chat.Update(msg)
	m.chat = updated.(chat.Model)
	return m, cmd
}

// =============================================================================
// SCREEN HANDLERS
// =============================================================================

// handleResize recalculates dimensions for every surface.
func (m *appModel) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.welcome.SetSize(msg.Width, msg.Height)
	m.overlay.SetSize(msg.Width, msg.Height)
	return m.updateChat(msg)
}

// handleKey routes keys by screen. The timeout overlay eats the first
// key while visible: during the warning it extends the session, after
// expiry it dismisses the notice.
func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	if m.state == StateWelcome {
		return m.handleWelcomeKey(msg)
	}

	m.sessions.RecordActivity()
	return m.updateChat(msg)
}

// handleWelcomeKey treats any key as the start control; quit keys still
// quit.
func (m *appModel) handleWelcomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	default:
		return m, startRequestCmd()
	}
}

func startRequestCmd() tea.Cmd {
	return func() tea.Msg {
		return chat.StartRequestMsg{}
	}
}

func noticeCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return chat.NoticeMsg{Text: text}
	}
}

// handleStartRequest switches to the chat screen and opens the session.
// The branding's begin message shows as the first notice.
func (m *appModel) handleStartRequest() (tea.Model, tea.Cmd) {
	m.state = StateChat
	m.sessions.RecordActivity()

	var cmds []tea.Cmd

	// The chat surface sizes itself lazily; hand it the current window.
	updated, cmd := m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.chat = updated.(chat.Model)
	cmds = append(cmds, cmd)

	if begin := config.Global().Branding.BeginMessage; begin != "" {
		cmds = append(cmds, noticeCmd(begin))
	}

	if !m.ctrl.Started() {
		runner := m.runner
		go func() {
			if runner != nil {
				runner.Start(context.Background())
			}
		}()
	}

	return m, tea.Batch(cmds...)
}

// handleSubmit relays a user turn to the controller off the UI goroutine.
func (m *appModel) handleSubmit(msg chat.SubmitInputMsg) (tea.Model, tea.Cmd) {
	m.sessions.RecordActivity()
	runner := m.runner
	go func() {
		if runner != nil {
			runner.Submit(context.Background(), msg.Content)
		}
	}()
	return m, nil
}

// handleResetRequest wipes the conversation unless a reply is mid-stream.
func (m *appModel) handleResetRequest() (tea.Model, tea.Cmd) {
	if m.chat.Streaming() {
		return m.updateChat(chat.NoticeMsg{Text: "A reply is still streaming. Wait for it to finish."})
	}
	runner := m.runner
	go func() {
		if runner != nil {
			runner.Reset()
		}
	}()
	return m, nil
}

// =============================================================================
// IDLE TIMEOUT
// =============================================================================

// handleSessionTick drives the idle countdown and mirrors the remaining
// time into the chat status bar once it is short enough to matter.
func (m *appModel) handleSessionTick() (tea.Model, tea.Cmd) {
	if !m.sessions.Enabled() {
		return m, nil
	}

	if m.overlay.IsVisible() && !m.overlay.IsExpired() {
		m.overlay.UpdateTime(m.sessions.RemainingTime())
	}

	if m.state == StateChat && m.sessions.ShouldShowWarning() {
		m.chat.SetIdleRemaining(m.sessions.RemainingTime())
	} else {
		m.chat.SetIdleRemaining(0)
	}

	return m, m.sessions.HandleTick()
}

// handleTimeoutWarning shows the still-there overlay. A stream in
// flight counts as activity; the guest is reading, not gone.
func (m *appModel) handleTimeoutWarning(msg session.TimeoutWarningMsg) (tea.Model, tea.Cmd) {
	if m.chat.Streaming() {
		m.sessions.RecordActivity()
		return m, nil
	}
	if m.state != StateChat {
		return m, nil
	}
	m.overlay.SetSize(m.width, m.height)
	m.overlay.Show(msg.Remaining)
	return m, nil
}

// handleTimeout wipes an abandoned conversation and returns to the
// welcome screen for the next visitor.
func (m *appModel) handleTimeout() (tea.Model, tea.Cmd) {
	if m.chat.Streaming() {
		m.sessions.RecordActivity()
		return m, nil
	}

	hadConversation := m.ctrl.Started() || m.ctrl.Conversation().MessageCount() > 0
	expiredID := m.sessions.SessionID()
	m.sessions.Restart()

	if !hadConversation {
		return m, nil
	}

	log.Printf("IDLE_RESET | session=%s", expiredID)

	m.state = StateWelcome
	m.overlay.SetSize(m.width, m.height)
	m.overlay.Show(0) // renders the post-reset notice

	runner := m.runner
	go func() {
		if runner != nil {
			runner.Reset()
		}
	}()
	return m, nil
}

// =============================================================================
// STARTUP PROBE AND BRANDING RELOAD
// =============================================================================

// checkAssistant fetches the assistant's identity once at startup so
// the status bar can show what the visitor is talking to.
func (m *appModel) checkAssistant() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if client == nil || !client.IsConfigured() {
			return AssistantCheckMsg{Err: assistant.ErrNotConfigured}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		a, err := client.RetrieveAssistant(ctx)
		if err != nil {
			return AssistantCheckMsg{Err: err}
		}

		modelName := client.Model()
		if modelName == "" {
			modelName = a.Model
		}
		return AssistantCheckMsg{Name: a.DisplayName(), Model: modelName}
	}
}

// handleBrandingChanged re-reads configuration and branding assets after
// the watcher reports edits.
func (m *appModel) handleBrandingChanged(msg brandingChangedMsg) (tea.Model, tea.Cmd) {
	// A plain load would keep the first process environment; edits to
	// the .env file only land with an overload.
	_ = godotenv.Overload()
	if err := config.ReloadGlobal(); err != nil {
		log.Printf("CONFIG_RELOAD | error=%v", err)
		return m, nil
	}

	cfg := config.Global()
	m.cfg = cfg

	b := cfg.Branding
	m.welcome.SetBranding(b.Title(), b.WelcomeMessage, b.StartLabel())
	m.welcome.SetLogo(readAsset(b.LogoPath))
	m.welcome.SetDisclaimer(readAsset(b.DisclaimerPath))
	m.chat.SetBranding(b.Title(), b.Prompt())

	wasEnabled := m.sessions.Enabled()
	m.sessions.SetTimeout(cfg.Session.IdleTimeout())

	var cmd tea.Cmd
	if !wasEnabled && m.sessions.Enabled() {
		cmd = session.TickCmd()
	}

	log.Printf("BRAND_RELOAD | files=%d", len(msg.paths))
	return m, cmd
}
