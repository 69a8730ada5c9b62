// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the concierge conversation over a small HTTP
// API so an external page can render the chat front-end.
//
// Endpoints:
//   - GET  /health          - liveness plus assistant reachability
//   - GET  /api/branding    - deployment display text and disclaimer
//   - GET  /api/transcript  - ordered conversation transcript
//   - POST /api/start       - open the session thread
//   - POST /api/reset       - wipe the conversation for the next visitor
//   - POST /api/chat        - submit one user turn, reply streamed as SSE
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/concierge/internal/assistant"
	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/session"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address used when configuration leaves
	// server.addr empty.
	DefaultAddr = ":8080"

	// MaxMessageLength is the maximum length for a single chat message.
	MaxMessageLength = 32 * 1024

	// MaxRequestBodySize is the maximum size for a request body. Chat
	// requests carry one message, so this stays small.
	MaxRequestBodySize = 64 * 1024

	// assistantProbeTimeout bounds the health check's API round trip.
	assistantProbeTimeout = 2 * time.Second

	// janitorInterval is how often the idle janitor evaluates the session.
	janitorInterval = time.Second

	// Version is the API version reported by /health.
	Version = "0.1.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks API usage counters. All fields are updated
// atomically; GetStats returns a consistent-enough copy for reporting.
type ServerStats struct {
	TotalRequests int64     `json:"total_requests"`
	ChatRequests  int64     `json:"chat_requests"`
	Starts        int64     `json:"starts"`
	Resets        int64     `json:"resets"`
	IdleResets    int64     `json:"idle_resets"`
	StreamErrors  int64     `json:"stream_errors"`
	StartTime     time.Time `json:"start_time"`
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{
		StartTime: time.Now(),
	}
}

// RecordRequest counts one API request regardless of outcome.
func (s *ServerStats) RecordRequest() {
	atomic.AddInt64(&s.TotalRequests, 1)
}

// RecordChat counts one submitted user turn.
func (s *ServerStats) RecordChat() {
	atomic.AddInt64(&s.ChatRequests, 1)
}

// RecordStart counts one opened session.
func (s *ServerStats) RecordStart() {
	atomic.AddInt64(&s.Starts, 1)
}

// RecordReset counts one explicit conversation reset.
func (s *ServerStats) RecordReset() {
	atomic.AddInt64(&s.Resets, 1)
}

// RecordIdleReset counts one conversation wiped by the idle janitor.
func (s *ServerStats) RecordIdleReset() {
	atomic.AddInt64(&s.IdleResets, 1)
}

// RecordStreamError counts one interrupted reply stream.
func (s *ServerStats) RecordStreamError() {
	atomic.AddInt64(&s.StreamErrors, 1)
}

// GetStats returns a copy of the current stats.
func (s *ServerStats) GetStats() ServerStats {
	return ServerStats{
		TotalRequests: atomic.LoadInt64(&s.TotalRequests),
		ChatRequests:  atomic.LoadInt64(&s.ChatRequests),
		Starts:        atomic.LoadInt64(&s.Starts),
		Resets:        atomic.LoadInt64(&s.Resets),
		IdleResets:    atomic.LoadInt64(&s.IdleResets),
		StreamErrors:  atomic.LoadInt64(&s.StreamErrors),
		StartTime:     s.StartTime,
	}
}

// Uptime returns the server uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP surface over the concierge conversation. It owns
// no conversation state of its own: every endpoint reads or drives the
// single controller it was constructed with.
type Server struct {
	addr   string
	router *http.ServeMux
	server *http.Server

	cfg      *config.Config
	ctrl     *model.Controller
	client   *assistant.Client
	sessions *session.Manager
	stats    *ServerStats
	logger   *log.Logger
	cors     *CORSConfig

	janitorStop chan struct{}
	stopOnce    sync.Once

	mu sync.RWMutex
}

// NewServer creates a server over the given configuration and
// conversation controller.
func NewServer(cfg *config.Config, ctrl *model.Controller) *Server {
	addr := cfg.Server.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:        addr,
		router:      http.NewServeMux(),
		cfg:         cfg,
		ctrl:        ctrl,
		sessions:    session.NewManager(session.Config{Timeout: cfg.Session.IdleTimeout()}),
		stats:       NewServerStats(),
		logger:      log.Default(),
		cors:        DefaultCORSConfig(),
		janitorStop: make(chan struct{}),
	}

	// An abandoned chat is wiped for the next visitor, same as the
	// terminal surfaces.
	s.sessions.SetTimeoutCallback(s.onIdleTimeout)

	s.setupRoutes()
	return s
}

// WithAssistantClient attaches the API client used for health probes.
func (s *Server) WithAssistantClient(client *assistant.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	return s
}

// WithLogger sets the destination for request and lifecycle logs.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
	return s
}

// WithCORS overrides the CORS policy for deployments that serve the
// page from a non-localhost origin.
func (s *Server) WithCORS(cors *CORSConfig) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cors = cors
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	s.router.HandleFunc("GET /api/branding", s.handleBranding)
	s.router.HandleFunc("GET /api/transcript", s.handleTranscript)
	s.router.HandleFunc("POST /api/start", s.handleStart)
	s.router.HandleFunc("POST /api/reset", s.handleReset)
	s.router.HandleFunc("POST /api/chat", s.handleChat)
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// FragmentEvent is the payload of each SSE data frame while a reply
// streams.
type FragmentEvent struct {
	Text string `json:"text"`
}

// DoneEvent is the payload of the terminal "done" SSE event. Reply is
// the full concatenation of every fragment in arrival order.
type DoneEvent struct {
	ID           string `json:"id"`
	Reply        string `json:"reply"`
	ThreadID     string `json:"thread_id"`
	MessageCount int    `json:"message_count"`
}

// ErrorEvent is the payload of the "error" SSE event sent when a
// stream is interrupted. Partial carries whatever text was already
// delivered; it is not part of the transcript.
type ErrorEvent struct {
	Message string `json:"message"`
	Partial string `json:"partial,omitempty"`
}

// StartResponse is the body of a successful POST /api/start.
type StartResponse struct {
	ThreadID string `json:"thread_id"`
	Greeting string `json:"greeting,omitempty"`
}

// TranscriptMessage is one turn in the transcript payload.
type TranscriptMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptResponse is the body of GET /api/transcript.
type TranscriptResponse struct {
	Started      bool                `json:"started"`
	ThreadID     string              `json:"thread_id,omitempty"`
	MessageCount int                 `json:"message_count"`
	Messages     []TranscriptMessage `json:"messages"`
}

// BrandingResponse is the body of GET /api/branding. The page renders
// every label from here, so a deployment rebrands without touching the
// front-end.
type BrandingResponse struct {
	PageTitle      string `json:"page_title"`
	WelcomeMessage string `json:"welcome_message,omitempty"`
	BeginMessage   string `json:"begin_message,omitempty"`
	UserPrompt     string `json:"user_prompt"`
	StartButton    string `json:"start_button"`
	ExitMessage    string `json:"exit_message"`
	Disclaimer     string `json:"disclaimer,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	AssistantStatus string `json:"assistant_status"`
	AssistantName   string `json:"assistant_name,omitempty"`
	Started         bool   `json:"conversation_started"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	TotalRequests   int64  `json:"total_requests"`
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "ok",
		Version: Version,
		Started: s.ctrl.Started(),
	}

	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil || !client.IsConfigured() {
		health.AssistantStatus = "not_configured"
		health.Status = "degraded"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), assistantProbeTimeout)
		defer cancel()

		if a, err := client.RetrieveAssistant(ctx); err == nil {
			health.AssistantStatus = "ok"
			health.AssistantName = a.DisplayName()
		} else {
			health.AssistantStatus = "unreachable"
			health.Status = "degraded"
		}
	}

	health.UptimeSeconds = int64(s.stats.Uptime().Seconds())
	health.TotalRequests = s.stats.GetStats().TotalRequests

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// BRANDING HANDLER
// ============================================================================

// handleBranding handles GET /api/branding.
func (s *Server) handleBranding(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRequest()

	b := s.cfg.Branding
	resp := BrandingResponse{
		PageTitle:      b.Title(),
		WelcomeMessage: b.WelcomeMessage,
		BeginMessage:   b.BeginMessage,
		UserPrompt:     b.Prompt(),
		StartButton:    b.StartLabel(),
		ExitMessage:    b.ExitText(),
	}

	// The disclaimer is read per request so an edited file shows up
	// without a restart.
	if b.DisclaimerPath != "" {
		data, err := os.ReadFile(b.DisclaimerPath)
		if err != nil {
			s.logf("BRANDING_DISCLAIMER | path=%s error=%v", b.DisclaimerPath, err)
		} else {
			resp.Disclaimer = string(data)
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// TRANSCRIPT HANDLER
// ============================================================================

// handleTranscript handles GET /api/transcript.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRequest()

	conv := s.ctrl.Conversation()
	transcript := conv.Transcript()

	messages := make([]TranscriptMessage, 0, len(transcript))
	for _, msg := range transcript {
		messages = append(messages, TranscriptMessage{
			Role:      msg.Role.String(),
			Content:   msg.GetDisplayContent(),
			Timestamp: msg.Timestamp,
		})
	}

	s.writeJSON(w, http.StatusOK, TranscriptResponse{
		Started:      conv.Started(),
		ThreadID:     conv.ThreadID(),
		MessageCount: len(messages),
		Messages:     messages,
	})
}

// ============================================================================
// START AND RESET HANDLERS
// ============================================================================

// handleStart handles POST /api/start.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRequest()

	if s.ctrl.Streaming() {
		s.writeError(w, http.StatusConflict, "a reply is still streaming")
		return
	}

	if err := s.ctrl.Start(r.Context()); err != nil {
		status := errorStatus(err)
		s.logf("START_ERROR | status=%d error=%v", status, err)
		s.writeError(w, status, clientMessage(err))
		return
	}

	s.sessions.RecordActivity()
	s.stats.RecordStart()

	threadID := s.ctrl.Conversation().ThreadID()
	s.logf("CONVERSATION_START | thread=%s", threadID)

	s.writeJSON(w, http.StatusOK, StartResponse{
		ThreadID: threadID,
		Greeting: s.cfg.Branding.BeginMessage,
	})
}

// handleReset handles POST /api/reset. Reset is idempotent: resetting
// an unstarted conversation succeeds and changes nothing.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRequest()

	if s.ctrl.Streaming() {
		s.writeError(w, http.StatusConflict, "a reply is still streaming")
		return
	}

	s.ctrl.Reset()
	s.sessions.Restart()
	s.stats.RecordReset()
	s.logf("CONVERSATION_RESET | client_ip=%s", GetClientIP(r))

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRequest()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		// Full details stay in the log; the client gets a generic message.
		s.logf("CHAT_BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.writeError(w, http.StatusBadRequest, "message text is required")
		return
	}
	if len(text) > MaxMessageLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("message exceeds maximum length of %d", MaxMessageLength))
		return
	}

	if !s.ctrl.Started() {
		s.writeError(w, http.StatusConflict, "conversation not started")
		return
	}
	if s.ctrl.Streaming() {
		s.writeError(w, http.StatusConflict, "a reply is still streaming")
		return
	}

	s.streamReply(w, r, text)
}

// streamReply runs one user turn and streams the assistant's reply as
// SSE: a plain data frame per fragment, then "done" with the full
// concatenation, or "error" if the run is interrupted.
func (s *Server) streamReply(w http.ResponseWriter, r *http.Request, text string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s.sessions.RecordActivity()
	s.stats.RecordChat()

	start := time.Now()
	responseID := generateResponseID()

	reply, err := s.ctrl.Submit(r.Context(), text, func(fragment string) {
		s.sendEvent(w, flusher, "", FragmentEvent{Text: fragment})
	})
	if err != nil {
		s.stats.RecordStreamError()
		if errors.Is(err, context.Canceled) {
			// The client went away mid-stream; nobody is listening.
			s.logf("CHAT_ABORTED | id=%s error=%v", responseID, err)
			return
		}
		s.logf("CHAT_ERROR | id=%s error=%v", responseID, err)
		s.sendEvent(w, flusher, "error", ErrorEvent{
			Message: clientMessage(err),
			Partial: reply,
		})
		return
	}

	conv := s.ctrl.Conversation()
	s.sendEvent(w, flusher, "done", DoneEvent{
		ID:           responseID,
		Reply:        reply,
		ThreadID:     conv.ThreadID(),
		MessageCount: conv.MessageCount(),
	})

	s.logf("CHAT_COMPLETE | id=%s chars=%d latency=%dms",
		responseID, len(reply), time.Since(start).Milliseconds())
}

// sendEvent writes one SSE frame. An empty event name sends a plain
// data frame, which EventSource delivers as a "message".
func (s *Server) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// ============================================================================
// IDLE JANITOR
// ============================================================================

// runJanitor evaluates the idle session once per second until the
// server shuts down.
func (s *Server) runJanitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			s.sessions.Check()
		}
	}
}

// onIdleTimeout wipes the abandoned conversation for the next visitor.
// A reply still streaming counts as activity; the wipe waits for the
// next idle period.
func (s *Server) onIdleTimeout() {
	if s.ctrl.Streaming() {
		s.sessions.RecordActivity()
		return
	}

	hadConversation := s.ctrl.Started() || !s.ctrl.Conversation().IsEmpty()
	expiredID := s.sessions.SessionID()

	s.ctrl.Reset()
	s.sessions.Restart()

	if hadConversation {
		s.stats.RecordIdleReset()
		s.logf("IDLE_RESET | session=%s", expiredID)
	}
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Handler returns the route handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	cors := s.cors
	logger := s.logger
	s.mu.RUnlock()

	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		CORSMiddleware(cors),
		LoggingMiddleware(logger),
	)(s.router)
}

// Start begins serving and blocks until the listener closes. The idle
// janitor runs for the life of the server when an idle timeout is
// configured.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if s.sessions.Enabled() {
		go s.runJanitor()
	}

	s.logf("SERVER_START | addr=%s version=%s", s.addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown stops the janitor and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.janitorStop)
	})

	if s.server == nil {
		return nil
	}

	s.logf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// errorStatus maps controller and provider errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrBusy),
		errors.Is(err, model.ErrAlreadyStarted),
		errors.Is(err, model.ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, model.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrNotConfigured),
		errors.Is(err, assistant.ErrRateLimited),
		errors.Is(err, assistant.ErrInsufficientQuota):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// clientMessage returns the safe client-facing text for err. Full
// details stay in the server log.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrBusy):
		return "a reply is still streaming"
	case errors.Is(err, model.ErrAlreadyStarted):
		return "conversation already started"
	case errors.Is(err, model.ErrNotStarted):
		return "conversation not started"
	case errors.Is(err, model.ErrEmptyMessage):
		return "message text is required"
	case errors.Is(err, assistant.ErrNotConfigured):
		return "assistant not configured"
	case errors.Is(err, assistant.ErrRateLimited),
		errors.Is(err, assistant.ErrInsufficientQuota):
		return "the assistant is temporarily unavailable"
	default:
		return "request processing failed"
	}
}

// logf writes to the configured logger.
func (s *Server) logf(format string, args ...interface{}) {
	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()
	logger.Printf(format, args...)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    status,
		},
	})
}

// generateResponseID generates a unique response ID.
func generateResponseID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return "resp-" + hex.EncodeToString(bytes)
}
