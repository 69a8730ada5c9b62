// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant provides the OpenAI Assistants API client for concierge.
//
// The client speaks the v2 thread/run surface: create a thread, post user
// messages to it, and execute streaming runs of one pre-configured
// assistant against it.
package assistant

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the OpenAI API.
const (
	// DefaultBaseURL is the base URL for the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default timeout for non-streaming API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies concierge to the API.
	DefaultUserAgent = "concierge/0.1.0"

	// assistantsBetaHeader is required for the Assistants v2 surface.
	assistantsBetaHeader = "assistants=v2"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client with connection pooling for all unary requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming runs. It carries no
	// client timeout; lifetime is controlled through the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Error variables for common API failures.
var (
	// ErrNotConfigured indicates the API key or assistant ID is not set.
	ErrNotConfigured = errors.New("OpenAI API key or assistant not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound indicates the requested resource (assistant, thread,
	// message) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientQuota indicates the account is out of quota.
	ErrInsufficientQuota = errors.New("insufficient quota")

	// ErrRunFailed indicates the assistant run ended without completing.
	ErrRunFailed = errors.New("assistant run failed")
)

// APIError represents an error response from the OpenAI API.
type APIError struct {
	Type    string
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("OpenAI error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("OpenAI error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// Assistant describes the remote assistant definition as configured on
// the provider side.
type Assistant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
}

// DisplayName returns the assistant's name, falling back to its ID.
func (a *Assistant) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// threadCreateRequest is the (empty) body for thread creation.
type threadCreateRequest struct{}

// threadResponse is the response from thread creation.
type threadResponse struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// messageRequest is the body for posting a message to a thread.
type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageResponse is the response from posting a message.
type messageResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
}

// runRequest is the body for executing a run against a thread.
// Model and instructions override the assistant's stored values only
// when non-empty.
type runRequest struct {
	AssistantID  string `json:"assistant_id"`
	Model        string `json:"model,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Stream       bool   `json:"stream"`
}

// apiErrorResponse represents an error response body from the API.
type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the OpenAI Assistants API, bound to a single
// assistant.
//
// The client never retries. Failures surface immediately to the caller;
// the next attempt is always a user action.
type Client struct {
	apiKey       string
	baseURL      string
	assistantID  string
	model        string
	instructions string
	timeout      time.Duration
	userAgent    string
}

// NewClient creates a client for the given API key and assistant ID.
//
// An empty key or assistant ID still yields a usable value; requests
// will fail with ErrNotConfigured until both are present.
func NewClient(apiKey, assistantID string) *Client {
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     DefaultBaseURL,
		assistantID: strings.TrimSpace(assistantID),
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithModel sets a model override sent with each run. Empty means the
// assistant's stored model is used.
func (c *Client) WithModel(model string) *Client {
	c.model = strings.TrimSpace(model)
	return c
}

// WithInstructions sets an instructions override sent with each run.
// Empty means the assistant's stored instructions are used.
func (c *Client) WithInstructions(instructions string) *Client {
	c.instructions = instructions
	return c
}

// WithTimeout sets the timeout for non-streaming requests.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// WithUserAgent sets the User-Agent header value.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// AssistantID returns the configured assistant ID.
func (c *Client) AssistantID() string {
	return c.assistantID
}

// Model returns the configured model override, if any.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if both credentials are present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.assistantID != ""
}

// APIKeyMasked returns a masked version of the API key for display.
// SECURITY: Never exposes key fragments - uses a fingerprint instead.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.apiKey), c.keyFingerprint())
}

// keyFingerprint returns a log-safe fingerprint of the API key.
func (c *Client) keyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// REQUEST/RESPONSE LOGGING (without sensitive data)
// =============================================================================

// logRequest logs an API request without exposing sensitive data.
// Headers may contain auth and bodies may contain user text; neither is
// logged.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration. Status and timing
// only, never the body.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// setHeaders sets the required headers for OpenAI Assistants requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", assistantsBetaHeader)
	req.Header.Set("User-Agent", c.userAgent)
}

// readResponse reads the response body with a size limit.
//
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

// doJSON performs a single JSON request and decodes the response into
// out (when non-nil). There is no retry path: the first failure is the
// final answer.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	c.logRequest(req)
	startTime := time.Now()
	// PERFORMANCE: Use shared HTTP client with connection pooling
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(startTime))

	body, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		oaErr := &APIError{
			Type:    apiErr.Error.Type,
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}

		// Quota exhaustion arrives as 429 with a distinct code.
		if oaErr.Code == "insufficient_quota" {
			return fmt.Errorf("%w: %s", ErrInsufficientQuota, oaErr.Message)
		}

		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, oaErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, oaErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, oaErr.Message)
		default:
			return oaErr
		}
	}

	// Fallback for unparseable error responses
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			Message: string(body),
			Status:  statusCode,
		}
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CreateThread allocates a new conversation thread on the provider and
// returns its opaque handle.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var resp threadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/threads", threadCreateRequest{}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &APIError{Message: "thread response missing id", Status: http.StatusOK}
	}
	return resp.ID, nil
}

// PostMessage appends a message to the given thread.
func (c *Client) PostMessage(ctx context.Context, threadID, role, content string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if threadID == "" {
		return fmt.Errorf("%w: empty thread id", ErrNotFound)
	}

	req := messageRequest{Role: role, Content: content}
	var resp messageResponse
	return c.doJSON(ctx, http.MethodPost, "/threads/"+threadID+"/messages", req, &resp)
}

// RetrieveAssistant fetches the configured assistant's definition. Used
// at startup to validate credentials and surface the assistant's display
// name and model.
func (c *Client) RetrieveAssistant(ctx context.Context) (*Assistant, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var a Assistant
	if err := c.doJSON(ctx, http.MethodGet, "/assistants/"+c.assistantID, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
