// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// STREAM ERRORS
// =============================================================================

// StreamError represents an error that occurred during streaming,
// preserving any partial content received before the failure.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE EVENT PARSING
// =============================================================================

// SSEReader reads Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next complete SSE event, returning the event type
// and the joined data payload.
func (r *SSEReader) ReadEvent() (eventType string, data []byte, err error) {
	var dataLines [][]byte

	for {
		line, err := r.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				// Return accumulated data on EOF
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			return "", nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		// Parse field
		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Ignore other fields (id:, retry:, comments)
	}
}

// =============================================================================
// RUN EVENT WIRE TYPES
// =============================================================================

// Assistants v2 named stream events. Events not listed here carry no
// text and no terminal status; they are skipped.
const (
	eventMessageDelta   = "thread.message.delta"
	eventRunCompleted   = "thread.run.completed"
	eventRunFailed      = "thread.run.failed"
	eventRunCancelled   = "thread.run.cancelled"
	eventRunExpired     = "thread.run.expired"
	eventRunNeedsAction = "thread.run.requires_action"
	eventError          = "error"
	eventDone           = "done"
)

// streamDoneData is the data payload of the terminal "done" event.
const streamDoneData = "[DONE]"

// messageDeltaEvent is the payload of a thread.message.delta event.
// Only text parts carry displayable content.
type messageDeltaEvent struct {
	ID    string `json:"id"`
	Delta struct {
		Content []struct {
			Index int    `json:"index"`
			Type  string `json:"type"`
			Text  struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
}

// runStatusEvent is the payload of thread.run.* status events.
type runStatusEvent struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

// =============================================================================
// STREAMING RUN
// =============================================================================

// StreamRun executes a streaming run of the configured assistant against
// the given thread, invoking onText for each text fragment in arrival
// order.
//
// The run either ends with thread.run.completed (nil return) or fails;
// on failure the returned StreamError carries everything already
// delivered through onText. There is no reconnect and no retry.
func (c *Client) StreamRun(ctx context.Context, threadID string, onText func(text string)) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if threadID == "" {
		return fmt.Errorf("%w: empty thread id", ErrNotFound)
	}

	reqBody := runRequest{
		AssistantID:  c.assistantID,
		Model:        c.model,
		Instructions: c.instructions,
		Stream:       true,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/threads/" + threadID + "/runs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	c.logRequest(req)
	startTime := time.Now()
	// Streaming client has no client-side timeout; the context governs
	// the run's lifetime.
	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(startTime))

	if resp.StatusCode != http.StatusOK {
		body, readErr := readResponse(resp)
		if readErr != nil {
			return readErr
		}
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	return processRunStream(ctx, resp.Body, onText)
}

// processRunStream consumes the SSE stream of a run until a terminal
// event or an error. Text deltas are forwarded to onText as they arrive.
func processRunStream(ctx context.Context, body io.Reader, onText func(text string)) error {
	sse := NewSSEReader(body)
	var partial strings.Builder

	streamFail := func(err error) error {
		return &StreamError{Partial: partial.String(), Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return streamFail(ctx.Err())
		default:
		}

		eventType, data, err := sse.ReadEvent()
		if err != nil {
			if err == io.EOF {
				// The provider closed the stream without reporting a
				// terminal run status.
				return streamFail(io.ErrUnexpectedEOF)
			}
			return streamFail(err)
		}

		switch eventType {
		case eventMessageDelta:
			var delta messageDeltaEvent
			if err := json.Unmarshal(data, &delta); err != nil {
				// Skip malformed events, keep the stream alive
				continue
			}
			for _, part := range delta.Delta.Content {
				if part.Type != "text" || part.Text.Value == "" {
					continue
				}
				partial.WriteString(part.Text.Value)
				if onText != nil {
					onText(part.Text.Value)
				}
			}

		case eventRunCompleted:
			return nil

		case eventRunFailed, eventRunCancelled, eventRunExpired:
			var status runStatusEvent
			if err := json.Unmarshal(data, &status); err == nil && status.LastError != nil {
				return streamFail(fmt.Errorf("%w [%s]: %s", ErrRunFailed, status.LastError.Code, status.LastError.Message))
			}
			return streamFail(fmt.Errorf("%w: run status %s", ErrRunFailed, runStatusFromEvent(eventType)))

		case eventRunNeedsAction:
			// Tool calls are not part of this front-end; a run that
			// requires action cannot make progress here.
			return streamFail(fmt.Errorf("%w: run requires tool action", ErrRunFailed))

		case eventError:
			var apiErr apiErrorResponse
			if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
				return streamFail(&APIError{
					Type:    apiErr.Error.Type,
					Code:    apiErr.Error.Code,
					Message: apiErr.Error.Message,
				})
			}
			return streamFail(fmt.Errorf("stream reported error: %s", string(data)))

		case eventDone:
			// The done terminator without a preceding
			// thread.run.completed means the run never finished.
			return streamFail(io.ErrUnexpectedEOF)

		default:
			if string(data) == streamDoneData {
				return streamFail(io.ErrUnexpectedEOF)
			}
			// run.created, run.queued, run.in_progress, step and
			// message lifecycle events carry no text. Skip them.
		}
	}
}

// runStatusFromEvent maps a terminal event name to its status word.
func runStatusFromEvent(eventType string) string {
	if idx := strings.LastIndex(eventType, "."); idx >= 0 {
		return eventType[idx+1:]
	}
	return eventType
}
