// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sseServer returns a test server that streams the given SSE body for
// any run request.
func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/runs") {
			t.Errorf("path = %s, want .../runs", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
}

// delta builds a thread.message.delta event carrying one text fragment.
func delta(text string) string {
	return "event: thread.message.delta\n" +
		`data: {"id":"msg_1","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"` + text + `"}}]}}` + "\n\n"
}

// =============================================================================
// SSE READER TESTS
// =============================================================================

// TestSSEReader_ReadEvent verifies parsing of named events and data joining.
func TestSSEReader_ReadEvent(t *testing.T) {
	input := "event: thread.run.created\n" +
		"data: {\"id\":\"run_1\"}\n" +
		"\n" +
		": heartbeat comment\n" +
		"id: 42\n" +
		"event: thread.message.delta\r\n" +
		"data: line one\r\n" +
		"data: line two\r\n" +
		"\r\n"

	reader := NewSSEReader(strings.NewReader(input))

	eventType, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if eventType != "thread.run.created" {
		t.Errorf("eventType = %q, want %q", eventType, "thread.run.created")
	}
	if string(data) != `{"id":"run_1"}` {
		t.Errorf("data = %q, want run payload", data)
	}

	eventType, data, err = reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if eventType != "thread.message.delta" {
		t.Errorf("eventType = %q, want %q", eventType, "thread.message.delta")
	}
	if string(data) != "line one\nline two" {
		t.Errorf("multi-line data = %q, want joined lines", data)
	}

	if _, _, err = reader.ReadEvent(); err != io.EOF {
		t.Errorf("final ReadEvent() error = %v, want io.EOF", err)
	}
}

// TestSSEReader_PendingDataAtEOF verifies data without a trailing blank
// line is still delivered.
func TestSSEReader_PendingDataAtEOF(t *testing.T) {
	reader := NewSSEReader(strings.NewReader("data: tail\n"))

	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if string(data) != "tail" {
		t.Errorf("data = %q, want %q", data, "tail")
	}
}

// =============================================================================
// STREAMING RUN TESTS
// =============================================================================

// TestStreamRun_FragmentOrder verifies fragments arrive through the
// callback in stream order and concatenate to the full reply.
func TestStreamRun_FragmentOrder(t *testing.T) {
	body := "event: thread.run.created\n" +
		`data: {"id":"run_1","status":"queued"}` + "\n\n" +
		"event: thread.run.in_progress\n" +
		`data: {"id":"run_1","status":"in_progress"}` + "\n\n" +
		delta("Hi") +
		delta(" there") +
		delta("!") +
		"event: thread.run.completed\n" +
		`data: {"id":"run_1","status":"completed"}` + "\n\n" +
		"event: done\n" +
		"data: [DONE]\n\n"

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	var fragments []string
	err := client.StreamRun(context.Background(), "thread_abc123", func(text string) {
		fragments = append(fragments, text)
	})
	if err != nil {
		t.Fatalf("StreamRun() error = %v", err)
	}

	want := []string{"Hi", " there", "!"}
	if len(fragments) != len(want) {
		t.Fatalf("got %d fragments, want %d: %v", len(fragments), len(want), fragments)
	}
	for i, w := range want {
		if fragments[i] != w {
			t.Errorf("fragment[%d] = %q, want %q", i, fragments[i], w)
		}
	}
	if joined := strings.Join(fragments, ""); joined != "Hi there!" {
		t.Errorf("joined fragments = %q, want %q", joined, "Hi there!")
	}
}

// TestStreamRun_RunFailed verifies a failed run surfaces ErrRunFailed
// with the partial content preserved.
func TestStreamRun_RunFailed(t *testing.T) {
	body := delta("partial ") +
		delta("answer") +
		"event: thread.run.failed\n" +
		`data: {"id":"run_1","status":"failed","last_error":{"code":"server_error","message":"The model timed out"}}` + "\n\n"

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	var fragments []string
	err := client.StreamRun(context.Background(), "thread_abc123", func(text string) {
		fragments = append(fragments, text)
	})
	if err == nil {
		t.Fatal("StreamRun() should fail on thread.run.failed")
	}
	if !errors.Is(err, ErrRunFailed) {
		t.Errorf("error = %v, want errors.Is(ErrRunFailed)", err)
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("error = %T, want *StreamError", err)
	}
	if streamErr.Partial != "partial answer" {
		t.Errorf("Partial = %q, want %q", streamErr.Partial, "partial answer")
	}
	if !strings.Contains(err.Error(), "The model timed out") {
		t.Errorf("error %q should carry the provider message", err.Error())
	}
	// Fragments delivered before the failure stand
	if len(fragments) != 2 {
		t.Errorf("got %d fragments before failure, want 2", len(fragments))
	}
}

// TestStreamRun_MalformedDeltaSkipped verifies a bad delta payload does
// not abort the stream.
func TestStreamRun_MalformedDeltaSkipped(t *testing.T) {
	body := delta("good") +
		"event: thread.message.delta\n" +
		"data: {not json at all\n\n" +
		delta(" stream") +
		"event: thread.run.completed\n" +
		`data: {"id":"run_1","status":"completed"}` + "\n\n"

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	var got strings.Builder
	err := client.StreamRun(context.Background(), "thread_abc123", func(text string) {
		got.WriteString(text)
	})
	if err != nil {
		t.Fatalf("StreamRun() error = %v", err)
	}
	if got.String() != "good stream" {
		t.Errorf("content = %q, want %q", got.String(), "good stream")
	}
}

// TestStreamRun_RequiresAction verifies tool-call runs are rejected.
func TestStreamRun_RequiresAction(t *testing.T) {
	body := "event: thread.run.requires_action\n" +
		`data: {"id":"run_1","status":"requires_action"}` + "\n\n"

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	err := client.StreamRun(context.Background(), "thread_abc123", nil)
	if !errors.Is(err, ErrRunFailed) {
		t.Errorf("error = %v, want errors.Is(ErrRunFailed)", err)
	}
}

// TestStreamRun_ErrorEvent verifies the provider's error event maps to
// an APIError inside the stream error.
func TestStreamRun_ErrorEvent(t *testing.T) {
	body := delta("hal") +
		"event: error\n" +
		`data: {"error":{"type":"server_error","code":"overloaded","message":"Engine overloaded"}}` + "\n\n"

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	err := client.StreamRun(context.Background(), "thread_abc123", nil)
	if err == nil {
		t.Fatal("StreamRun() should fail on error event")
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("error = %T, want *StreamError", err)
	}
	if streamErr.Partial != "hal" {
		t.Errorf("Partial = %q, want %q", streamErr.Partial, "hal")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error chain should contain *APIError, got %v", err)
	}
	if apiErr.Code != "overloaded" {
		t.Errorf("Code = %q, want %q", apiErr.Code, "overloaded")
	}
}

// TestStreamRun_TruncatedStream verifies EOF before a terminal run
// status is treated as a failure with partial content.
func TestStreamRun_TruncatedStream(t *testing.T) {
	body := delta("cut ") + delta("off")

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	err := client.StreamRun(context.Background(), "thread_abc123", nil)
	if err == nil {
		t.Fatal("StreamRun() should fail on truncated stream")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want errors.Is(io.ErrUnexpectedEOF)", err)
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("error = %T, want *StreamError", err)
	}
	if streamErr.Partial != "cut off" {
		t.Errorf("Partial = %q, want %q", streamErr.Partial, "cut off")
	}
}

// TestStreamRun_DoneWithoutCompletion verifies the done terminator alone
// does not count as success.
func TestStreamRun_DoneWithoutCompletion(t *testing.T) {
	body := delta("half") +
		"event: done\n" +
		"data: [DONE]\n\n"

	server := sseServer(t, body)
	defer server.Close()

	client := NewClient("sk-test-abc123", "asst_042").WithBaseURL(server.URL)

	err := client.StreamRun(context.Background(), "thread_abc123", nil)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want errors.Is(io.ErrUnexpectedEOF)", err)
	}
}

// TestStreamRun_HTTPError verifies a non-200 run response maps through
// the standard error handling.
func TestStreamRun_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"invalid_api_key","message":"Incorrect API key provided"}}`))
	}))
	defer server.Close()

	client := NewClient("sk-test-bad", "asst_042").WithBaseURL(server.URL)

	err := client.StreamRun(context.Background(), "thread_abc123", nil)
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("StreamRun() error = %v, want ErrAuthFailed", err)
	}
}

// TestStreamRun_NotConfigured verifies the unconfigured client refuses
// to start a run.
func TestStreamRun_NotConfigured(t *testing.T) {
	client := NewClient("", "")
	err := client.StreamRun(context.Background(), "thread_abc123", nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("StreamRun() error = %v, want ErrNotConfigured", err)
	}
}

// TestProcessRunStream_ContextCancelled verifies a cancelled context
// stops consumption with the partial preserved.
func TestProcessRunStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := processRunStream(ctx, strings.NewReader(delta("never read")), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want errors.Is(context.Canceled)", err)
	}
}

// =============================================================================
// STREAM ERROR TESTS
// =============================================================================

// TestStreamError verifies formatting and unwrapping.
func TestStreamError(t *testing.T) {
	base := errors.New("connection reset")

	withPartial := &StreamError{Partial: "some text", Err: base}
	if !strings.Contains(withPartial.Error(), "partial content received: 9 chars") {
		t.Errorf("Error() = %q, should report partial length", withPartial.Error())
	}
	if !errors.Is(withPartial, base) {
		t.Error("StreamError should unwrap to the underlying error")
	}

	noPartial := &StreamError{Err: base}
	if strings.Contains(noPartial.Error(), "partial") {
		t.Errorf("Error() = %q, should not mention partial content", noPartial.Error())
	}
}
