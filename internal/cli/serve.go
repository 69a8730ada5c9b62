// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - HTTP surface command handler for the concierge CLI.
//
// CLI: Comprehensive help and examples for all commands
//
// Handles the "concierge serve" command which exposes the conversation
// over HTTP so a hosted page can render the chat. The process runs until
// interrupted and shuts the listener down gracefully.
//
// Command: serve
// Short:   Serve the chat UI over HTTP
//
// Examples:
//   concierge serve
//   concierge serve --addr :9000
//   concierge serve --idle 600
//   concierge serve --origins "https://hotel.example,https://www.hotel.example"
//
// Flags:
//   -a, --addr ADDR     Listen address (default from server.addr, :8080)
//   --idle SECONDS      Idle seconds before the conversation resets (0 disables)
//   --origins LIST      Comma-separated CORS origins replacing the localhost defaults
//   -q, --quiet         Suppress startup messages
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/server"
)

// shutdownGrace is how long in-flight replies get to finish after an
// interrupt before the listener is torn down.
const shutdownGrace = 10 * time.Second

// serveInfof prints a startup status line to stderr unless quiet.
// Styling only applies on a terminal so redirected logs stay clean.
func serveInfof(quiet bool, format string, a ...interface{}) {
	if quiet {
		return
	}
	line := fmt.Sprintf(format, a...)
	if IsStderrTTY() {
		line = InfoStyle.Render(line)
	}
	fmt.Fprintln(os.Stderr, line)
}

// serveURL renders the listen address as something clickable. A bare
// ":8080" listens on every interface; localhost stands in for display.
func serveURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// splitOrigins splits a comma-separated origin list, dropping empties.
func splitOrigins(list string) []string {
	var origins []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}

// =============================================================================
// SERVE HANDLER
// =============================================================================

// HandleServeCommand handles the "serve" command: build the controller,
// start the HTTP surface, and block until the process is interrupted or
// the listener fails.
func HandleServeCommand(args Args) error {
	rest := []string{}
	if len(args.Raw) > 1 {
		rest = args.Raw[1:]
	}
	parser := NewArgParser(rest)

	// Flag overrides apply to a copy so the global config stays pristine
	// for anything else in the process.
	cfg := config.Global().Clone()
	if addr := parser.FlagOrDefault("addr", parser.Flag("a")); addr != "" {
		cfg.Server.Addr = addr
	}
	cfg.Session.IdleTimeoutSecs = parser.FlagIntOrDefault("idle", cfg.Session.IdleTimeoutSecs)

	if err := requireConfigured(cfg); err != nil {
		return err
	}

	client := buildClient(cfg)
	ctrl := model.NewController(client)
	srv := server.NewServer(cfg, ctrl).WithAssistantClient(client)

	if origins := parser.Flag("origins"); origins != "" {
		cors := server.DefaultCORSConfig()
		cors.AllowedOrigins = splitOrigins(origins)
		srv.WithCORS(cors)
	}

	if args.Verbose {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a, err := client.RetrieveAssistant(ctx)
		cancel()
		if err != nil {
			serveInfof(args.Quiet, "Assistant probe failed: %v", err)
		} else {
			serveInfof(args.Quiet, "Assistant: %s", a.DisplayName())
		}
	}

	serveInfof(args.Quiet, "Serving chat on %s", serveURL(srv.Addr()))
	if cfg.Session.IdleTimeoutSecs > 0 {
		serveInfof(args.Quiet, "Idle conversations reset after %s", cfg.Session.IdleTimeout())
	} else {
		serveInfof(args.Quiet, "Idle reset disabled")
	}
	serveInfof(args.Quiet, "Press Ctrl+C to stop")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapError(err, "serve")
		}
		return nil
	case sig := <-sigCh:
		serveInfof(args.Quiet, "Received %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return WrapError(err, "shutdown")
		}

		// Start returns ErrServerClosed once the listener drains.
		<-errCh
		return nil
	}
}
