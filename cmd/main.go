// Command mcp is the reference entry point (§6): it wires the reference
// Tools/Resources/Prompts registries into a server.Server and serves it
// over the stdio, SSE or WebSocket transport, selected by flag (the
// in-memory transport is for tests only). Grounded on the
// teacher's cmd/main.go (log-output setup, architecture banner trimmed
// since it served the teacher's own macOS tool dependencies, not this
// core), generalized from its single always-stdio GetInstance().
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/prompts"
	"github.com/mcpgo/mcp/pkg/resources"
	"github.com/mcpgo/mcp/pkg/server"
	"github.com/mcpgo/mcp/pkg/tools"
	"github.com/mcpgo/mcp/pkg/transport"
)

const shutdownGrace = 5 * time.Second

func main() {
	transportType := flag.String("transport", "stdio", "transport to serve over: stdio, sse, ws")
	addr := flag.String("addr", ":8080", "listen address for sse/ws transports")
	logLevel := flag.String("log-level", "warn", "minimum log level: debug, info, notice, warning, error, critical")
	flag.Parse()

	logger.SetShowDateTime(true)
	logger.SetLevel(logger.ParseLevel(*logLevel))

	srv := buildServer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch *transportType {
	case "stdio":
		err = srv.Serve(ctx, transport.NewStdioTransport(os.Stdin, os.Stdout))
	case "sse":
		err = serveSSE(ctx, srv, *addr)
	case "ws":
		err = serveWS(ctx, srv, *addr)
	default:
		fmt.Fprintf(os.Stderr, "unknown transport %q\n", *transportType)
		os.Exit(1)
	}

	if err != nil {
		logger.Error("mcp: server exited with error", err)
		os.Exit(1)
	}
}

// buildServer assembles the reference capability set: the calculator and
// datetime tools, the example/weather resources, and the file-backed
// prompt store (§9).
func buildServer() *server.Server {
	return server.NewBuilder("mcp", "1.0.0").
		RegisterTool(tools.CalculatorTool(), tools.HandleCalculatorTool).
		RegisterTool(tools.DateTimeTool(), tools.HandleDateTimeTool).
		RegisterResource(resources.ExampleResource(), resources.HandleExampleResource).
		RegisterResourceTemplate(resources.WeatherResourceTemplate(), resources.HandleWeatherResource).
		WithPrompts(prompts.NewStore()).
		Build()
}

// serveSSE runs the SSE HTTP listener and spawns one session per accepted
// client, until ctx is cancelled.
func serveSSE(ctx context.Context, srv *server.Server, addr string) error {
	s := transport.NewSSEServer(addr)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	go func() {
		for {
			select {
			case sess, ok := <-s.Sessions():
				if !ok {
					return
				}
				go func() {
					if err := srv.Serve(ctx, sess); err != nil {
						logger.Warn("mcp: sse session ended", err)
					}
				}()
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// serveWS runs the WebSocket HTTP listener and spawns one session per
// accepted client, until ctx is cancelled.
func serveWS(ctx context.Context, srv *server.Server, addr string) error {
	s := transport.NewWSServer(addr)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	go func() {
		for {
			select {
			case sess, ok := <-s.Sessions():
				if !ok {
					return
				}
				go func() {
					if err := srv.Serve(ctx, sess); err != nil {
						logger.Warn("mcp: ws session ended", err)
					}
				}()
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
