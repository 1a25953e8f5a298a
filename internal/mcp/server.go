// Package mcp exposes read-only clinic data to MCP clients: contact
// submissions from the database and the brochure content documents.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/clinicsite/clinicsite/internal/content"
	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/server/middleware"
)

// SubmissionReader is the read side of the submissions store.
type SubmissionReader interface {
	PageSubmissions(ctx context.Context, page, pageSize int) (*model.SubmissionPage, error)
	CountSubmissions(ctx context.Context) (int64, error)
}

// MCPServer wraps the mcp-go server with the clinic's tool and resource
// registrations. Nothing it exposes can modify data.
type MCPServer struct {
	submissions SubmissionReader
	pages       *content.Pages // nil when no content project is configured
	logger      *slog.Logger
	server      *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources
// registered. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(submissions SubmissionReader, pages *content.Pages, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		submissions: submissions,
		pages:       pages,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer(
		"Clinic Site",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout for clients that launch the
// server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// HTTPHandler returns the Streamable HTTP transport mounted at /mcp.
// Every request must carry an admin session token as a bearer token;
// anything else is rejected with 401 before it reaches the MCP server.
func (s *MCPServer) HTTPHandler(validator middleware.SessionValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.With(middleware.RequireBearer(validator, s.logger)).
		Handle("/mcp", server.NewStreamableHTTPServer(s.server))
	return r
}

// ServeHTTP serves HTTPHandler on addr (e.g. "127.0.0.1:3001") until the
// process is interrupted.
func (s *MCPServer) ServeHTTP(addr string, validator middleware.SessionValidator) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(validator),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("MCP HTTP server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
