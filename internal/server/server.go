package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clinicsite/clinicsite/internal/content"
	"github.com/clinicsite/clinicsite/internal/handler"
	"github.com/clinicsite/clinicsite/internal/openapi"
	"github.com/clinicsite/clinicsite/internal/server/middleware"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
	"github.com/clinicsite/clinicsite/internal/sitemap"
	"github.com/clinicsite/clinicsite/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes
	SiteURL         string
	Production      bool // marks the session cookie Secure
	CookieDomain    string

	// Requests per minute per client IP; 0 disables the limit.
	ContactRateLimit int
	LoginRateLimit   int

	Version string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             8080,
		ShutdownTimeout:  30 * time.Second,
		CORSOrigins:      []string{"http://localhost:3000"},
		MaxBodySize:      1 << 20, // 1MB
		SiteURL:          "http://localhost:3000",
		ContactRateLimit: 10,
		LoginRateLimit:   5,
		Version:          "dev",
	}
}

// Deps are the long-lived clients the routes are served from. They are
// constructed once at startup; Pages may be nil when no content project is
// configured, in which case the content routes are not mounted.
type Deps struct {
	Store   *store.Store
	Auth    *service.AuthService
	Contact *service.ContactService
	Pages   *content.Pages
}

// Server is the top-level HTTP server for the clinic site API. It owns the
// Chi router and the clients injected at startup.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// --- Health checks ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- API description and SEO files ---
	r.Get("/openapi.json", handler.NewOpenAPIHandler(openapi.Info{
		Version:   s.cfg.Version,
		ServerURL: s.cfg.SiteURL,
	}).ServeSpec)

	var slugs sitemap.SlugSource
	if s.deps.Pages != nil {
		slugs = s.deps.Pages
	}
	seo := handler.NewSEOHandler(slugs, s.cfg.SiteURL, s.logger)
	r.Get("/sitemap.xml", seo.Sitemap)
	r.Get("/robots.txt", seo.Robots)

	cookie := session.NewCookie(s.deps.Auth.SessionTTL(), s.cfg.Production)
	cookie.Domain = s.cfg.CookieDomain

	r.Route("/api", func(r chi.Router) {
		// Public contact form
		contact := handler.NewContactHandler(s.deps.Contact, s.logger)
		r.With(middleware.RateLimit(s.cfg.ContactRateLimit)).Post("/contact", contact.Submit)

		// Admin session and submissions
		admin := handler.NewAdminHandler(s.deps.Auth, s.deps.Store, cookie, s.logger)
		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RateLimit(s.cfg.LoginRateLimit)).Post("/login", admin.Login)
			r.Get("/logout", admin.Logout)
			r.Post("/logout", admin.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(s.deps.Auth, cookie, s.logger))
				r.Get("/session", admin.Session)
				r.Get("/submissions", admin.Submissions)
			})
		})

		// Read-only brochure content
		if s.deps.Pages != nil {
			ch := handler.NewContentHandler(s.deps.Pages, s.logger)
			r.Route("/content", func(r chi.Router) {
				r.Get("/home", ch.Home)
				r.Get("/about", ch.About)
				r.Get("/services", ch.Services)
				r.Get("/faqs", ch.FAQs)
				r.Get("/testimonials", ch.Testimonials)
				r.Get("/blogs", ch.Blogs)
				r.Get("/blogs/{slug}", ch.Blog)
				r.Get("/gallery", ch.Gallery)
				r.Get("/gallery/{slug}", ch.Album)
				r.Get("/image", ch.Image)
			})
		}
	})

	s.router = r
}

// handleHealthz is a liveness check. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness check. Returns 200 when the submissions
// database answers a ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "check", "database", "error", err)
		checks["database"] = "unreachable"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests. Closing the injected clients is left to the caller.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
