package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clinicsite/clinicsite/internal/server/middleware"
	"github.com/clinicsite/clinicsite/internal/sitemap"
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	slugs  sitemap.SlugSource // nil when no content project is configured
	opts   sitemap.Options
	logger *slog.Logger
}

// NewSEOHandler creates a new SEOHandler for siteURL.
func NewSEOHandler(slugs sitemap.SlugSource, siteURL string, logger *slog.Logger) *SEOHandler {
	return &SEOHandler{slugs: slugs, opts: sitemap.DefaultOptions(siteURL), logger: logger}
}

// Sitemap renders the sitemap. When the content API cannot be reached the
// static pages are still listed.
// GET /sitemap.xml
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	routes := sitemap.StaticRoutes
	if h.slugs != nil {
		all, err := sitemap.Routes(r.Context(), h.slugs)
		if err != nil {
			h.logger.Warn("sitemap slugs unavailable, serving static routes",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		} else {
			routes = all
		}
	}

	opts := h.opts
	opts.LastMod = time.Now()
	body, err := sitemap.XML(routes, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render sitemap")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Robots renders robots.txt.
// GET /robots.txt
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(sitemap.Robots(h.opts.SiteURL))
}
