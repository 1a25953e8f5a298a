package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clinicsite/clinicsite/internal/content"
	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/server/middleware"
)

// ContentHandler exposes the brochure content as read-only JSON.
type ContentHandler struct {
	pages  *content.Pages
	logger *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(pages *content.Pages, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{pages: pages, logger: logger}
}

// serve writes the result of load, mapping content.ErrNotFound to 404 and
// any upstream failure to 500.
func serve[T any](h *ContentHandler, w http.ResponseWriter, r *http.Request, what string, load func(context.Context) (T, error)) {
	v, err := load(r.Context())
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeError(w, http.StatusNotFound, what+" not found")
			return
		}
		h.logger.Error("content fetch failed",
			"content", what,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load "+what)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Home handles GET /api/content/home.
func (h *ContentHandler) Home(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "home page", h.pages.Home)
}

// About handles GET /api/content/about.
func (h *ContentHandler) About(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "about page", h.pages.About)
}

// Services handles GET /api/content/services.
func (h *ContentHandler) Services(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "services", h.pages.Services)
}

// FAQs handles GET /api/content/faqs.
func (h *ContentHandler) FAQs(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "FAQs", h.pages.FAQs)
}

// Testimonials handles GET /api/content/testimonials.
func (h *ContentHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "testimonials", h.pages.Testimonials)
}

// Blogs handles GET /api/content/blogs.
func (h *ContentHandler) Blogs(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "blogs", h.pages.Blogs)
}

// Blog handles GET /api/content/blogs/{slug}.
func (h *ContentHandler) Blog(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	serve(h, w, r, "blog post", func(ctx context.Context) (*model.BlogDetail, error) {
		return h.pages.BlogBySlug(ctx, slug)
	})
}

// Gallery handles GET /api/content/gallery.
func (h *ContentHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "gallery", h.pages.Gallery)
}

// Album handles GET /api/content/gallery/{slug}.
func (h *ContentHandler) Album(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	serve(h, w, r, "album", func(ctx context.Context) (*model.Album, error) {
		return h.pages.AlbumBySlug(ctx, slug)
	})
}

// Image redirects an asset reference to its CDN URL.
// GET /api/content/image?ref=&w=&h=&fit=&q=
func (h *ContentHandler) Image(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "ref is required")
		return
	}

	client := h.pages.Client()
	var (
		target string
		err    error
	)
	if strings.HasPrefix(ref, "file-") {
		target, err = client.FileURL(ref)
	} else {
		target, err = client.ImageURL(ref, content.ImageOptions{
			Width:      max(queryInt(r, "w", 0), 0),
			Height:     max(queryInt(r, "h", 0), 0),
			Fit:        r.URL.Query().Get("fit"),
			Quality:    max(queryInt(r, "q", 0), 0),
			AutoFormat: true,
		})
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
