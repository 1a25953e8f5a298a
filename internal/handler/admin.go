package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/server/middleware"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Authenticator issues and revokes admin sessions.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *service.SessionClaims, error)
	RevokeSession(ctx context.Context, token string) error
}

// SubmissionLister reads submissions newest-first.
type SubmissionLister interface {
	PageSubmissions(ctx context.Context, page, pageSize int) (*model.SubmissionPage, error)
}

// AdminHandler serves the admin session and submissions endpoints.
type AdminHandler struct {
	auth        Authenticator
	submissions SubmissionLister
	cookie      session.Cookie
	logger      *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(auth Authenticator, submissions SubmissionLister, cookie session.Cookie, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		auth:        auth,
		submissions: submissions,
		cookie:      cookie,
		logger:      logger,
	}
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an admin and sets the session cookie.
// POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, claims, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, service.ErrAccountDisabled):
			writeError(w, http.StatusForbidden, "Account is disabled")
		default:
			h.logger.Error("admin login failed",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, http.StatusInternalServerError, "Authentication error")
		}
		return
	}

	h.cookie.Set(w, token)
	h.logger.Info("admin signed in",
		"admin_id", claims.Subject,
		"session_id", claims.ID,
	)
	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}

// Logout clears the session cookie and, when a revocation list is
// configured, revokes the presented token. It succeeds without a session.
// GET|POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.cookie.Read(r); ok {
		if err := h.auth.RevokeSession(r.Context(), token); err != nil {
			h.logger.Warn("session revocation failed",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
	}
	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}

// sessionResponse describes the current session.
type sessionResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expiresAt"`
}

// Session describes the caller's session. Mounted behind RequireSession.
// GET /api/admin/session
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        p.AdminID,
		Email:     p.Email,
		ExpiresAt: p.ExpiresAt.Format(time.RFC3339),
	})
}

// Submissions returns one page of contact submissions, newest first.
// GET /api/admin/submissions?page=&pageSize=
func (h *AdminHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := clampInt(queryInt(r, "pageSize", defaultPageSize), 1, maxPageSize)

	result, err := h.submissions.PageSubmissions(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("list submissions failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to list submissions")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
