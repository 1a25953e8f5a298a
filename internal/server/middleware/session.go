package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated admin.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
)

// Principal is the admin identity carried by a verified session cookie.
type Principal struct {
	AdminID   string
	Email     string
	SessionID string
	ExpiresAt time.Time
}

// SessionValidator verifies a raw session token.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*service.SessionClaims, error)
}

// RequireSession rejects requests without a valid admin session cookie
// with 401. Missing, malformed, tampered, expired and revoked tokens are
// all treated the same; there is no refresh.
func RequireSession(validator SessionValidator, cookie session.Cookie, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireToken(validator, cookie.Read, logger)
}

// RequireBearer is RequireSession for clients that cannot hold a cookie.
// The session token is sent as "Authorization: Bearer <token>".
func RequireBearer(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireToken(validator, bearerToken, logger)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func requireToken(validator SessionValidator, read func(*http.Request) (string, bool), logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := read(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrNoSession) {
					logger.Error("session validation failed",
						"error", err,
						"request_id", GetRequestID(r.Context()),
					)
				}
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			principal := &Principal{
				AdminID:   claims.Subject,
				Email:     claims.Email,
				SessionID: claims.ID,
			}
			if claims.ExpiresAt != nil {
				principal.ExpiresAt = claims.ExpiresAt.Time.UTC()
			}
			annotateAdmin(r.Context(), principal.Email)
			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated admin from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// writeAuthError writes the standard error envelope. The handler package
// imports this one, so the envelope is built here directly.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
