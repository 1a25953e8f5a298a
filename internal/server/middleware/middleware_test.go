package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	// UUID v7 format check: 36 chars with dashes
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if respID := rr.Header().Get("X-Request-ID"); respID != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, respID)
	}
}

func TestRequestIDReplacesUnsafeClientID(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("x", 200), "tab\there"} {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", bad)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("X-Request-ID"); got == bad || len(got) != 36 {
			t.Errorf("client id %q should have been replaced, got %q", bad, got)
		}
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty string from bare context, got %q", id)
	}
}

// ---------------------------------------------------------------------------
// RequireSession middleware tests
// ---------------------------------------------------------------------------

type stubValidator struct {
	claims *service.SessionClaims
	err    error
	got    string
}

func (s *stubValidator) ValidateSession(_ context.Context, token string) (*service.SessionClaims, error) {
	s.got = token
	return s.claims, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRequireSessionAllowsValidCookie(t *testing.T) {
	exp := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	v := &stubValidator{claims: &service.SessionClaims{
		Email: "doctor@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}}

	var got *Principal
	handler := RequireSession(v, session.NewCookie(time.Hour, false), discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetPrincipal(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("GET", "/api/admin/submissions", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tok"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if v.got != "tok" {
		t.Errorf("validator got token %q", v.got)
	}
	if got == nil || got.AdminID != "admin-1" || got.Email != "doctor@example.com" ||
		got.SessionID != "jti-1" || !got.ExpiresAt.Equal(exp) {
		t.Errorf("unexpected principal: %+v", got)
	}
}

func TestRequireSessionRejects(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		err    error
	}{
		{"no cookie", "", nil},
		{"invalid token", "tok", service.ErrNoSession},
		{"revocation backend down", "tok", errors.New("redis: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubValidator{err: tt.err}
			handler := RequireSession(v, session.NewCookie(time.Hour, false), discardLogger())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Error("inner handler should not be called")
				}))

			req := httptest.NewRequest("GET", "/api/admin/submissions", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			var body map[string]map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"]["code"] != float64(401) {
				t.Errorf("unexpected envelope: %v", body)
			}
		})
	}
}

func TestRequireBearer(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		err        error
		wantStatus int
		wantToken  string
	}{
		{"valid token", "Bearer tok", nil, http.StatusOK, "tok"},
		{"scheme is case-insensitive", "bearer tok", nil, http.StatusOK, "tok"},
		{"no header", "", nil, http.StatusUnauthorized, ""},
		{"basic auth", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized, ""},
		{"empty token", "Bearer  ", nil, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer tok", service.ErrNoSession, http.StatusUnauthorized, "tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubValidator{err: tt.err, claims: &service.SessionClaims{Email: "doctor@example.com"}}
			handler := RequireBearer(v, discardLogger())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if GetPrincipal(r.Context()) == nil {
						t.Error("principal missing")
					}
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest("POST", "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			// A session cookie alone does not satisfy bearer auth.
			req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "cookie-tok"})
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if v.got != tt.wantToken {
				t.Errorf("validator got token %q, want %q", v.got, tt.wantToken)
			}
		})
	}
}

func TestGetPrincipalWithoutValue(t *testing.T) {
	if got := GetPrincipal(context.Background()); got != nil {
		t.Error("expected nil principal from bare context")
	}
}

// ---------------------------------------------------------------------------
// Other middleware
// ---------------------------------------------------------------------------

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest("POST", "/api/contact", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// A different client is unaffected.
	req := httptest.NewRequest("POST", "/api/contact", nil)
	req.RemoteAddr = "198.51.100.5:5555"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("other client got %d", rr.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d got %d", i, rr.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/content/home", nil))
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("API responses should not be cached by intermediaries, got %q", got)
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("did not expect HSTS over plain http, got %q", got)
	}

	req := httptest.NewRequest("GET", "/sitemap.xml", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS on forwarded https request")
	}
	if rr.Header().Get("Content-Security-Policy") != "" {
		t.Error("CSP is only set on API responses")
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	if buf.Len() != 0 {
		t.Errorf("health check should log at debug, got %q", buf.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "status=500") {
		t.Errorf("expected error-level log for 500, got %q", out)
	}
}

func TestLoggerRecordsAdmin(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotateAdmin(r.Context(), "doctor@example.com")
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/admin/submissions?page=2", nil))

	out := buf.String()
	if !strings.Contains(out, "admin=doctor@example.com") {
		t.Errorf("expected admin attribute, got %q", out)
	}
	if strings.Contains(out, "page=2") {
		t.Errorf("query string leaked into access log: %q", out)
	}
}

func TestAnnotateAdminWithoutLogger(t *testing.T) {
	// Must be a no-op outside the Logger middleware.
	annotateAdmin(context.Background(), "doctor@example.com")
}
