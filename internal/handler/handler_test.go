package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicsite/clinicsite/internal/captcha"
	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/server/middleware"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
	"github.com/clinicsite/clinicsite/internal/store"
)

const (
	testJWTSecret = "test-secret-for-handler-tests-32-bytes!"
	testPassword  = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store    *store.Store
	authSvc  *service.AuthService
	router   chi.Router
	score    atomic.Value // float64 returned by the fake siteverify endpoint
	captchas atomic.Int32
}

// newTestEnv creates a fresh test environment with an in-memory SQLite
// store, a fake reCAPTCHA provider and a Chi router with the contact and
// admin routes mounted.
func newTestEnv(t *testing.T, revoker session.Revoker) *testEnv {
	t.Helper()

	st, err := store.Open(context.Background(), store.Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	env := &testEnv{store: st}
	env.score.Store(0.9)

	siteverify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.captchas.Add(1)
		r.ParseForm()
		resp := captcha.Response{
			Success: r.PostForm.Get("response") != "bad-token",
			Score:   env.score.Load().(float64),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(siteverify.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := captcha.NewRecaptcha("captcha-secret", captcha.WithVerifyURL(siteverify.URL))
	env.authSvc = service.NewAuthService(st, service.AuthConfig{Secret: testJWTSecret, Revoker: revoker})
	cookie := session.NewCookie(env.authSvc.SessionTTL(), false)

	contactHandler := NewContactHandler(service.NewContactService(st, verifier), logger)
	adminHandler := NewAdminHandler(env.authSvc, st, cookie, logger)

	r := chi.NewRouter()
	r.Post("/api/contact", contactHandler.Submit)
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)
		r.Get("/logout", adminHandler.Logout)
		r.Post("/logout", adminHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(env.authSvc, cookie, logger))
			r.Get("/session", adminHandler.Session)
			r.Get("/submissions", adminHandler.Submissions)
		})
	})
	env.router = r
	return env
}

// seedAdmin creates an admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T, email string, active bool) *model.Admin {
	t.Helper()
	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{Email: email, PasswordHash: hash, IsActive: active}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// login signs in and returns the session cookie.
func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rr := e.do(t, "POST", "/api/admin/login", toJSON(t, map[string]string{
		"email":    email,
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)
	c := sessionCookie(rr)
	if c == nil {
		t.Fatal("login did not set the session cookie")
	}
	return c
}

func (e *testEnv) countSubmissions(t *testing.T) int64 {
	t.Helper()
	n, err := e.store.CountSubmissions(context.Background())
	if err != nil {
		t.Fatalf("CountSubmissions: %v", err)
	}
	return n
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func validContact() map[string]string {
	return map[string]string{
		"name":           "Asha Rao",
		"email":          "asha@example.com",
		"phone":          "+91 98450 00000",
		"message":        "I would like to book a consultation.",
		"preferredDate":  "2026-11-03",
		"recaptchaToken": "good-token",
	}
}

// ---------------------------------------------------------------------------
// Contact
// ---------------------------------------------------------------------------

func TestContact_EmptyFieldRejected(t *testing.T) {
	for _, field := range []string{"name", "email", "phone", "message", "preferredDate"} {
		t.Run(field, func(t *testing.T) {
			env := newTestEnv(t, nil)
			body := validContact()
			body[field] = ""

			rr := env.do(t, "POST", "/api/contact", toJSON(t, body))
			assertStatus(t, rr, http.StatusBadRequest)

			if n := env.countSubmissions(t); n != 0 {
				t.Errorf("rows = %d, want 0", n)
			}
			if n := env.captchas.Load(); n != 0 {
				t.Errorf("captcha provider called %d times before validation", n)
			}
		})
	}
}

func TestContact_ValidSubmissionStored(t *testing.T) {
	env := newTestEnv(t, nil)
	env.score.Store(captcha.DefaultMinScore)
	before := time.Now().UTC().Add(-time.Second)

	rr := env.do(t, "POST", "/api/contact", toJSON(t, validContact()))
	assertStatus(t, rr, http.StatusOK)

	var resp model.SuccessResponse
	decodeJSON(t, rr, &resp)
	if !resp.Success {
		t.Error("expected success=true")
	}

	rows, err := env.store.ListSubmissions(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	want := validContact()
	if got.Name != want["name"] || got.Email != want["email"] || got.Phone != want["phone"] ||
		got.Message != want["message"] || got.PreferredAppointmentDate != want["preferredDate"] {
		t.Errorf("stored row mismatch: %+v", got)
	}
	if got.ID == "" || got.CreatedAt.Before(before) {
		t.Errorf("server-assigned fields not set: id=%q created_at=%v", got.ID, got.CreatedAt)
	}
}

func TestContact_LowScoreRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.score.Store(0.3)

	rr := env.do(t, "POST", "/api/contact", toJSON(t, validContact()))
	assertStatus(t, rr, http.StatusBadRequest)
	if n := env.countSubmissions(t); n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestContact_FailedTokenRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	body := validContact()
	body["recaptchaToken"] = "bad-token"

	rr := env.do(t, "POST", "/api/contact", toJSON(t, body))
	assertStatus(t, rr, http.StatusBadRequest)
	if n := env.countSubmissions(t); n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestContact_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "POST", "/api/contact", strings.NewReader(`{"name":`))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestContact_StoreFailureHidesDetail(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.Close()

	rr := env.do(t, "POST", "/api/contact", toJSON(t, validContact()))
	assertStatus(t, rr, http.StatusInternalServerError)
	if strings.Contains(strings.ToLower(rr.Body.String()), "sql") {
		t.Errorf("response leaks storage detail: %s", rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Login / Logout
// ---------------------------------------------------------------------------

func TestLogin_ValidCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedAdmin(t, "admin@example.com", true)

	rr := env.do(t, "POST", "/api/admin/login", toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)

	var resp model.OKResponse
	decodeJSON(t, rr, &resp)
	if !resp.OK {
		t.Error("expected ok=true")
	}

	c := sessionCookie(rr)
	if c == nil {
		t.Fatal("expected session cookie")
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("cookie attributes: %+v", c)
	}
	if c.MaxAge != int(service.DefaultSessionTTL.Seconds()) {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, int(service.DefaultSessionTTL.Seconds()))
	}

	rr = env.do(t, "GET", "/api/admin/submissions", nil, c)
	assertStatus(t, rr, http.StatusOK)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"wrong password", "admin@example.com", "wrongpassword", http.StatusUnauthorized},
		{"unknown email", "nobody@example.com", testPassword, http.StatusUnauthorized},
		{"inactive account", "disabled@example.com", testPassword, http.StatusForbidden},
		{"missing password", "admin@example.com", "", http.StatusBadRequest},
		{"missing email", "  ", testPassword, http.StatusBadRequest},
	}

	env := newTestEnv(t, nil)
	env.seedAdmin(t, "admin@example.com", true)
	env.seedAdmin(t, "disabled@example.com", false)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/admin/login", toJSON(t, map[string]string{
				"email":    tt.email,
				"password": tt.password,
			}))
			assertStatus(t, rr, tt.want)
			if c := sessionCookie(rr); c != nil {
				t.Errorf("cookie set on failed login: %+v", c)
			}
		})
	}
}

func TestSubmissions_RejectsBadSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.seedAdmin(t, "admin@example.com", true)
	valid := env.login(t, "admin@example.com")

	issued := time.Now().Add(-13 * time.Hour)
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.SessionClaims{
		Email: admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			ID:        "expired-session",
			Issuer:    "clinicsite",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(service.DefaultSessionTTL)),
		},
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	tampered := valid.Value[:len(valid.Value)-2] + "xx"
	if tampered == valid.Value {
		tampered = valid.Value[:len(valid.Value)-2] + "yy"
	}

	tests := []struct {
		name    string
		cookies []*http.Cookie
	}{
		{"no cookie", nil},
		{"expired cookie", []*http.Cookie{{Name: session.CookieName, Value: expiredToken}}},
		{"tampered cookie", []*http.Cookie{{Name: session.CookieName, Value: tampered}}},
		{"garbage cookie", []*http.Cookie{{Name: session.CookieName, Value: "not-a-token"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "GET", "/api/admin/submissions", nil, tt.cookies...)
			assertStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	for _, method := range []string{"GET", "POST"} {
		t.Run(method, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rr := env.do(t, method, "/api/admin/logout", nil)
			assertStatus(t, rr, http.StatusOK)

			c := sessionCookie(rr)
			if c == nil {
				t.Fatal("expected clearing cookie")
			}
			if c.Value != "" || c.MaxAge >= 0 {
				t.Errorf("cookie not cleared: value=%q MaxAge=%d", c.Value, c.MaxAge)
			}
		})
	}
}

func TestLogout_StatelessReplayStillValid(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedAdmin(t, "admin@example.com", true)
	c := env.login(t, "admin@example.com")

	assertStatus(t, env.do(t, "POST", "/api/admin/logout", nil, c), http.StatusOK)

	// A browser drops the cookie, so the follow-up call carries none.
	assertStatus(t, env.do(t, "GET", "/api/admin/submissions", nil), http.StatusUnauthorized)

	// Without a revocation list the token itself stays valid until expiry.
	assertStatus(t, env.do(t, "GET", "/api/admin/submissions", nil, c), http.StatusOK)
}

func TestLogout_RevokedReplayRejected(t *testing.T) {
	env := newTestEnv(t, session.NewMemoryRevoker())
	env.seedAdmin(t, "admin@example.com", true)
	c := env.login(t, "admin@example.com")

	assertStatus(t, env.do(t, "POST", "/api/admin/logout", nil, c), http.StatusOK)
	assertStatus(t, env.do(t, "GET", "/api/admin/submissions", nil, c), http.StatusUnauthorized)
}

func TestSession_DescribesCaller(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.seedAdmin(t, "admin@example.com", true)
	c := env.login(t, "admin@example.com")

	rr := env.do(t, "GET", "/api/admin/session", nil, c)
	assertStatus(t, rr, http.StatusOK)

	var resp sessionResponse
	decodeJSON(t, rr, &resp)
	if resp.ID != admin.ID || resp.Email != "admin@example.com" {
		t.Errorf("session = %+v", resp)
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Errorf("expiresAt %q: %v", resp.ExpiresAt, err)
	}

	assertStatus(t, env.do(t, "GET", "/api/admin/session", nil), http.StatusUnauthorized)
}

// ---------------------------------------------------------------------------
// Submissions listing
// ---------------------------------------------------------------------------

func TestSubmissions_Pagination(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedAdmin(t, "admin@example.com", true)
	c := env.login(t, "admin@example.com")

	for i := 0; i < 3; i++ {
		sub := &model.Submission{
			Name: "Patient", Email: "p@example.com", Phone: "1",
			Message: "hello", PreferredAppointmentDate: "2026-11-03",
		}
		if err := env.store.CreateSubmission(context.Background(), sub); err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
	}

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantRows     int
	}{
		{"defaults", "", 1, defaultPageSize, 3},
		{"second page", "?page=2&pageSize=2", 2, 2, 1},
		{"page size clamped high", "?pageSize=1000", 1, maxPageSize, 3},
		{"page size clamped low", "?pageSize=0", 1, 1, 1},
		{"negative page", "?page=-4", 1, defaultPageSize, 3},
		{"page beyond any offset", "?page=9223372036854775807", math.MaxInt, defaultPageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "GET", "/api/admin/submissions"+tt.query, nil, c)
			assertStatus(t, rr, http.StatusOK)

			var page model.SubmissionPage
			decodeJSON(t, rr, &page)
			if page.Total != 3 {
				t.Errorf("total = %d, want 3", page.Total)
			}
			if page.Page != tt.wantPage || page.PageSize != tt.wantPageSize {
				t.Errorf("page=%d pageSize=%d, want %d/%d", page.Page, page.PageSize, tt.wantPage, tt.wantPageSize)
			}
			if len(page.Submissions) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(page.Submissions), tt.wantRows)
			}
		})
	}
}
