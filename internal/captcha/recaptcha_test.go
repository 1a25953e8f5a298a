package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newSiteverify(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("secret"); got != "server-secret" {
			t.Errorf("secret = %q", got)
		}
		if got := r.PostForm.Get("response"); got != "client-token" {
			t.Errorf("response = %q", got)
		}
		if got := r.PostForm.Get("remoteip"); got != "203.0.113.7" {
			t.Errorf("remoteip = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecaptchaVerify(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      bool
		wantRejected bool
	}{
		{
			name:   "human",
			status: http.StatusOK,
			body:   `{"success":true,"score":0.9,"action":"contact"}`,
		},
		{
			name:   "exactly at threshold",
			status: http.StatusOK,
			body:   `{"success":true,"score":0.5}`,
		},
		{
			name:         "low score",
			status:       http.StatusOK,
			body:         `{"success":true,"score":0.1}`,
			wantErr:      true,
			wantRejected: true,
		},
		{
			name:         "provider says invalid",
			status:       http.StatusOK,
			body:         `{"success":false,"error-codes":["invalid-input-response"]}`,
			wantErr:      true,
			wantRejected: true,
		},
		{
			name:    "provider error status",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: true,
		},
		{
			name:    "garbage body",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSiteverify(t, tt.status, tt.body, nil)
			v := NewRecaptcha("server-secret", WithVerifyURL(srv.URL))

			err := v.Verify(context.Background(), "client-token", "203.0.113.7")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrRejected); got != tt.wantRejected {
				t.Errorf("errors.Is(err, ErrRejected) = %v, want %v (err=%v)", got, tt.wantRejected, err)
			}
		})
	}
}

func TestRecaptchaMinScoreOption(t *testing.T) {
	srv := newSiteverify(t, http.StatusOK, `{"success":true,"score":0.6}`, nil)
	v := NewRecaptcha("server-secret", WithVerifyURL(srv.URL), WithMinScore(0.7))

	if err := v.Verify(context.Background(), "client-token", "203.0.113.7"); !errors.Is(err, ErrRejected) {
		t.Errorf("expected rejection with raised threshold, got %v", err)
	}
}

func TestRecaptchaMissingTokenSkipsProvider(t *testing.T) {
	var calls int32
	srv := newSiteverify(t, http.StatusOK, `{"success":true,"score":1}`, &calls)
	v := NewRecaptcha("server-secret", WithVerifyURL(srv.URL))

	if err := v.Verify(context.Background(), "  ", "203.0.113.7"); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
	if calls != 0 {
		t.Errorf("provider called %d times, want 0", calls)
	}
}

func TestRecaptchaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewRecaptcha("server-secret", WithVerifyURL(url))
	err := v.Verify(context.Background(), "client-token", "")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, ErrRejected) {
		t.Errorf("transport failure must not look like a rejection: %v", err)
	}
}

func TestDisabled(t *testing.T) {
	if err := (Disabled{}).Verify(context.Background(), "", ""); err != nil {
		t.Errorf("Disabled.Verify() = %v", err)
	}
}
