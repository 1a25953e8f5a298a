// Package captcha verifies reCAPTCHA v3 tokens submitted with the public
// contact form.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultVerifyURL is Google's token verification endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// DefaultMinScore is the lowest v3 score accepted as human.
const DefaultMinScore = 0.5

// ErrRejected is returned when the provider answered but the token did not
// pass. Any other error from Verify means the provider could not be asked.
var ErrRejected = errors.New("captcha rejected")

// Verifier checks a client-side CAPTCHA token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Response is the siteverify JSON body.
type Response struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Recaptcha verifies tokens against the siteverify API.
type Recaptcha struct {
	secret   string
	minScore float64
	verify   string
	client   *http.Client
}

// Option customizes a Recaptcha verifier.
type Option func(*Recaptcha)

// WithVerifyURL points the verifier at a different endpoint (tests, proxies).
func WithVerifyURL(u string) Option {
	return func(r *Recaptcha) { r.verify = u }
}

// WithHTTPClient replaces the default 5s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Recaptcha) { r.client = c }
}

// WithMinScore overrides DefaultMinScore.
func WithMinScore(score float64) Option {
	return func(r *Recaptcha) { r.minScore = score }
}

// NewRecaptcha builds a verifier for the given server-side secret.
func NewRecaptcha(secret string, opts ...Option) *Recaptcha {
	r := &Recaptcha{
		secret:   secret,
		minScore: DefaultMinScore,
		verify:   DefaultVerifyURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Verify posts the token to the provider. It returns nil when the token is
// valid and its score meets the threshold, an error wrapping ErrRejected
// when it does not, and a plain error when the provider is unreachable or
// answers with something other than a verification result.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: missing token", ErrRejected)
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verify, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("captcha verify: unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return fmt.Errorf("captcha verify: decode response: %w", err)
	}

	if !out.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(out.ErrorCodes, ","))
	}
	if out.Score < r.minScore {
		return fmt.Errorf("%w: score %.2f below %.2f", ErrRejected, out.Score, r.minScore)
	}
	return nil
}

// Disabled accepts every token. It exists for local development where no
// reCAPTCHA secret is configured.
type Disabled struct{}

func (Disabled) Verify(context.Context, string, string) error { return nil }
