// Package content reads the clinic's brochure documents from the headless
// content store over its HTTP query API and builds CDN URLs for the
// images those documents reference.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Config identifies the content project. It is fixed for the lifetime of
// the process.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string // e.g. "2023-01-01"
	UseCDN     bool
	Token      string // optional read token for private datasets
	Timeout    time.Duration

	// BaseURL and CDNBaseURL override the hosted endpoints.
	BaseURL    string
	CDNBaseURL string
}

// Client runs read-only queries against the content API.
type Client struct {
	cfg        Config
	queryURL   string
	cdnBase    string
	httpClient *http.Client
}

// APIError is a non-2xx answer from the content API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("content api: %d %s", e.Status, e.Message)
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("content: project id is required")
	}
	if strings.TrimSpace(cfg.Dataset) == "" {
		return nil, errors.New("content: dataset is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-01-01"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	base := cfg.BaseURL
	if base == "" {
		host := "api"
		if cfg.UseCDN && cfg.Token == "" {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host)
	}
	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = "https://cdn.sanity.io"
	}

	return &Client{
		cfg: cfg,
		queryURL: fmt.Sprintf("%s/v%s/data/query/%s",
			strings.TrimRight(base, "/"),
			strings.TrimPrefix(cfg.APIVersion, "v"),
			url.PathEscape(cfg.Dataset)),
		cdnBase:    strings.TrimRight(cdn, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ProjectID returns the configured project id.
func (c *Client) ProjectID() string { return c.cfg.ProjectID }

// Dataset returns the configured dataset.
func (c *Client) Dataset() string { return c.cfg.Dataset }

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
}

// Query runs a GROQ query and decodes its result into dest. Params are
// passed as $name query parameters with JSON-encoded values. A null result
// leaves dest untouched.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, dest any) error {
	q := url.Values{}
	q.Set("query", query)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := json.Marshal(params[name])
		if err != nil {
			return fmt.Errorf("encode param %s: %w", name, err)
		}
		q.Set("$"+name, string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build content request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read content response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var out queryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode content response: %w", err)
	}
	if dest == nil || len(out.Result) == 0 || string(out.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(out.Result, dest); err != nil {
		return fmt.Errorf("decode content result: %w", err)
	}
	return nil
}

// errorMessage digs the human-readable part out of an error body. The API
// answers either {"error":{"description":...}} or {"error":"...","message":"..."}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Description string `json:"description"`
			Type        string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Description != "" {
		return nested.Error.Description
	}
	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &flat) == nil {
		if flat.Message != "" {
			return flat.Message
		}
		if flat.Error != "" {
			return flat.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
