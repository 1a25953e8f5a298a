package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/clinicsite/clinicsite/internal/captcha"
	"github.com/clinicsite/clinicsite/internal/config"
	"github.com/clinicsite/clinicsite/internal/content"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
	"github.com/clinicsite/clinicsite/internal/store"
)

// loadConfig decodes the merged viper settings. Commands that only touch
// the database skip Validate so they work without session or CAPTCHA
// secrets.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newLogger builds the process logger from log.level and log.format. Logs
// go to stderr so stdout stays clean for command output and MCP stdio.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Pool:   cfg.Database.Pool,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	return st, nil
}

// openPages returns nil when no content project is configured.
func openPages(cfg *config.Config, logger *slog.Logger) (*content.Pages, error) {
	if !cfg.ContentEnabled() {
		return nil, nil
	}
	client, err := content.New(content.Config{
		ProjectID:  cfg.Content.ProjectID,
		Dataset:    cfg.Content.Dataset,
		APIVersion: cfg.Content.APIVersion,
		UseCDN:     cfg.Content.UseCDN,
		Token:      cfg.Content.Token,
		Timeout:    cfg.Content.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("content client: %w", err)
	}
	var cache *content.Cache
	if cfg.Content.Cache {
		cache = content.NewCache(logger)
	}
	return content.NewPages(client, cache), nil
}

// requirePages is openPages for commands that cannot run without content.
func requirePages(cfg *config.Config, logger *slog.Logger) (*content.Pages, error) {
	pages, err := openPages(cfg, logger)
	if err != nil {
		return nil, err
	}
	if pages == nil {
		return nil, fmt.Errorf("content.project_id is not set (set CLINIC_CONTENT_PROJECT_ID)")
	}
	return pages, nil
}

func newVerifier(cfg *config.Config) captcha.Verifier {
	if cfg.Captcha.Disabled {
		return captcha.Disabled{}
	}
	opts := []captcha.Option{captcha.WithMinScore(cfg.Captcha.MinScore)}
	if cfg.Captcha.VerifyURL != "" {
		opts = append(opts, captcha.WithVerifyURL(cfg.Captcha.VerifyURL))
	}
	return captcha.NewRecaptcha(cfg.Captcha.Secret, opts...)
}

// promptPassword reads a password twice from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

func checkEmail(email string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// newAuthService builds the session service over the configured revocation
// backend. The returned func releases the backend.
func newAuthService(ctx context.Context, cfg *config.Config, st *store.Store) (*service.AuthService, func(), error) {
	revoker, err := session.NewRevoker(ctx, session.RevokerConfig{
		Backend:       cfg.Revocation.Backend,
		RedisAddr:     cfg.Revocation.RedisAddr,
		RedisPassword: cfg.Revocation.RedisPassword,
		RedisDB:       cfg.Revocation.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	authSvc := service.NewAuthService(st, service.AuthConfig{
		Secret:     cfg.Auth.JWTSecret,
		SessionTTL: cfg.Auth.SessionTTL,
		Issuer:     cfg.Auth.Issuer,
		Revoker:    revoker,
	})
	return authSvc, func() { revoker.Close() }, nil
}
