// Package config loads the clinicsite configuration from defaults, an
// optional YAML file and CLINIC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/clinicsite/clinicsite/internal/model"
)

// EnvPrefix is prepended to every environment variable, so auth.jwt_secret
// is read from CLINIC_AUTH_JWT_SECRET.
const EnvPrefix = "CLINIC"

// MinJWTSecretLength is the shortest session signing secret accepted in
// production.
const MinJWTSecretLength = 32

// Config is the typed, validated configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Revocation RevocationConfig `mapstructure:"revocation"`
	Captcha    CaptchaConfig    `mapstructure:"captcha"`
	Content    ContentConfig    `mapstructure:"content"`
	Log        LogConfig        `mapstructure:"log"`
	MCP        MCPConfig        `mapstructure:"mcp"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins      []string      `mapstructure:"cors_origins"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	SiteURL          string        `mapstructure:"site_url"`
	Production       bool          `mapstructure:"production"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	ContactRateLimit int           `mapstructure:"contact_rate_limit"`
	LoginRateLimit   int           `mapstructure:"login_rate_limit"`
}

// DatabaseConfig selects the submissions database.
type DatabaseConfig struct {
	Driver string           `mapstructure:"driver"`
	DSN    string           `mapstructure:"dsn"`
	Pool   model.PoolConfig `mapstructure:"pool"`
}

// AuthConfig controls admin sessions.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	Issuer     string        `mapstructure:"issuer"`
}

// RevocationConfig selects where logged-out session ids are remembered.
type RevocationConfig struct {
	Backend       string `mapstructure:"backend"` // none, memory or redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// CaptchaConfig controls reCAPTCHA verification of the contact form.
type CaptchaConfig struct {
	Secret    string  `mapstructure:"secret"`
	MinScore  float64 `mapstructure:"min_score"`
	VerifyURL string  `mapstructure:"verify_url"`
	Disabled  bool    `mapstructure:"disabled"`
}

// ContentConfig identifies the content project. An empty project id
// disables the content routes.
type ContentConfig struct {
	ProjectID  string        `mapstructure:"project_id"`
	Dataset    string        `mapstructure:"dataset"`
	APIVersion string        `mapstructure:"api_version"`
	UseCDN     bool          `mapstructure:"use_cdn"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cache      bool          `mapstructure:"cache"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// MCPConfig controls the MCP server started by `clinicsite mcp`.
type MCPConfig struct {
	Transport string `mapstructure:"transport"` // stdio or http
	Addr      string `mapstructure:"addr"`
}

var defaultPool = model.DefaultPoolConfig()

// defaults is every known key with its default value. Registering each key
// also lets viper resolve it from the environment during Unmarshal.
var defaults = map[string]any{
	"server.host":               "0.0.0.0",
	"server.port":               8080,
	"server.shutdown_timeout":   30 * time.Second,
	"server.cors_origins":       []string{"http://localhost:3000"},
	"server.max_body_size":      int64(1 << 20),
	"server.site_url":           "http://localhost:3000",
	"server.production":         false,
	"server.cookie_domain":      "",
	"server.contact_rate_limit": 10,
	"server.login_rate_limit":   5,

	"database.driver":                  "sqlite",
	"database.dsn":                     "",
	"database.pool.max_open_conns":     defaultPool.MaxOpenConns,
	"database.pool.max_idle_conns":     defaultPool.MaxIdleConns,
	"database.pool.conn_max_lifetime":  defaultPool.ConnMaxLifetime,
	"database.pool.conn_max_idle_time": defaultPool.ConnMaxIdleTime,

	"auth.jwt_secret":  "",
	"auth.session_ttl": 12 * time.Hour,
	"auth.issuer":      "clinicsite",

	"revocation.backend":        "none",
	"revocation.redis_addr":     "",
	"revocation.redis_password": "",
	"revocation.redis_db":       0,

	"captcha.secret":     "",
	"captcha.min_score":  0.5,
	"captcha.verify_url": "https://www.google.com/recaptcha/api/siteverify",
	"captcha.disabled":   false,

	"content.project_id":  "",
	"content.dataset":     "production",
	"content.api_version": "2023-01-01",
	"content.use_cdn":     true,
	"content.token":       "",
	"content.timeout":     10 * time.Second,
	"content.cache":       true,

	"log.level":  "info",
	"log.format": "text",

	"mcp.transport": "stdio",
	"mcp.addr":      "127.0.0.1:3001",
}

// secretKeys are masked by Settings.
var secretKeys = map[string]bool{
	"auth.jwt_secret":           true,
	"captcha.secret":            true,
	"content.token":             true,
	"revocation.redis_password": true,
	"database.dsn":              true,
}

// SetDefaults registers defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config. It does not validate; call Validate before
// serving.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Revocation.Backend = strings.ToLower(strings.TrimSpace(cfg.Revocation.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Server.SiteURL = strings.TrimRight(cfg.Server.SiteURL, "/")
	return &cfg, nil
}

// ValidateAuth checks only the session settings, for commands that issue
// or verify session tokens without serving the site.
func (c *Config) ValidateAuth() error {
	var errs []error
	switch {
	case c.Auth.JWTSecret == "":
		errs = append(errs, errors.New("auth.jwt_secret is required (set CLINIC_AUTH_JWT_SECRET)"))
	case c.Server.Production && len(c.Auth.JWTSecret) < MinJWTSecretLength:
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes in production", MinJWTSecretLength))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// Validate reports every problem that would stop the server from serving
// correctly, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.SiteURL == "" {
		errs = append(errs, errors.New("server.site_url is required"))
	}

	if err := c.ValidateAuth(); err != nil {
		errs = append(errs, err)
	}

	switch c.Revocation.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Revocation.RedisAddr == "" {
			errs = append(errs, errors.New("revocation.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("revocation.backend %q is not one of none, memory, redis", c.Revocation.Backend))
	}

	if !c.Captcha.Disabled {
		if c.Captcha.Secret == "" {
			errs = append(errs, errors.New("captcha.secret is required unless captcha.disabled is set"))
		}
		if c.Captcha.MinScore < 0 || c.Captcha.MinScore > 1 {
			errs = append(errs, fmt.Errorf("captcha.min_score %.2f is outside [0,1]", c.Captcha.MinScore))
		}
	} else if c.Server.Production {
		errs = append(errs, errors.New("captcha.disabled is not allowed in production"))
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ContentEnabled reports whether a content project is configured.
func (c *Config) ContentEnabled() bool {
	return strings.TrimSpace(c.Content.ProjectID) != ""
}
