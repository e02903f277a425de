package folio

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/folio/media"
)

// Database drivers accepted in SiteConfig.DatabaseDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string // Site name (default "Folio")
	URL         string // Canonical URL (default "http://localhost:4000")
	Description string // Site description for RSS and meta tags

	Addr           string // Listen address (default ":4000")
	DatabaseDriver string // "sqlite" (default) or "postgres"
	DatabasePath   string // SQLite path (default "data/folio.db")
	DatabaseURL    string // Postgres DSN, required for the postgres driver

	SessionSecret string // Flash cookie secret; random per process when empty
	CookieSecure  bool   // Set true for HTTPS

	StaticDir     string // User static assets served under /public (default "public")
	MaxUploadSize int64  // Largest accepted feature image in bytes (default 10MiB)

	LogLevel  string // debug, info, warn, error (default info)
	LogFormat string // json (default) or text

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Media media.Config // Object store used for feature images
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Folio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:4000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":4000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = DriverSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 10 << 20
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 2 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
}

func (c *SiteConfig) validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.MaxUploadSize < 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	switch c.Media.Backend {
	case "", media.BackendS3, media.BackendLocal:
	default:
		return fmt.Errorf("unknown OBJECT_STORE_BACKEND %q", c.Media.Backend)
	}
	return nil
}

// LoadConfig reads configuration from environment variables, applies
// defaults, and validates the result.
func LoadConfig() (SiteConfig, error) {
	cfg := SiteConfig{
		Name:           os.Getenv("SITE_NAME"),
		URL:            os.Getenv("SITE_URL"),
		Description:    os.Getenv("SITE_DESCRIPTION"),
		Addr:           os.Getenv("ADDR"),
		DatabaseDriver: strings.ToLower(os.Getenv("DATABASE_DRIVER")),
		DatabasePath:   os.Getenv("DATABASE_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		CookieSecure:   strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		StaticDir:      os.Getenv("STATIC_DIR"),
		MaxUploadSize:  envInt64("MAX_UPLOAD_SIZE", 0),
		LogLevel:       EnvOr("LOG_LEVEL", "info"),
		LogFormat:      EnvOr("LOG_FORMAT", "json"),
		ReadTimeout:    envDuration("HTTP_READ_TIMEOUT", 0),
		WriteTimeout:   envDuration("HTTP_WRITE_TIMEOUT", 0),
		IdleTimeout:    envDuration("HTTP_IDLE_TIMEOUT", 0),
		Media: media.Config{
			Backend:   strings.ToLower(os.Getenv("OBJECT_STORE_BACKEND")),
			Bucket:    os.Getenv("OBJECT_STORE_BUCKET"),
			AccessKey: os.Getenv("OBJECT_STORE_ACCESS_KEY"),
			Secret:    os.Getenv("OBJECT_STORE_SECRET"),
			Region:    os.Getenv("OBJECT_STORE_REGION"),
			Endpoint:  os.Getenv("OBJECT_STORE_ENDPOINT"),
			PublicURL: os.Getenv("OBJECT_STORE_PUBLIC_URL"),
		},
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithContentService replaces the bundled SQL store.
func WithContentService(cs ContentService) Option {
	return func(a *App) {
		a.Content = cs
	}
}

// WithMediaStore replaces the object store built from Config.Media.
func WithMediaStore(ms media.Store) Option {
	return func(a *App) {
		a.Media = ms
	}
}

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}
