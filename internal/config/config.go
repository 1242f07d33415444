package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

// Lock modes.
const (
	LockNone  = "none"
	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	// App
	Port           int           `env:"PORT"            envDefault:"8080"`
	BaseURL        string        `env:"BASE_URL"        envDefault:"http://localhost:8080"`
	LogLevel       slog.Level    `env:"LOG_LEVEL"       envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Store
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./guestlist.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// Google Sheets
	SpreadsheetID       string `env:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	ServiceAccountEmail string `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string `env:"GOOGLE_PRIVATE_KEY"`
	InvitesTab          string `env:"INVITES_TAB"   envDefault:"Invites"`
	ResponsesTab        string `env:"RESPONSES_TAB" envDefault:"Responses"`

	// RSVP
	SubEvents    []string  `env:"SUB_EVENTS"    envDefault:"sangeet,anand_karaj,reception" envSeparator:","`
	RSVPDeadline time.Time `env:"RSVP_DEADLINE"`

	// Locking
	LockMode  string        `env:"LOCK_MODE"  envDefault:"none"`
	RedisAddr string        `env:"REDIS_ADDR"`
	LockTTL   time.Duration `env:"LOCK_TTL"   envDefault:"10s"`
	LockWait  time.Duration `env:"LOCK_WAIT"  envDefault:"5s"`

	// Google OAuth
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string   `env:"GOOGLE_REDIRECT_URL"`
	AdminEmails        []string `env:"ADMIN_EMAILS" envSeparator:","`

	// Session
	SessionSecret string `env:"SESSION_SECRET" envDefault:"change-me-in-production"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	cfg.SubEvents = trimList(cfg.SubEvents)
	cfg.AdminEmails = trimList(cfg.AdminEmails)
	// Keys pasted into a single env line carry literal \n sequences.
	cfg.PrivateKey = strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.LockMode = strings.ToLower(strings.TrimSpace(cfg.LockMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendSheets:
		if c.SpreadsheetID == "" || c.ServiceAccountEmail == "" || c.PrivateKey == "" {
			errs = append(errs, errors.New("GOOGLE_SHEETS_SPREADSHEET_ID, GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY are required for the sheets backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.LockMode {
	case LockNone, LockLocal:
	case LockRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when LOCK_MODE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LOCK_MODE %q", c.LockMode))
	}

	if len(c.SubEvents) == 0 {
		errs = append(errs, errors.New("SUB_EVENTS must name at least one sub-event"))
	}
	if c.Port <= 0 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DeadlinePassed reports whether submissions are closed at now. A zero
// deadline never passes.
func (c *Config) DeadlinePassed(now time.Time) bool {
	return !c.RSVPDeadline.IsZero() && now.After(c.RSVPDeadline)
}

// IsAdminEmail reports whether email is whitelisted for the admin pages.
func (c *Config) IsAdminEmail(email string) bool {
	for _, adminEmail := range c.AdminEmails {
		if strings.EqualFold(email, adminEmail) {
			return true
		}
	}
	return false
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
