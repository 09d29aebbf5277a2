package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnv        = "development"
	defaultDBPath     = "./dev.db"
	defaultPort       = "8080"
	defaultLinkTTL    = 15 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultLoginLimit = 5
	defaultSMTPPort   = 587
	defaultLogLevel   = "info"
	devSessionSecret  = "dev-only-session-secret"
	productionEnv     = "production"
	jsonLogFormat     = "json"
	consoleLogFormat  = "console"
	allowedEmailsSep  = ","
)

// SMTP holds the outgoing mail relay settings.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env                  string
	Port                 string
	DBPath               string
	SessionSecret        string
	AllowedEmails        []string
	BootstrapAccessToken string
	MagicLinkTTL         time.Duration
	SessionTTL           time.Duration
	MagicLinkBaseURL     string
	// LoginRateLimit is the number of sign-in attempts allowed per email or client per hour.
	LoginRateLimit int
	SMTP           SMTP
	LogLevel       string
	LogFormat      string

	warnings []string
}

// Load reads .env when present, then the environment. Variables already set in the
// environment win over the file.
func Load() Config {
	_ = godotenv.Load(".env")
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, filling defaults and recording warnings.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		Env:                  strings.ToLower(strings.TrimSpace(getenv("APP_ENV"))),
		Port:                 getenv("PORT"),
		DBPath:               getenv("DB_PATH"),
		SessionSecret:        getenv("SESSION_SECRET"),
		AllowedEmails:        splitList(getenv("ALLOWED_EMAILS")),
		BootstrapAccessToken: strings.TrimSpace(getenv("BOOTSTRAP_ACCESS_TOKEN")),
		MagicLinkBaseURL:     strings.TrimSpace(getenv("MAGIC_LINK_BASE_URL")),
		SMTP: SMTP{
			Host:     getenv("SMTP_HOST"),
			User:     getenv("SMTP_USER"),
			Password: getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM"),
		},
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT")),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.MagicLinkBaseURL == "" {
		cfg.MagicLinkBaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = consoleLogFormat
		if !cfg.IsDev() {
			cfg.LogFormat = jsonLogFormat
		}
	}

	cfg.MagicLinkTTL = cfg.duration(getenv, "MAGIC_LINK_TTL", defaultLinkTTL)
	cfg.SessionTTL = cfg.duration(getenv, "SESSION_TTL", defaultSessionTTL)
	cfg.LoginRateLimit = cfg.positiveInt(getenv, "LOGIN_RATE_LIMIT", defaultLoginLimit)
	cfg.SMTP.Port = cfg.positiveInt(getenv, "SMTP_PORT", defaultSMTPPort)

	if cfg.SessionSecret == "" {
		cfg.warn("SESSION_SECRET is not set")
		if cfg.IsDev() {
			cfg.SessionSecret = devSessionSecret
		}
	}
	if len(cfg.AllowedEmails) == 0 && cfg.BootstrapAccessToken == "" {
		cfg.warn("neither ALLOWED_EMAILS nor BOOTSTRAP_ACCESS_TOKEN is set; nobody can sign in")
	}
	if cfg.SMTP.Host == "" {
		cfg.warn("SMTP_HOST is not set; magic links are written to the log")
	}

	return cfg
}

// IsDev reports whether the app runs outside production.
func (c Config) IsDev() bool {
	return c.Env != productionEnv
}

// SMTPEnabled reports whether magic links should go out by email.
func (c Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

// Warnings lists configuration problems that do not stop startup.
func (c Config) Warnings() []string {
	return c.warnings
}

// Validate returns an error for settings that must not reach production.
func (c Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required in production"))
	}
	if c.SMTPEnabled() && c.SMTP.From == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) warn(msg string) {
	c.warnings = append(c.warnings, msg)
}

func (c *Config) duration(getenv func(string) string, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.warn(key + " is not a valid duration, using " + def.String())
		return def
	}
	return d
}

func (c *Config) positiveInt(getenv func(string) string, key string, def int) int {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.warn(key + " is not a positive integer, using " + strconv.Itoa(def))
		return def
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, allowedEmailsSep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
