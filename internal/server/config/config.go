// Package config assembles server settings from defaults, the environment and flags,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds server settings.
type Config struct {
	Addr      string
	DBDriver  string
	DBDSN     string
	LogLevel  string
	LogFormat string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	RateLimit       int
	RateLimitWindow time.Duration
	ShutdownTimeout time.Duration
	BcryptCost      int
	CookieSecure    bool
	// TrustProxyHeaders keys rate limits by X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// LoadDefaults returns settings suitable for local development, minus the secrets.
func LoadDefaults() *Config {
	return &Config{
		Addr:            ":8080",
		DBDriver:        DriverSQLite,
		DBDSN:           "vidtube.db",
		LogLevel:        "info",
		LogFormat:       "text",
		AccessTokenTTL:  24 * time.Hour,
		RefreshTokenTTL: 10 * 24 * time.Hour,
		RateLimit:       20,
		RateLimitWindow: time.Minute,
		ShutdownTimeout: 10 * time.Second,
		BcryptCost:      10,
		CookieSecure:    true,
	}
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(dst *int, key string) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	str(&c.Addr, "VIDTUBE_ADDR")
	str(&c.DBDriver, "VIDTUBE_DB_DRIVER")
	str(&c.DBDSN, "VIDTUBE_DB_DSN", "DATABASE_URL")
	str(&c.LogLevel, "VIDTUBE_LOG_LEVEL")
	str(&c.LogFormat, "VIDTUBE_LOG_FORMAT")
	str(&c.AccessTokenSecret, "ACCESS_TOKEN_SECRET")
	str(&c.RefreshTokenSecret, "REFRESH_TOKEN_SECRET")
	dur(&c.AccessTokenTTL, "ACCESS_TOKEN_EXPIRY")
	dur(&c.RefreshTokenTTL, "REFRESH_TOKEN_EXPIRY")
	dur(&c.RateLimitWindow, "VIDTUBE_RATE_WINDOW")
	num(&c.RateLimit, "VIDTUBE_RATE_LIMIT")

	boolean := func(dst *bool, key string) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	boolean(&c.CookieSecure, "VIDTUBE_COOKIE_SECURE")
	boolean(&c.TrustProxyHeaders, "VIDTUBE_TRUST_PROXY")

	return errors.Join(errs...)
}

// BindFlags registers flags that write straight into c.
// Call after ApplyEnv so that explicitly set flags win.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DBDriver, "db-driver", c.DBDriver, "identity store: sqlite, postgres or memory")
	fs.StringVar(&c.DBDSN, "db-dsn", c.DBDSN, "sqlite file path or postgres connection string")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
	fs.DurationVar(&c.AccessTokenTTL, "access-token-ttl", c.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-token-ttl", c.RefreshTokenTTL, "refresh token lifetime")
	fs.IntVar(&c.RateLimit, "rate-limit", c.RateLimit, "requests per window allowed on login, register and refresh")
	fs.DurationVar(&c.RateLimitWindow, "rate-window", c.RateLimitWindow, "rate limit window")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown timeout")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "bcrypt work factor")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "mark token cookies Secure")
	fs.BoolVar(&c.TrustProxyHeaders, "trust-proxy-headers", c.TrustProxyHeaders,
		"rate limit by X-Forwarded-For/X-Real-IP; enable only behind a reverse proxy")
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
		if c.DBDSN == "" {
			errs = append(errs, fmt.Errorf("db dsn is required for driver %q", c.DBDriver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown db driver %q", c.DBDriver))
	}

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.RateLimit <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("rate limit and window must be positive"))
	}

	return errors.Join(errs...)
}

// ParseDuration accepts Go durations ("15m"), plain seconds ("900") and days ("10d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
