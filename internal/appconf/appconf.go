// Package appconf loads runtime configuration from a .env file, the
// environment and command line flags, in increasing order of precedence.
package appconf

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fli.dev/internal/utils"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

func ParseEnvironment(s string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case Development, Test, Production:
		return env, nil
	case "":
		return Development, nil
	default:
		return "", fmt.Errorf("invalid environment %q (development|test|production)", s)
	}
}

// Config holds all the configuration settings for the application.
type Config struct {
	Env      Environment
	LogLevel string

	HTTPTimeout      time.Duration
	RateLimit        int
	RateWindow       time.Duration
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	FlightAttempts   int
	CalendarAttempts int

	CacheTTL time.Duration
	RedisURL string
	DBPath   string

	AirportsCSV string
	AirlinesCSV string

	Port         int
	APIRateLimit int
	// APIKeys, when set, are required as the "key" query parameter.
	APIKeys []string
	// TrustedProxies are the IPs or CIDR ranges allowed to set
	// X-Forwarded-For. Without them the socket address identifies clients.
	TrustedProxies []string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env:              Development,
		LogLevel:         "info",
		HTTPTimeout:      30 * time.Second,
		RateLimit:        10,
		RateWindow:       time.Second,
		BackoffBase:      time.Second,
		BackoffMax:       10 * time.Second,
		FlightAttempts:   3,
		CalendarAttempts: 1,
		CacheTTL:         5 * time.Minute,
		Port:             8000,
		APIRateLimit:     100,
	}
}

// Load reads .env (a missing file is fine), then FLI_* environment
// variables, then flags from args.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	cfg := Default()
	if err := cfg.fromEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	flags := flag.NewFlagSet("fli", flag.ContinueOnError)
	cfg.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// RegisterFlags binds the flag overrides to cfg. Current values are the
// defaults.
func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.Func("env", "Environment (development|test|production)", func(s string) error {
		env, err := ParseEnvironment(s)
		c.Env = env
		return err
	})
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	flags.IntVar(&c.Port, "port", c.Port, "API server port")
	flags.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "Search result cache TTL, 0 disables")
	flags.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis URL for a shared result cache")
	flags.StringVar(&c.DBPath, "db", c.DBPath, "SQLite fare history database path")
	flags.Func("api-keys", "Comma separated API keys required by the REST server", func(s string) error {
		c.APIKeys = splitKeys(s)
		return nil
	})
	flags.Func("trusted-proxies", "Comma separated proxy IPs or CIDR ranges whose X-Forwarded-For is honored", func(s string) error {
		c.TrustedProxies = splitKeys(s)
		return nil
	})
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

type lookupFunc func(string) (string, bool)

func (c *Config) fromEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
				return
			}
			*dst = d
		}
	}

	if v, ok := lookup("FLI_ENV"); ok {
		env, err := ParseEnvironment(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FLI_ENV: %w", err))
		} else {
			c.Env = env
		}
	}
	str("FLI_LOG_LEVEL", &c.LogLevel)
	dur("FLI_HTTP_TIMEOUT", &c.HTTPTimeout)
	num("FLI_RATE_LIMIT", &c.RateLimit)
	dur("FLI_RATE_WINDOW", &c.RateWindow)
	dur("FLI_BACKOFF_BASE", &c.BackoffBase)
	dur("FLI_BACKOFF_MAX", &c.BackoffMax)
	num("FLI_FLIGHT_ATTEMPTS", &c.FlightAttempts)
	num("FLI_CALENDAR_ATTEMPTS", &c.CalendarAttempts)
	dur("FLI_CACHE_TTL", &c.CacheTTL)
	str("FLI_REDIS_URL", &c.RedisURL)
	str("FLI_DB_PATH", &c.DBPath)
	str("FLI_AIRPORTS_CSV", &c.AirportsCSV)
	str("FLI_AIRLINES_CSV", &c.AirlinesCSV)
	num("PORT", &c.Port)
	num("FLI_API_RATE_LIMIT", &c.APIRateLimit)
	if v, ok := lookup("FLI_API_KEYS"); ok && v != "" {
		c.APIKeys = splitKeys(v)
	}
	if v, ok := lookup("FLI_TRUSTED_PROXIES"); ok && v != "" {
		c.TrustedProxies = splitKeys(v)
	}

	return errors.Join(errs...)
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.FlightAttempts < 1 || c.CalendarAttempts < 1 {
		errs = append(errs, errors.New("attempt counts must be at least 1"))
	}
	if c.BackoffMax < c.BackoffBase {
		errs = append(errs, errors.New("backoff max must not be below backoff base"))
	}
	if c.Env == Test && c.DBPath != "" && c.DBPath != ":memory:" {
		errs = append(errs, errors.New("test environment must use an in-memory database"))
	}
	if _, err := utils.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
