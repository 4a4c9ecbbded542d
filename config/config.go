package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBase  = "https://api.twitter.com/2"
	DefaultLimit    = 20
	DefaultAddr     = ":8080"
	DefaultCacheTTL = 30 * time.Second
	EnvHosted       = "hosted"
	defaultEnvFile  = ".env"
)

// Config carries everything the service reads from the process environment.
// It is built once at startup and passed to the components that need it.
type Config struct {
	// BearerToken authenticates against the X API. Empty means fallback data only.
	BearerToken string

	// APIBaseURL is the X API v2 root, without a trailing slash.
	APIBaseURL string

	// Hosted enables the response cache. Local runs never touch it.
	Hosted bool

	// DatabaseURL selects the Postgres cache store when set.
	DatabaseURL string

	// DefaultLimit is used when a request carries no usable limit.
	DefaultLimit int

	// Addr is the listen address of the HTTP server.
	Addr string

	// CacheTTL is how long a cached timeline stays fresh.
	CacheTTL time.Duration
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	if err := godotenv.Load(defaultEnvFile); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Could not load %s: %v", defaultEnvFile, err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests can feed their own values.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		BearerToken: strings.TrimSpace(getenv("X_BEARER_TOKEN")),
		APIBaseURL:  strings.TrimRight(strings.TrimSpace(getenv("X_API_BASE")), "/"),
		Hosted:      strings.EqualFold(getenv("XBOARD_ENV"), EnvHosted) || getenv("NETLIFY") != "",
		DatabaseURL: getenv("DATABASE_URL"),
	}

	if v := getenv("TIMELINE_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultLimit = n
		} else {
			log.Printf("⚠️  Ignoring invalid TIMELINE_DEFAULT_LIMIT=%q", v)
		}
	}
	if port := getenv("PORT"); port != "" {
		cfg.Addr = ":" + strings.TrimPrefix(port, ":")
	}

	cfg.defaults()
	return cfg
}

// defaults fills zero-value fields.
func (cfg *Config) defaults() {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBase
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
}
