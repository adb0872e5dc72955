package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, must cover a full probe batch (ex: 10m)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Search provider
	APIKey                string        // Custom Search API key (optional when SecretsFile is set)
	EngineID              string        // Programmable Search engine id (cx)
	SecretsFile           string        // optional YAML file with google_api_key / search_engine_id
	SecretsReloadInterval time.Duration // how often the secrets file is re-read (default: 1h)
	SearchBaseURL         string        // provider host, overridable for testing
	PageDelay             time.Duration // fixed pause before each page (default: 300ms, negative disables)
	DefaultCount          int           // results requested when the caller gives none (default: 50)

	// Link probing
	ProbeTimeout time.Duration // per-URL probe timeout (default: 10s)

	// Sessions
	SessionTTL time.Duration // how long a search session is kept (default: 1h)
	GCInterval time.Duration // interval to sweep expired in-memory sessions (default: 5m)

	// Redis (optional, empty RedisAddr => in-memory sessions)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts       []string // optional, restrict access to specific Host headers
	AllowedCIDRS       []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy         bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	SearchBurst        int      // searches allowed in a burst per client IP
	SearchRefillPerMin int      // searches refilled per minute per client IP
}

// RedisEnabled reports whether sessions should be stored in Redis.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func Load() *Config {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LINKAUDIT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("LINKAUDIT_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("LINKAUDIT_REQUEST_TIMEOUT", 10*time.Minute),

		// Logging
		LogLevel:  getenv("LINKAUDIT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKAUDIT_PRETTY_LOG", true),

		// Search provider
		APIKey:                getenv("LINKAUDIT_GOOGLE_API_KEY", ""),
		EngineID:              getenv("LINKAUDIT_SEARCH_ENGINE_ID", ""),
		SecretsFile:           getenv("LINKAUDIT_SECRETS_FILE", ""),
		SecretsReloadInterval: mustDuration("LINKAUDIT_SECRETS_RELOAD_INTERVAL", time.Hour),
		SearchBaseURL:         getenv("LINKAUDIT_SEARCH_BASE_URL", "https://www.googleapis.com"),
		PageDelay:             mustDuration("LINKAUDIT_PAGE_DELAY", 300*time.Millisecond),
		DefaultCount:          getenvInt("LINKAUDIT_DEFAULT_COUNT", 50),

		// Probing
		ProbeTimeout: mustDuration("LINKAUDIT_PROBE_TIMEOUT", 10*time.Second),

		// Sessions
		SessionTTL: mustDuration("LINKAUDIT_SESSION_TTL", time.Hour),
		GCInterval: mustDuration("LINKAUDIT_GC_INTERVAL", 5*time.Minute),

		// Redis settings
		RedisAddr:             getenv("LINKAUDIT_REDIS_ADDR", ""),
		RedisUser:             getenv("LINKAUDIT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("LINKAUDIT_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("LINKAUDIT_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:       splitAndTrim(getenv("LINKAUDIT_ALLOWED_HOSTS", "")),
		AllowedCIDRS:       splitAndTrim(getenv("LINKAUDIT_ALLOWED_CIDRS", "")),
		TrustProxy:         mustBool("LINKAUDIT_TRUST_PROXY", false),
		SearchBurst:        getenvInt("LINKAUDIT_SEARCH_BURST", 5),
		SearchRefillPerMin: getenvInt("LINKAUDIT_SEARCH_REFILL_PER_MIN", 10),
	}

	if cfg.RedisEnabled() {
		cfg.RedisDB = requireEnvInt("LINKAUDIT_REDIS_DB")

		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: LINKAUDIT_REDIS_PASSWORD is required when LINKAUDIT_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	if cfg.SessionTTL <= 0 {
		panic(fmt.Sprintf("❌ FATAL: LINKAUDIT_SESSION_TTL must be > 0, got %v", cfg.SessionTTL))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.APIKey != "" {
			cfgCopy.APIKey = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
