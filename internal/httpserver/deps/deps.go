package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linkaudit/internal/audit"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/metrics"
	"github.com/MrSnakeDoc/linkaudit/internal/session"
	"github.com/MrSnakeDoc/linkaudit/internal/sources/secrets"
)

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time // for testing, defaults to time.Now
	AllowedHosts       []string         // Host headers allowed to access the server
	AllowedCIDRS       []string         // IPs allowed to access operator endpoints
	TrustProxy         bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Audit              *audit.Service   // Search, selection and probe operations
	Sessions           session.Store    // Session backend (memory or redis)
	SessionBackend     string           // "memory" or "redis"
	Credentials        *secrets.Holder  // Search credentials in force
	SecretsFile        string           // Path to the secrets file ("" if env only)
	RedisClient        *redis.Client    // Redis client connection (nil when sessions live in memory)
	Metrics            *metrics.Metrics // Prometheus collectors
	DefaultCount       int              // Target record count when a search omits it
	SearchBurst        int              // Searches allowed in a burst per client IP
	SearchRefillPerMin int              // Search tokens refilled per client IP per minute
	ReloadTrigger      chan struct{}    // Channel to trigger manual credentials reload (nil if no secrets file)
}
