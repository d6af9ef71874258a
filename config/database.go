package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"eventdesk"`
	Password string `env:"PASSWORD"                envDefault:"eventdesk"`
	Name     string `env:"NAME"                    envDefault:"eventdesk"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	// ConnectTimeout bounds the total time spent retrying the initial connection.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	// Enabled toggles Redis usage. When disabled, caching is skipped and rate
	// limiting falls back to an in-process limiter.
	Enabled            bool     `env:"ENABLED"              envDefault:"true"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheConfig contains cache configuration (Redis-based).
type CacheConfig struct {
	// EvaluationTTL is the TTL for cached evaluation rows keyed by event.
	EvaluationTTL time.Duration `env:"CACHE_EVALUATION_TTL" envDefault:"30s"`
}

// Sanitize clamps cache TTLs.
func (c *CacheConfig) Sanitize() {
	if c.EvaluationTTL < 0 {
		c.EvaluationTTL = 0
	}
	if c.EvaluationTTL > 10*time.Minute {
		c.EvaluationTTL = 10 * time.Minute
	}
}
