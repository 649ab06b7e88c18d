// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Oracle   OracleConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 2m,
	// processing a large catalog happens inside the request)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// UploadConfig holds catalog upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 16MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"16777216"`

	// AllowedExtensions are the accepted catalog file extensions
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" default:"csv,xlsx,xls,pdf"`

	// SessionDir is where processed sessions are staged between upload and
	// export; empty means the OS temp dir
	SessionDir string `env:"UPLOAD_SESSION_DIR"`

	// SessionTTL is how long a session stays retrievable (default: 2h)
	SessionTTL time.Duration `env:"UPLOAD_SESSION_TTL" default:"2h"`
}

// OracleConfig selects and tunes the inference backend.
type OracleConfig struct {
	// Provider is the generation backend: gemini or mock (default: mock)
	Provider string `env:"ORACLE_PROVIDER" default:"mock"`

	// APIKey is the Gemini API key; required when Provider is gemini
	APIKey string `env:"GEMINI_API_KEY" envAlt:"GOOGLE_API_KEY"`

	// Model is the Gemini model name (default: gemini-1.5-flash)
	Model string `env:"ORACLE_MODEL" default:"gemini-1.5-flash"`

	// MaxAttempts bounds generate+repair retries per prompt (default: 3)
	MaxAttempts int `env:"ORACLE_MAX_ATTEMPTS" default:"3"`
}

// CacheConfig selects the oracle response cache backend.
type CacheConfig struct {
	// Backend is file, memory or redis (default: file)
	Backend string `env:"CACHE_BACKEND" default:"file"`

	// Dir is the file backend's directory (default: .cache/oracle)
	Dir string `env:"CACHE_DIR" default:".cache/oracle"`

	// RedisAddr is the redis backend's host:port
	RedisAddr string `env:"CACHE_REDIS_ADDR"`

	// RedisPassword authenticates the redis connection
	RedisPassword string `env:"CACHE_REDIS_PASSWORD"`

	// RedisDB is the redis database number (default: 0)
	RedisDB int `env:"CACHE_REDIS_DB" default:"0"`

	// TTL expires redis entries; 0 keeps them forever (default: 0s)
	TTL time.Duration `env:"CACHE_TTL" default:"0s"`
}

// DatabaseConfig holds the optional run-history database settings.
// Run history is skipped entirely when URL is empty.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
