// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes relay settings such
// as server timeouts, logging, storage, credential verification, WebSocket
// limits, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is the placeholder signing secret used when JWT_SECRET is
// unset. It is never acceptable outside local development.
const DefaultJWTSecret = "YOUR_SUPER_SECRET_KEY"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-chat-relay")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig holds bearer credential verification settings.
type AuthConfig struct {
	Secret        string        // JWT_SECRET (HS256)
	Issuer        string        // JWT_ISSUER; empty disables the issuer check
	RequireSecure bool          // JWT_REQUIRE_SECURE: refuse to start with the default secret in release mode
	DevTokenTTL   time.Duration // JWT_DEV_TOKEN_TTL (cmd/token default)
	usingDefault  bool
}

// WSConfig holds per-connection WebSocket limits.
type WSConfig struct {
	AllowedOrigins  []string      // WS_ALLOWED_ORIGINS; empty allows any origin
	MaxMessageBytes int64         // WS_MAX_MESSAGE_BYTES
	SendBuffer      int           // WS_SEND_BUFFER (queued outbound events per connection)
	WriteWait       time.Duration // WS_WRITE_WAIT
	PongWait        time.Duration // WS_PONG_WAIT; pings are sent at 9/10 of it
	EventsPerSecond float64       // WS_EVENTS_PER_SECOND (inbound, per connection)
	EventBurst      int           // WS_EVENT_BURST
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DatabaseURL string // Postgres DSN
	RedisURL    string // optional; enables Redis presence publishing

	// Chat
	MessageMaxRunes int

	Auth AuthConfig
	WS   WSConfig

	// Rate limiting (HTTP)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// InsecureJWTSecret reports whether the signing secret is the built-in default.
func (c Config) InsecureJWTSecret() bool {
	return c.Auth.usingDefault || c.Auth.Secret == DefaultJWTSecret
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	secret := getenv("JWT_SECRET", "")
	usingDefault := secret == ""
	if usingDefault {
		secret = DefaultJWTSecret
	}

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:      getenv("DB_PATH", "relay.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		RedisURL:    getenv("REDIS_URL", ""),

		MessageMaxRunes: getint("MESSAGE_MAX_RUNES", 4000),

		Auth: AuthConfig{
			Secret:        secret,
			Issuer:        getenv("JWT_ISSUER", ""),
			RequireSecure: getbool("JWT_REQUIRE_SECURE", false),
			DevTokenTTL:   getdur("JWT_DEV_TOKEN_TTL", 24*time.Hour),
			usingDefault:  usingDefault,
		},

		WS: WSConfig{
			AllowedOrigins:  splitCSV(getenv("WS_ALLOWED_ORIGINS", "")),
			MaxMessageBytes: int64(getint("WS_MAX_MESSAGE_BYTES", 16<<10)),
			SendBuffer:      getint("WS_SEND_BUFFER", 256),
			WriteWait:       getdur("WS_WRITE_WAIT", 10*time.Second),
			PongWait:        getdur("WS_PONG_WAIT", 60*time.Second),
			EventsPerSecond: getfloat("WS_EVENTS_PER_SECOND", 10),
			EventBurst:      getint("WS_EVENT_BURST", 20),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-chat-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DBDriver == "postgresql" || cfg.DBDriver == "pg" {
		cfg.DBDriver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.MessageMaxRunes < 1 {
		return cfg, errors.New("MESSAGE_MAX_RUNES must be >= 1")
	}
	if cfg.Auth.RequireSecure && cfg.GinMode == "release" && cfg.InsecureJWTSecret() {
		return cfg, errors.New("JWT_SECRET must be set to a non-default value in release mode")
	}
	if cfg.WS.MaxMessageBytes <= 0 {
		return cfg, errors.New("WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.WS.SendBuffer < 1 {
		return cfg, errors.New("WS_SEND_BUFFER must be >= 1")
	}
	if cfg.WS.WriteWait <= 0 || cfg.WS.PongWait <= 0 {
		return cfg, errors.New("WS_WRITE_WAIT and WS_PONG_WAIT must be positive durations")
	}
	if cfg.WS.EventsPerSecond < 0 {
		return cfg, errors.New("WS_EVENTS_PER_SECOND must be >= 0")
	}
	if cfg.WS.EventBurst < 1 {
		return cfg, errors.New("WS_EVENT_BURST must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
