// Package config loads the server configuration from a YAML file, a .env
// file and the environment.
package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
	Search      SearchConfig      `yaml:"search"`
	Elastic     ElasticConfig     `yaml:"elastic"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Redis       RedisConfig       `yaml:"redis"`
	Worker      WorkerConfig      `yaml:"worker"`
}

// AppConfig holds general settings.
type AppConfig struct {
	Name string `yaml:"name" env:"APP_NAME" env-default:"staffdesk"`
	Env  string `yaml:"env"  env:"APP_ENV"  env-default:"development"`
}

// IsDevelopment reports whether the app runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ConnectWait     time.Duration `yaml:"connect_wait"       env:"DATABASE_CONNECT_WAIT"       env-default:"30s"`
}

// AuthConfig holds token validation settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"staffdesk"`
	ClockSkew time.Duration `yaml:"clock_skew" env:"AUTH_CLOCK_SKEW" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Request-ID"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// SearchConfig bounds list and export calls.
type SearchConfig struct {
	ExportMaxRows int `yaml:"export_max_rows" env:"SEARCH_EXPORT_MAX_ROWS" env-default:"10000"`
}

// ElasticConfig enables the full-text index when Addresses is set.
type ElasticConfig struct {
	Addresses   string        `yaml:"addresses"    env:"ELASTIC_ADDRESSES"`
	Username    string        `yaml:"username"     env:"ELASTIC_USERNAME"`
	Password    string        `yaml:"password"     env:"ELASTIC_PASSWORD"`
	IndexPrefix string        `yaml:"index_prefix" env:"ELASTIC_INDEX_PREFIX" env-default:"staffdesk"`
	Timeout     time.Duration `yaml:"timeout"      env:"ELASTIC_TIMEOUT"      env-default:"5s"`
}

// Enabled reports whether a cluster is configured.
func (e ElasticConfig) Enabled() bool {
	return len(e.AddressList()) > 0
}

// AddressList splits Addresses on commas.
func (e ElasticConfig) AddressList() []string {
	return SplitList(e.Addresses)
}

// Preference store backends.
const (
	PreferencesPostgres = "postgres"
	PreferencesRedis    = "redis"
)

// PreferencesConfig selects where user preferences live.
type PreferencesConfig struct {
	Store string        `yaml:"store" env:"PREFERENCES_STORE" env-default:"postgres"`
	TTL   time.Duration `yaml:"ttl"   env:"PREFERENCES_TTL"   env-default:"0s"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address   string `yaml:"address"    env:"REDIS_ADDRESS"    env-default:"localhost:6379"`
	Password  string `yaml:"password"   env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db"         env:"REDIS_DB"         env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"staffdesk"`
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	ReindexInterval  time.Duration `yaml:"reindex_interval"   env:"WORKER_REINDEX_INTERVAL"   env-default:"6h"`
	ReindexBatchSize int           `yaml:"reindex_batch_size" env:"WORKER_REINDEX_BATCH_SIZE" env-default:"500"`
	// AuditRetention deletes audit entries older than this. Zero keeps them forever.
	AuditRetention time.Duration `yaml:"audit_retention" env:"WORKER_AUDIT_RETENTION" env-default:"0s"`
}

// SplitList splits a comma-separated setting and drops blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
