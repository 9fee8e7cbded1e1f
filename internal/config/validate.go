package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.ClockSkew < 0 || c.Auth.ClockSkew > 5*time.Minute {
		return fmt.Errorf("auth.clock_skew must be between 0 and 5m (got %s)", c.Auth.ClockSkew)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Search.ExportMaxRows <= 0 {
		return fmt.Errorf("search.export_max_rows must be > 0 (got %d)", c.Search.ExportMaxRows)
	}

	for _, addr := range c.Elastic.AddressList() {
		u, err := url.Parse(addr)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("elastic.addresses: invalid url %q", addr)
		}
	}

	switch c.Preferences.Store {
	case PreferencesPostgres:
	case PreferencesRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when preferences.store is redis")
		}
	default:
		return fmt.Errorf("preferences.store must be %q or %q (got %q)",
			PreferencesPostgres, PreferencesRedis, c.Preferences.Store)
	}
	if c.Preferences.TTL < 0 {
		return fmt.Errorf("preferences.ttl must not be negative")
	}

	if c.Worker.ReindexInterval <= 0 {
		return fmt.Errorf("worker.reindex_interval must be > 0")
	}
	if c.Worker.ReindexBatchSize <= 0 || c.Worker.ReindexBatchSize > 10000 {
		return fmt.Errorf("worker.reindex_batch_size out of range: %d", c.Worker.ReindexBatchSize)
	}
	if c.Worker.AuditRetention < 0 {
		return fmt.Errorf("worker.audit_retention must not be negative")
	}
	return nil
}
