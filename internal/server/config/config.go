// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the uCredit server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the REST and gRPC APIs.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for identity tokens (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: lifetime of tokens issued at login.
//   - OutboxPath: bolt file for pending secondary updates. Empty keeps them in memory.
//   - ReconcileInterval / ReconcileBatchSize: how often and how much the reconciler drains.
//   - LogBackend: "slog" or "zap".
//   - SeedSamples: create sample data at startup.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: plan export storage.
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	OutboxPath                  string
	ReconcileInterval           time.Duration
	ReconcileBatchSize          int
	LogBackend                  string
	SeedSamples                 bool
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":4567"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.OutboxPath = ""
	c.ReconcileInterval = 30 * time.Second
	c.ReconcileBatchSize = 100
	c.LogBackend = "slog"
	c.SeedSamples = false
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "plans"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
