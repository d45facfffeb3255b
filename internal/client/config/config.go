// Package config holds the settings of the planner CLI.
package config

import "time"

// Config holds runtime settings for the uCredit CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gRPC endpoint.
//   - AccessToken: identity token sent with mutating calls.
//   - RequestTimeout: deadline for a single call.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	RequestTimeout     time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AccessToken = ""
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig applies defaults, then JSON (if -c/-config is given), then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
