// Package config holds the settings of the ShareVault command-line client.
package config

import "time"

// Config holds runtime settings for the ShareVault CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gRPC endpoint.
//   - AccessToken: JWT issued by the admin command; empty for anonymous share access.
//   - KeyPath: file holding the client-side encryption key, created on first use.
//   - RequestTimeout: deadline applied to every call.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	KeyPath            string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.KeyPath = "sharevault.key"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
