// Package config loads relay configuration: built-in defaults first, then
// the YAML file when present, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all offer-relay configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Redis   RedisConfig   `yaml:"redis"`
	Gateway GatewayConfig `yaml:"gateway"`
	Routing RoutingConfig `yaml:"routing"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OracleConfig configures the extraction oracle.
type OracleConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RedisConfig configures the Redis connection. An empty host disables Redis
// and every feature that persists through it degrades to in-process state.
type RedisConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// Addr returns the host:port dial address.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// GatewayConfig configures the chat gateway client.
type GatewayConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Token     string  `yaml:"token"`
	SendRPS   float64 `yaml:"send_rps"`
	SendBurst int     `yaml:"send_burst"`
}

// RoutingConfig is the static routing data loaded at startup: which source
// channels are eligible, which languages to produce, where each (category,
// language) pair goes, and the optional broadcast channel.
type RoutingConfig struct {
	SourceChannels   []string                     `yaml:"source_channels"`
	Languages        []string                     `yaml:"languages"`
	BroadcastChannel string                       `yaml:"broadcast_channel"`
	Table            map[string]map[string]string `yaml:"table"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Oracle: OracleConfig{
			Model: "gpt-4o",
		},
		Redis: RedisConfig{
			Port: "6379",
		},
		Gateway: GatewayConfig{
			SendRPS:   1,
			SendBurst: 3,
		},
		Routing: RoutingConfig{
			Languages: []string{"en", "hi", "mr"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file is not an
// error: defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Oracle.APIKey = key
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		c.Redis.Port = port
	}
	if base := os.Getenv("GATEWAY_BASE_URL"); base != "" {
		c.Gateway.BaseURL = base
	}
	if token := os.Getenv("GATEWAY_API_TOKEN"); token != "" {
		c.Gateway.Token = token
	}
	if addr := os.Getenv("RELAY_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// normalize forces canonical casing on routing keys so lookups against
// upper-cased categories and lower-cased language codes always line up.
func (c *Config) normalize() {
	c.Routing.Languages = lowerAll(c.Routing.Languages)

	if c.Routing.Table == nil {
		return
	}
	table := make(map[string]map[string]string, len(c.Routing.Table))
	for category, byLang := range c.Routing.Table {
		langs := make(map[string]string, len(byLang))
		for lang, channel := range byLang {
			langs[strings.ToLower(strings.TrimSpace(lang))] = strings.TrimSpace(channel)
		}
		table[strings.ToUpper(strings.TrimSpace(category))] = langs
	}
	c.Routing.Table = table
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports the first configuration defect found.
func (c *Config) Validate() error {
	if c.Oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key is required (or set OPENAI_API_KEY)")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required (or set GATEWAY_BASE_URL)")
	}
	if c.Gateway.Token == "" {
		return fmt.Errorf("gateway.token is required (or set GATEWAY_API_TOKEN)")
	}
	if len(c.Routing.SourceChannels) == 0 {
		return fmt.Errorf("routing.source_channels must name at least one channel")
	}
	if len(c.Routing.Languages) == 0 {
		return fmt.Errorf("routing.languages must name at least one language")
	}
	if len(c.Routing.Table) == 0 {
		return fmt.Errorf("routing.table must map at least one category")
	}
	known := make(map[string]bool, len(c.Routing.Languages))
	for _, lang := range c.Routing.Languages {
		known[lang] = true
	}
	for category, byLang := range c.Routing.Table {
		if len(byLang) == 0 {
			return fmt.Errorf("routing.table.%s maps no languages", category)
		}
		for lang, channel := range byLang {
			if !known[lang] {
				return fmt.Errorf("routing.table.%s uses language %q not in routing.languages", category, lang)
			}
			if channel == "" {
				return fmt.Errorf("routing.table.%s.%s has an empty channel id", category, lang)
			}
		}
	}
	return nil
}
