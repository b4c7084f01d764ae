package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level chatbot configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Azure     AzureConfig     `yaml:"azure"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
	Methods []string `yaml:"methods"`
}

// AzureConfig holds the Azure OpenAI connection. When LocalMode is set, or
// any of Endpoint/Key/Deployment is blank, the service answers with the
// local mock provider instead of calling out.
type AzureConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Key        string `yaml:"key"`
	Deployment string `yaml:"deployment"`
	Timeout    string `yaml:"timeout"`
	MaxTokens  int    `yaml:"max_tokens"`
	LocalMode  bool   `yaml:"local_mode"`
}

// AuthConfig controls API key hashing and the admin token.
type AuthConfig struct {
	KeySalt     string `yaml:"key_salt"`
	AdminSecret string `yaml:"admin_secret"`
	AdminExpiry string `yaml:"admin_expiry"`
}

// RateLimitConfig controls the per-key sliding window and the IP throttle
// on key generation.
type RateLimitConfig struct {
	Requests    int    `yaml:"requests"`
	Window      string `yaml:"window"`
	KeygenPerIP int    `yaml:"keygen_per_ip"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			CORS: CORSConfig{
				Origins: []string{"*"},
				Methods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			},
		},
		Azure: AzureConfig{
			Timeout:   "15s",
			MaxTokens: 200,
		},
		Auth: AuthConfig{
			AdminExpiry: "1h",
		},
		RateLimit: RateLimitConfig{
			Requests:    100,
			Window:      "1h",
			KeygenPerIP: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ParseDuration parses a duration string, falling back to def when the
// string is empty or malformed.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
