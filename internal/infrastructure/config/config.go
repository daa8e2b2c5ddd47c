package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all host configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Transfer  TransferConfig
	Device    DeviceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// SandboxConfig locates the directories pages and capabilities work in.
type SandboxConfig struct {
	Root       string `envconfig:"SANDBOX_ROOT" default:"./data"`
	BundleDir  string `envconfig:"BUNDLE_DIR" default:"./web"`
	LibraryDir string `envconfig:"MEDIA_LIBRARY_DIR"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP HTTP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// TransferConfig tunes downloadFile and uploadFile.
type TransferConfig struct {
	Timeout           time.Duration `envconfig:"TRANSFER_TIMEOUT" default:"5m"`
	Retries           int           `envconfig:"TRANSFER_RETRIES" default:"3"`
	RequestsPerSecond float64       `envconfig:"TRANSFER_RPS" default:"0"`
}

// DeviceConfig feeds the injected systemInfo constant. Profile, when set,
// names a yaml, toml or json file applied over the other fields.
type DeviceConfig struct {
	SDKVersion   string  `envconfig:"SDK_VERSION" default:"0.1"`
	ScreenWidth  float64 `envconfig:"SCREEN_WIDTH" default:"375"`
	ScreenHeight float64 `envconfig:"SCREEN_HEIGHT" default:"812"`
	Theme        string  `envconfig:"THEME" default:"light"`
	Profile      string  `envconfig:"DEVICE_PROFILE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Sandbox: SandboxConfig{
			Root:      "./data",
			BundleDir: "./web",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Transfer: TransferConfig{
			Timeout: 5 * time.Minute,
			Retries: 3,
		},
		Device: DeviceConfig{
			SDKVersion:   "0.1",
			ScreenWidth:  375,
			ScreenHeight: 812,
			Theme:        "light",
		},
	}
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
