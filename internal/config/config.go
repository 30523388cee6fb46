// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package config loads the application configuration in three layers:
// built-in defaults, an optional YAML file, then PINDROP_-prefixed
// environment variables. Config is immutable after Load and safe for
// concurrent reads.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pindrop/pindrop/internal/validation"
)

// DefaultConfigPaths is searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pindrop/config.yaml",
	"/etc/pindrop/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "PINDROP_CONFIG"

// envPrefix namespaces Pindrop's environment variables.
const envPrefix = "PINDROP_"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	Geocoder  GeocoderConfig  `koanf:"geocoder"`
	Session   SessionConfig   `koanf:"session"`
	Upload    UploadConfig    `koanf:"upload"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	CORS      CORSConfig      `koanf:"cors"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BackendConfig points at the external diary service.
type BackendConfig struct {
	BaseURL                 string        `koanf:"base_url" validate:"required,url"`
	Timeout                 time.Duration `koanf:"timeout"`
	Principal               string        `koanf:"principal"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerCooldown         time.Duration `koanf:"breaker_cooldown"`
}

// GeocoderConfig points at the reverse-geocoding service.
type GeocoderConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// SessionConfig controls the browser session cookie and state registry.
type SessionConfig struct {
	// Secret signs the session cookie. Empty generates an ephemeral secret,
	// which invalidates sessions on restart.
	Secret        string        `koanf:"secret"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	StateTTL      time.Duration `koanf:"state_ttl"`
	SecureCookies bool          `koanf:"secure_cookies"`
}

// UploadConfig bounds the upload sequence.
type UploadConfig struct {
	LocationTimeout time.Duration `koanf:"location_timeout"`
	MaxBytes        int64         `koanf:"max_bytes" validate:"gt=0"`
}

// RateLimitConfig bounds request rates per client IP.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"gt=0"`
	Window   time.Duration `koanf:"window"`
}

// CORSConfig lists the allowed browser origins.
type CORSConfig struct {
	Origins []string `koanf:"origins"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig supplies the first layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:                 "http://localhost:7071/api/app",
			Timeout:                 30 * time.Second,
			BreakerFailureThreshold: 5,
			BreakerCooldown:         30 * time.Second,
		},
		Geocoder: GeocoderConfig{
			BaseURL:           "https://api.bigdatacloud.net/data/reverse-geocode-client",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
			CacheTTL:          24 * time.Hour,
		},
		Session: SessionConfig{
			TokenTTL: 24 * time.Hour,
			StateTTL: 12 * time.Hour,
		},
		Upload: UploadConfig{
			LocationTimeout: 5 * time.Second,
			MaxBytes:        32 << 20,
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := coerceOrigins(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every section's constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(c.Backend); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := validation.ValidateStruct(c.Geocoder); err != nil {
		return fmt.Errorf("geocoder: %w", err)
	}
	if err := validation.ValidateStruct(c.Upload); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := validation.ValidateStruct(c.RateLimit); err != nil {
		return fmt.Errorf("ratelimit: %w", err)
	}
	if err := validation.ValidateStruct(c.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// findConfigFile honors the env override, then the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps PINDROP_SECTION_FIELD_NAME to section.field_name. The
// first underscore after the prefix separates the section; later underscores
// stay part of the field name.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key
	}
	return parts[0] + "." + parts[1]
}

// coerceOrigins splits a comma-separated CORS origin list supplied through a
// single environment variable.
func coerceOrigins(k *koanf.Koanf) error {
	val := k.Get("cors.origins")
	strVal, ok := val.(string)
	if !ok || strVal == "" {
		return nil
	}

	parts := strings.Split(strVal, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if err := k.Set("cors.origins", origins); err != nil {
		return fmt.Errorf("set cors.origins: %w", err)
	}
	return nil
}
