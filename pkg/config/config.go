package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Backend  BackendConfig  `json:"backend" yaml:"backend"`
	Geocoder GeocoderConfig `json:"geocoder" yaml:"geocoder"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	Viewer   ViewerConfig   `json:"viewer" yaml:"viewer"`
}

// ServerConfig for the local presentation server
type ServerConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         string `json:"port" yaml:"port"`
	ReadTimeout  int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeout int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
}

// BackendConfig for the events API
type BackendConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	MediaBaseURL   string `json:"media_base_url" yaml:"media_base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// GeocoderConfig for reverse geocoding
type GeocoderConfig struct {
	BaseURL        string   `json:"base_url" yaml:"base_url"`
	UserAgent      string   `json:"user_agent" yaml:"user_agent"`
	LocalityFields []string `json:"locality_fields" yaml:"locality_fields"`
	TimeoutSeconds int      `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SessionConfig for the local session store
type SessionConfig struct {
	DatabasePath string `json:"database_path" yaml:"database_path"`
}

// ViewerConfig describes the person using the app
type ViewerConfig struct {
	Timezone    string `json:"timezone" yaml:"timezone"`
	BlurDelayMS int    `json:"blur_delay_ms" yaml:"blur_delay_ms"`
}

// Load reads configuration from file and environment variables.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
// Environment variables override file values using the pattern WHATSON_SECTION_KEY
func Load(configPath string) (*Config, error) {
	config := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := decode(configPath, data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyDefaults(config)

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

func decode(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "127.0.0.1"
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 30
	}
	if config.Backend.TimeoutSeconds == 0 {
		config.Backend.TimeoutSeconds = 30
	}
	if config.Geocoder.BaseURL == "" {
		config.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if config.Geocoder.UserAgent == "" {
		config.Geocoder.UserAgent = "WhatsOn/1.0"
	}
	if len(config.Geocoder.LocalityFields) == 0 {
		config.Geocoder.LocalityFields = []string{"state_district"}
	}
	if config.Geocoder.TimeoutSeconds == 0 {
		config.Geocoder.TimeoutSeconds = 10
	}
	if config.Session.DatabasePath == "" {
		config.Session.DatabasePath = "./whats-on.db"
	}
	if config.Viewer.Timezone == "" {
		config.Viewer.Timezone = "Local"
	}
	if config.Viewer.BlurDelayMS == 0 {
		config.Viewer.BlurDelayMS = 200
	}
}

func applyEnvOverrides(config *Config) error {
	// Server overrides
	if v := os.Getenv("WHATSON_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("WHATSON_SERVER_PORT"); v != "" {
		config.Server.Port = v
	}

	// Backend overrides
	if v := os.Getenv("WHATSON_BACKEND_BASE_URL"); v != "" {
		config.Backend.BaseURL = v
	}
	if v := os.Getenv("WHATSON_BACKEND_MEDIA_BASE_URL"); v != "" {
		config.Backend.MediaBaseURL = v
	}
	if v := os.Getenv("WHATSON_BACKEND_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WHATSON_BACKEND_TIMEOUT_SECONDS: %w", err)
		}
		config.Backend.TimeoutSeconds = n
	}

	// Geocoder overrides
	if v := os.Getenv("WHATSON_GEOCODER_BASE_URL"); v != "" {
		config.Geocoder.BaseURL = v
	}
	if v := os.Getenv("WHATSON_GEOCODER_USER_AGENT"); v != "" {
		config.Geocoder.UserAgent = v
	}
	if v := os.Getenv("WHATSON_GEOCODER_LOCALITY_FIELDS"); v != "" {
		var fields []string
		for _, field := range strings.Split(v, ",") {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
		config.Geocoder.LocalityFields = fields
	}

	// Session and viewer overrides
	if v := os.Getenv("WHATSON_SESSION_DATABASE_PATH"); v != "" {
		config.Session.DatabasePath = v
	}
	if v := os.Getenv("WHATSON_VIEWER_TIMEZONE"); v != "" {
		config.Viewer.Timezone = v
	}
	if v := os.Getenv("WHATSON_VIEWER_BLUR_DELAY_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WHATSON_VIEWER_BLUR_DELAY_MS: %w", err)
		}
		config.Viewer.BlurDelayMS = n
	}

	return nil
}

// Address returns the listen address of the presentation server
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *GeocoderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location resolves the configured IANA timezone.
func (c *ViewerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *ViewerConfig) BlurDelay() time.Duration {
	return time.Duration(c.BlurDelayMS) * time.Millisecond
}

// Validate checks if required configurations are present
func (c *Config) Validate() error {
	var missing []string

	if c.Backend.BaseURL == "" {
		missing = append(missing, "backend.base_url")
	}
	if c.Geocoder.UserAgent == "" {
		missing = append(missing, "geocoder.user_agent")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if _, err := c.Viewer.Location(); err != nil {
		return fmt.Errorf("invalid viewer.timezone %q: %w", c.Viewer.Timezone, err)
	}
	if c.Viewer.BlurDelayMS < 0 {
		return fmt.Errorf("invalid viewer.blur_delay_ms: %d", c.Viewer.BlurDelayMS)
	}

	return nil
}
