package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"openhours/internal/domain"
)

// DefaultPath is used when OPENHOURS_CONFIG is not set.
const DefaultPath = "config/openhours.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the opening-hours service.
type Config struct {
	Storage    Storage    `yaml:"storage"`
	Server     Server     `yaml:"server"`
	Alpaca     Alpaca     `yaml:"alpaca"`
	Logging    Logging    `yaml:"logging"`
	Facilities []Facility `yaml:"facilities"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`

	// WriteRatePerMinute caps rule changes through the HTTP API; zero
	// disables the limit.
	WriteRatePerMinute int `yaml:"write_rate_per_minute"`
	WriteBurst         int `yaml:"write_burst"`
}

// Alpaca holds credentials and endpoints for the Alpaca trading API, used
// by the market-calendar holiday oracle.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Facility describes one place with opening hours.
type Facility struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Timezone string   `yaml:"timezone"`
	Holidays Holidays `yaml:"holidays"`
	// RulesFile is a YAML rules file; Rules are used when it is empty.
	RulesFile string            `yaml:"rules_file"`
	Rules     []domain.RuleSpec `yaml:"rules"`
}

// Holiday oracle kinds.
const (
	HolidaysNone    = "none"
	HolidaysGermany = "germany"
	HolidaysDates   = "dates"
	HolidaysMarket  = "market"
)

// Holidays selects the holiday oracle of a facility.
type Holidays struct {
	Kind   string   `yaml:"kind"`
	Region string   `yaml:"region"`
	Dates  []string `yaml:"dates"`
}

// Location loads the facility's timezone, UTC when unset.
func (f Facility) Location() (*time.Location, error) {
	if f.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return nil, fmt.Errorf("facility %s: timezone: %w", f.ID, err)
	}
	return loc, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns the configuration path from OPENHOURS_CONFIG or DefaultPath.
func Path() string {
	if v := os.Getenv("OPENHOURS_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks facility definitions.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Facilities))
	for i, f := range c.Facilities {
		if f.ID == "" {
			return fmt.Errorf("facilities[%d]: missing id", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("facility %s: duplicate id", f.ID)
		}
		seen[f.ID] = true

		if _, err := f.Location(); err != nil {
			return err
		}
		switch f.Holidays.Kind {
		case "", HolidaysNone, HolidaysDates, HolidaysMarket:
		case HolidaysGermany:
			if f.Holidays.Region == "" {
				return fmt.Errorf("facility %s: germany holidays need a region", f.ID)
			}
		default:
			return fmt.Errorf("facility %s: unknown holidays kind %q", f.ID, f.Holidays.Kind)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9090
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "openhours.db"
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENHOURS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("OPENHOURS_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("OPENHOURS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OPENHOURS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPENHOURS_GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.GRPCPort = port
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars, the canonical names used by the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
}
