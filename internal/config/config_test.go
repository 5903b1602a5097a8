package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	_ "time/tzdata"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openhours.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/openhours/data"
  sqlite_path: "/tmp/openhours/rules.db"
server:
  host: "0.0.0.0"
  port: 8080
  grpc_port: 9090
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
logging:
  level: "info"
  format: "json"
facilities:
  - id: museum
    name: "City Museum"
    timezone: Europe/Berlin
    holidays:
      kind: germany
      region: NW
    rules:
      - valid_from: "2014-04-29 22:00:00 +0000"
        valid_to: "2014-07-07 21:59:59 +0000"
        start: "14:00"
        end: "20:00"
        weekdays: [MONDAY, TUESDAY, WEDNESDAY, THURSDAY, FRIDAY]
  - id: exchange
    holidays:
      kind: market
    rules_file: rules/exchange.yaml
`)

	// Clear any environment overrides that might interfere.
	for _, k := range []string{"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "APCA_API_BASE_URL", "OPENHOURS_DATA_DIR", "OPENHOURS_PORT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/openhours/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/openhours/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/openhours/rules.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/openhours/rules.db")
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Server.GRPCPort != 9090 {
		t.Errorf("Server.GRPCPort = %d, want %d", cfg.Server.GRPCPort, 9090)
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}

	// -- Logging --
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// -- Facilities --
	if len(cfg.Facilities) != 2 {
		t.Fatalf("len(Facilities) = %d, want 2", len(cfg.Facilities))
	}
	museum := cfg.Facilities[0]
	if museum.Holidays.Kind != HolidaysGermany || museum.Holidays.Region != "NW" {
		t.Errorf("museum holidays = %+v, want germany/NW", museum.Holidays)
	}
	if len(museum.Rules) != 1 || museum.Rules[0].Start != "14:00" || len(museum.Rules[0].Weekdays) != 5 {
		t.Errorf("museum rules = %+v", museum.Rules)
	}
	loc, err := museum.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("Location = %s, want Europe/Berlin", loc)
	}
	if cfg.Facilities[1].RulesFile != "rules/exchange.yaml" {
		t.Errorf("exchange RulesFile = %q", cfg.Facilities[1].RulesFile)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	t.Setenv("APCA_API_KEY_ID", "env-key")
	t.Setenv("APCA_API_SECRET_KEY", "")
	t.Setenv("OPENHOURS_DATA_DIR", "/env/data")
	t.Setenv("OPENHOURS_PORT", "8181")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181 (env override)", cfg.Server.Port)
	}
	// Defaults fill what neither YAML nor env set.
	if cfg.Server.GRPCPort != 9090 {
		t.Errorf("Server.GRPCPort = %d, want default 9090", cfg.Server.GRPCPort)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"missing id", "facilities:\n  - name: x\n", "missing id"},
		{"duplicate", "facilities:\n  - id: a\n  - id: a\n", "duplicate"},
		{"bad timezone", "facilities:\n  - id: a\n    timezone: Mars/Olympus\n", "timezone"},
		{"bad kind", "facilities:\n  - id: a\n    holidays:\n      kind: lunar\n", "unknown holidays kind"},
		{"no region", "facilities:\n  - id: a\n    holidays:\n      kind: germany\n", "region"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.yaml))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("Load() error = %v, want containing %q", err, c.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("OPENHOURS_CONFIG", "")
	if Path() != DefaultPath {
		t.Errorf("Path() = %q, want %q", Path(), DefaultPath)
	}
	t.Setenv("OPENHOURS_CONFIG", "/etc/openhours.yaml")
	if Path() != "/etc/openhours.yaml" {
		t.Errorf("Path() = %q, want override", Path())
	}
}
