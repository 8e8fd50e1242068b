package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gyeh/npi-match/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "npi-match.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Registry.Delay() != 500*time.Millisecond {
		t.Errorf("default delay = %s, want 500ms", cfg.Registry.Delay())
	}
	if cfg.Registry.Timeout() != 10*time.Second {
		t.Errorf("default timeout = %s, want 10s", cfg.Registry.Timeout())
	}
	if cfg.Registry.Retries != 0 {
		t.Errorf("default retries = %d, want 0", cfg.Registry.Retries)
	}
	if cfg.Registry.BaseURL != "https://npiregistry.cms.hhs.gov/api/" {
		t.Errorf("default base URL = %q", cfg.Registry.BaseURL)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != config.Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[registry]
delay_ms = 250
retries = 2

[logging]
level = "debug"

[output]
format = "json"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Registry.Delay() != 250*time.Millisecond {
		t.Errorf("delay = %s", cfg.Registry.Delay())
	}
	if cfg.Registry.Retries != 2 {
		t.Errorf("retries = %d", cfg.Registry.Retries)
	}
	if cfg.Registry.TimeoutSeconds != 10 {
		t.Errorf("timeout should keep default, got %d", cfg.Registry.TimeoutSeconds)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Output.Format != "json" || !cfg.Output.Summary {
		t.Errorf("output = %+v", cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[registry\n", "parse config"},
		{"unknown key", "[registry]\nspeed = 3\n", "parse config"},
		{"negative delay", "[registry]\ndelay_ms = -1\n", "registry.delay_ms"},
		{"negative retries", "[registry]\nretries = -2\n", "registry.retries"},
		{"zero timeout", "[registry]\ntimeout_seconds = 0\n", "registry.timeout_seconds"},
		{"relative base url", "[registry]\nbase_url = \"/api\"\n", "registry.base_url"},
		{"bad level", "[logging]\nlevel = \"trace\"\n", "logging.level"},
		{"bad log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad output format", "[output]\nformat = \"xlsx\"\n", "output.format"},
		{"bad encoding", "[input]\nencoding = \"latin9\"\n", "input.encoding"},
		{"push without job", "[metrics]\npush_url = \"http://pushgateway:9091\"\njob = \"\"\n", "metrics.job"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !strings.Contains(err.Error(), "open config") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestSampleMatchesDefaults(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.Sample()), &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample invalid: %v", err)
	}
	def := config.Default()
	if cfg.Registry != def.Registry {
		t.Errorf("sample registry %+v differs from default %+v", cfg.Registry, def.Registry)
	}
	if cfg.Logging != def.Logging {
		t.Errorf("sample logging %+v differs from default %+v", cfg.Logging, def.Logging)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse to overwrite")
	}
}
