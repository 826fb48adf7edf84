package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Days != 7 || time.Duration(cfg.FetchDelay) != time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"port": 9090,
		"days": 8,
		"fetchDelay": "250ms",
		"outcomes": ["timeout"],
		"rateLimit": {"enabled": true, "rps": 2, "burst": 1}
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9090 || cfg.Days != 8 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if time.Duration(cfg.FetchDelay) != 250*time.Millisecond {
		t.Errorf("FetchDelay = %s", time.Duration(cfg.FetchDelay))
	}
	if time.Duration(cfg.FetchTimeout) != 10*time.Second {
		t.Errorf("FetchTimeout default lost: %s", time.Duration(cfg.FetchTimeout))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	src, err := cfg.NewSource()
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, ok := src.(*RateLimitedForecastSource); !ok {
		t.Errorf("expected a rate limited source, got %T", src)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("WEATHER_PORT", "7070")
		t.Setenv("WEATHER_DAYS", "8")
		t.Setenv("WEATHER_FETCH_DELAY", "5ms")
		t.Setenv("WEATHER_OUTCOMES", "success,timeout")
		t.Setenv("WEATHER_JOURNAL_PATH", "/tmp/journal.db")

		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv: %v", err)
		}
		if cfg.Port != 7070 || cfg.Days != 8 || time.Duration(cfg.FetchDelay) != 5*time.Millisecond {
			t.Errorf("unexpected values: %+v", cfg)
		}
		if len(cfg.Outcomes) != 2 || cfg.JournalPath != "/tmp/journal.db" {
			t.Errorf("unexpected values: %+v", cfg)
		}
	})

	t.Run("BadPort", func(t *testing.T) {
		t.Setenv("WEATHER_PORT", "eighty")
		if err := DefaultConfig().ApplyEnv(); err == nil {
			t.Fatal("expected an error for a non-numeric port")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero days", func(c *Config) { c.Days = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"unknown outcome", func(c *Config) { c.Outcomes = []string{"drizzle"} }},
		{"no outcomes", func(c *Config) { c.Outcomes = nil }},
		{"negative delay", func(c *Config) { c.FetchDelay = Duration(-time.Second) }},
		{"rate limit without rps", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RPS = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
