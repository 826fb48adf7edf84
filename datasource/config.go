package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that reads and writes as "1s", "250ms", ...
type Duration time.Duration

// MarshalJSON encodes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Config represents the application configuration
type Config struct {
	Port int `json:"port"`

	// Fake source behaviour
	Days         int      `json:"days"`
	FetchDelay   Duration `json:"fetchDelay"`
	FetchTimeout Duration `json:"fetchTimeout"` // 0 disables the per-fetch deadline
	Outcomes     []string `json:"outcomes"`
	Seed         int64    `json:"seed"` // 0 means seed from the clock

	RateLimit struct {
		Enabled bool    `json:"enabled"`
		RPS     float64 `json:"rps"`
		Burst   int     `json:"burst"`
	} `json:"rateLimit"`

	// Path to the SQLite transition journal; empty disables it
	JournalPath string `json:"journalPath"`
}

// LoadConfig loads configuration from a JSON file on top of DefaultConfig
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return config, nil
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	config := &Config{
		Port:         8080,
		Days:         defaultFakeDays,
		FetchDelay:   Duration(defaultFakeDelay),
		FetchTimeout: Duration(10 * time.Second),
		Outcomes:     []string{"success", "success", "timeout"},
	}
	config.RateLimit.Enabled = false
	config.RateLimit.RPS = 1.0
	config.RateLimit.Burst = 5
	return config
}

// ApplyEnv overrides fields from WEATHER_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("WEATHER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEATHER_PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("WEATHER_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEATHER_DAYS: %w", err)
		}
		c.Days = days
	}
	if v := os.Getenv("WEATHER_FETCH_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WEATHER_FETCH_DELAY: %w", err)
		}
		c.FetchDelay = Duration(d)
	}
	if v := os.Getenv("WEATHER_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WEATHER_FETCH_TIMEOUT: %w", err)
		}
		c.FetchTimeout = Duration(d)
	}
	if v := os.Getenv("WEATHER_OUTCOMES"); v != "" {
		c.Outcomes = strings.Split(v, ",")
	}
	if v := os.Getenv("WEATHER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WEATHER_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("WEATHER_JOURNAL_PATH"); v != "" {
		c.JournalPath = v
	}
	return nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Days < 1 {
		return errors.New("days must be at least 1")
	}
	if c.FetchDelay < 0 || c.FetchTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if _, err := c.ParsedOutcomes(); err != nil {
		return err
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("rate limit needs rps > 0 and burst >= 1")
	}
	return nil
}

// ParsedOutcomes converts the configured outcome names
func (c *Config) ParsedOutcomes() ([]Outcome, error) {
	if len(c.Outcomes) == 0 {
		return nil, errors.New("at least one outcome is required")
	}
	outcomes := make([]Outcome, 0, len(c.Outcomes))
	for _, name := range c.Outcomes {
		o, err := ParseOutcome(name)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// NewSource builds the configured forecast source, rate limited if enabled
func (c *Config) NewSource() (ForecastSource, error) {
	outcomes, err := c.ParsedOutcomes()
	if err != nil {
		return nil, err
	}

	opts := []FakeOption{
		WithDelay(time.Duration(c.FetchDelay)),
		WithDays(c.Days),
		WithOutcomes(outcomes...),
	}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}

	var source ForecastSource = NewFakeSource(opts...)
	if c.RateLimit.Enabled {
		source = NewRateLimitedForecastSource(source, c.RateLimit.RPS, c.RateLimit.Burst)
	}
	return source, nil
}
