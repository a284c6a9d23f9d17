// Package config assembles runtime settings for the server: built-in
// defaults, then an optional JSON file, then command-line flags, then the
// PORT environment variable.
package config

import (
	"errors"
	"fmt"
	"time"

	"sentinel/fraud-monitor/internal/domain"
)

// Config holds runtime settings for the fraud monitor.
//
// Fields:
//   - Addr: HTTP listen address.
//   - DatasetPath / ReportPath: the two JSON artifacts the service owns.
//   - Interval: time between generator cycles.
//   - Thresholds: the amount and income cutoffs shared by every rule.
//   - NormalizeFrequencyDates: group the same-day rule by calendar date.
//   - Seed: random source seed for the generator; 0 means time-based.
//   - LogLevel / LogFormat: see package logging.
//   - Webhooks: endpoints registered at startup.
type Config struct {
	Addr                    string
	DatasetPath             string
	ReportPath              string
	Interval                time.Duration
	Thresholds              domain.Thresholds
	NormalizeFrequencyDates bool
	Seed                    int64
	LogLevel                string
	LogFormat               string
	Webhooks                []Webhook
}

// Webhook is a startup webhook registration.
type Webhook struct {
	URL         string `json:"url"`
	MinAccounts int    `json:"min_accounts"`
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatasetPath = "public/dataset.json"
	c.ReportPath = "public/fraudDetails.json"
	c.Interval = 15 * time.Second
	c.Thresholds = domain.DefaultThresholds()
	c.NormalizeFrequencyDates = false
	c.Seed = 0
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.Webhooks = nil
}

// Load builds a Config from defaults, the JSON file named by -c (if any),
// the remaining flags in args and finally getenv("PORT"). getenv may be nil.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fv, err := parseFlags(args, cfg)
	if err != nil {
		return nil, err
	}
	if fv.configFile != "" {
		if err := parseJSONFile(fv.configFile, cfg); err != nil {
			return nil, err
		}
	}
	fv.apply(cfg)

	if getenv != nil {
		if port := getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: addr is required")
	case c.DatasetPath == "":
		return errors.New("config: dataset path is required")
	case c.ReportPath == "":
		return errors.New("config: report path is required")
	case c.Interval <= 0:
		return fmt.Errorf("config: interval must be positive, got %s", c.Interval)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
