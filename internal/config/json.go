package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"sentinel/fraud-monitor/internal/domain"
)

// Duration accepts either a Go duration string ("15s") or an integer number
// of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val))
		return nil
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	return errors.New("invalid duration")
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// JSONConfig is the on-disk shape of the config file. It is seeded from the
// current Config before decoding, so keys absent from the file keep their
// previous values.
type JSONConfig struct {
	Addr                    string            `json:"addr"`
	DatasetPath             string            `json:"dataset_path"`
	ReportPath              string            `json:"report_path"`
	Interval                Duration          `json:"interval"`
	Thresholds              domain.Thresholds `json:"thresholds"`
	NormalizeFrequencyDates bool              `json:"normalize_frequency_dates"`
	Seed                    int64             `json:"seed"`
	LogLevel                string            `json:"log_level"`
	LogFormat               string            `json:"log_format"`
	Webhooks                []Webhook         `json:"webhooks"`
}

// parseJSONFile overlays the file at path onto cfg.
func parseJSONFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	jc := JSONConfig{
		Addr:                    cfg.Addr,
		DatasetPath:             cfg.DatasetPath,
		ReportPath:              cfg.ReportPath,
		Interval:                Duration(cfg.Interval),
		Thresholds:              cfg.Thresholds,
		NormalizeFrequencyDates: cfg.NormalizeFrequencyDates,
		Seed:                    cfg.Seed,
		LogLevel:                cfg.LogLevel,
		LogFormat:               cfg.LogFormat,
		Webhooks:                cfg.Webhooks,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Addr = jc.Addr
	cfg.DatasetPath = jc.DatasetPath
	cfg.ReportPath = jc.ReportPath
	cfg.Interval = time.Duration(jc.Interval)
	cfg.Thresholds = jc.Thresholds
	cfg.NormalizeFrequencyDates = jc.NormalizeFrequencyDates
	cfg.Seed = jc.Seed
	cfg.LogLevel = jc.LogLevel
	cfg.LogFormat = jc.LogFormat
	cfg.Webhooks = jc.Webhooks
	return nil
}
