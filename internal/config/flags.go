package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// flagValues holds the parsed command line. Only flags that were actually
// given override the defaults and the JSON file.
type flagValues struct {
	fs         *flag.FlagSet
	configFile string

	addr        string
	dataset     string
	report      string
	interval    time.Duration
	normalize   bool
	seed        int64
	logLevel    string
	logFormat   string
	webhookURLs stringList
}

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

// parseFlags parses args without touching cfg; defaults shown in -h come
// from cfg.
//
// Supported flags:
//
//	-c string     JSON config file
//	-a string     HTTP listen address (e.g. ":8080")
//	-d string     dataset file
//	-r string     fraud report file
//	-i duration   generator interval (e.g. "15s")
//	-n            group the same-day rule by calendar date
//	-s int        generator random seed, 0 for time-based
//	-l string     log level: debug, info, warn, error
//	-f string     log format: text or json
//	-w string     webhook URL, repeatable
func parseFlags(args []string, cfg *Config) (*flagValues, error) {
	fv := &flagValues{}
	fs := flag.NewFlagSet("fraud-monitor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&fv.configFile, "c", "", "JSON config file")
	fs.StringVar(&fv.addr, "a", cfg.Addr, "HTTP listen address")
	fs.StringVar(&fv.dataset, "d", cfg.DatasetPath, "dataset file")
	fs.StringVar(&fv.report, "r", cfg.ReportPath, "fraud report file")
	fs.DurationVar(&fv.interval, "i", cfg.Interval, "generator interval")
	fs.BoolVar(&fv.normalize, "n", cfg.NormalizeFrequencyDates, "group the same-day rule by calendar date")
	fs.Int64Var(&fv.seed, "s", cfg.Seed, "generator random seed, 0 for time-based")
	fs.StringVar(&fv.logLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&fv.logFormat, "f", cfg.LogFormat, "log format")
	fs.Var(&fv.webhookURLs, "w", "webhook URL, repeatable")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	fv.fs = fs
	return fv, nil
}

// apply copies explicitly set flags onto cfg.
func (fv *flagValues) apply(cfg *Config) {
	fv.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.Addr = fv.addr
		case "d":
			cfg.DatasetPath = fv.dataset
		case "r":
			cfg.ReportPath = fv.report
		case "i":
			cfg.Interval = fv.interval
		case "n":
			cfg.NormalizeFrequencyDates = fv.normalize
		case "s":
			cfg.Seed = fv.seed
		case "l":
			cfg.LogLevel = fv.logLevel
		case "f":
			cfg.LogFormat = fv.logFormat
		case "w":
			for _, u := range fv.webhookURLs {
				cfg.Webhooks = append(cfg.Webhooks, Webhook{URL: u})
			}
		}
	})
}
