// Package config loads the settings of a geocoding run from flags, environment and an optional file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MaxWorkers caps the worker pool so the remote API is not flooded.
const MaxWorkers = 30

var (
	ErrInputRequired      = errors.New("input file is required")
	ErrInputNotFound      = errors.New("input file does not exist")
	ErrUnsupportedInput   = errors.New("input must be a .csv or .xlsx file")
	ErrWorkersOutOfRange  = errors.New("workers must be between 1 and 30")
	ErrNegativeDelay      = errors.New("delay must not be negative")
	ErrAddressFieldNeeded = errors.New("address field must not be empty")
)

// Config holds the settings of one run.
type Config struct {
	Env             string        `mapstructure:"env"`              // Env selects the log format: local, development, production.
	Provider        string        `mapstructure:"provider"`         // Provider is the geocoding backend: vworld, google, nominatim.
	APIKey          string        `mapstructure:"api_key"`          // APIKey authenticates against the provider.
	Input           string        `mapstructure:"input"`            // Input is the spreadsheet to geocode.
	Output          string        `mapstructure:"output"`           // Output is derived from Input when empty.
	OutputSuffix    string        `mapstructure:"output_suffix"`    // OutputSuffix is appended to the derived output stem.
	TimestampOutput bool          `mapstructure:"timestamp_output"` // TimestampOutput adds the start time to the derived output name.
	AddressField    string        `mapstructure:"address_field"`    // AddressField names the address column.
	MissingMarker   string        `mapstructure:"missing_marker"`   // MissingMarker is treated like an empty address.
	AddressFallback bool          `mapstructure:"address_fallback"` // AddressFallback lets nominatim retry shortened addresses.
	AddressPrefix   string        `mapstructure:"address_prefix"`   // AddressPrefix is prepended to every address.
	Workers         int           `mapstructure:"workers"`          // Workers is the number of concurrent lookups.
	Delay           time.Duration `mapstructure:"delay"`            // Delay is the minimum gap between two submissions.
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	LogDir          string        `mapstructure:"log_dir"`
	MetricsPort     int           `mapstructure:"metrics_port"` // MetricsPort enables the monitoring server when positive.
	Verbose         bool          `mapstructure:"verbose"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"env":          "env",
	"provider":     "provider",
	"key":          "api_key",
	"input":        "input",
	"output":       "output",
	"addr":         "address_field",
	"fallback":     "address_fallback",
	"prefix":       "address_prefix",
	"workers":      "workers",
	"delay":        "delay",
	"log-dir":      "log_dir",
	"metrics-port": "metrics_port",
	"verbose":      "verbose",
}

// Load reads configuration from .env, geobatch.yaml, GEOBATCH_* variables and flags,
// in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("geobatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GEOBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("provider", "vworld")
	v.SetDefault("api_key", "")
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("output_suffix", "_geocoded")
	v.SetDefault("timestamp_output", false)
	v.SetDefault("address_field", "ADDR")
	v.SetDefault("missing_marker", "nan")
	v.SetDefault("address_fallback", false)
	v.SetDefault("address_prefix", "")
	v.SetDefault("workers", 10)
	v.SetDefault("delay", "100ms")
	v.SetDefault("connect_timeout", "3s")
	v.SetDefault("read_timeout", "30s")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("metrics_port", 0)
	v.SetDefault("verbose", false)

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, eris.Wrapf(err, "config: bind flag %q", name)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutputPath(cfg.Input, cfg.OutputSuffix, cfg.TimestampOutput, time.Now())
	}

	return &cfg, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrInputRequired
	}

	ext := strings.ToLower(filepath.Ext(c.Input))
	if ext != ".csv" && ext != ".xlsx" {
		return eris.Wrapf(ErrUnsupportedInput, "config: %s", c.Input)
	}

	if _, err := os.Stat(c.Input); err != nil {
		return eris.Wrapf(ErrInputNotFound, "config: %s", c.Input)
	}

	if strings.TrimSpace(c.AddressField) == "" {
		return ErrAddressFieldNeeded
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		return eris.Wrapf(ErrWorkersOutOfRange, "config: got %d", c.Workers)
	}

	if c.Delay < 0 {
		return ErrNegativeDelay
	}

	return nil
}

// DefaultOutputPath derives the output file from the input file: spaces in the
// stem become underscores, suffix and optionally the start time are appended,
// and the extension is kept.
func DefaultOutputPath(input, suffix string, timestamp bool, now time.Time) string {
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	stem := strings.ReplaceAll(strings.TrimSuffix(base, ext), " ", "_")

	name := stem + suffix
	if timestamp {
		name += "_" + now.Format("20060102_150405")
	}

	return filepath.Join(dir, name+ext)
}
