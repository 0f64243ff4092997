package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SinkConfig selects where decoded tables are written.
type SinkConfig struct {
	OutDir         string
	Format         string
	PGDSN          string
	SQLitePath     string
	BatchSize      int
	MaxRetries     int
	RetryBackoff   time.Duration
	PushgatewayURL string
}

// newViper merges defaults, config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DECODER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func sinkDefaults() map[string]interface{} {
	return map[string]interface{}{
		"format":        "csv",
		"batch-size":    1000,
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
	}
}

func loadSinkConfig(v *viper.Viper, snapshot string) (SinkConfig, error) {
	cfg := SinkConfig{
		OutDir:         ExpandSnapshotPath(v.GetString("out-dir"), snapshot),
		Format:         strings.ToLower(v.GetString("format")),
		PGDSN:          v.GetString("pg-dsn"),
		SQLitePath:     ExpandSnapshotPath(v.GetString("sqlite-path"), snapshot),
		BatchSize:      v.GetInt("batch-size"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		PushgatewayURL: v.GetString("pushgateway-url"),
	}
	if cfg.BatchSize <= 0 {
		return SinkConfig{}, fmt.Errorf("batch size must be greater than zero")
	}
	return cfg, nil
}

func splitAndClean(input, sep string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, sep)
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
