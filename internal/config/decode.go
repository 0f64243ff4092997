package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	SinkConfig
	SnapshotDate      string
	In                string
	Catalog           string
	ActiveUserFields  map[string][]string
	Workers           int
	Checkpoint        string
	CheckpointEnabled bool
	Force             bool
	LogLevel          string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	defaults := sinkDefaults()
	defaults["in"] = "./data/daily-raw-events/raw_events_snapshot_date={date}/raw_events.json"
	defaults["out-dir"] = "./data/daily-decoded-events/decoded_events_snapshot_date={date}"
	defaults["workers"] = 4
	defaults["checkpoint"] = "./data/checkpoint.json"
	defaults["checkpoint-enabled"] = true

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return DecodeConfig{}, err
	}

	snapshot, err := ParseSnapshotDate(v.GetString("snapshot-date"), time.Now())
	if err != nil {
		return DecodeConfig{}, err
	}
	sinks, err := loadSinkConfig(v, snapshot)
	if err != nil {
		return DecodeConfig{}, err
	}
	fields, err := getFieldMap(v, "active-user-fields")
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		SinkConfig:        sinks,
		SnapshotDate:      snapshot,
		In:                ExpandSnapshotPath(v.GetString("in"), snapshot),
		Catalog:           v.GetString("catalog"),
		ActiveUserFields:  fields,
		Workers:           v.GetInt("workers"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		Force:             v.GetBool("force"),
		LogLevel:          v.GetString("log-level"),
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}

// getFieldMap reads kind -> address field lists, either as a config file map
// or as a flag string like "Supply=onBehalfOf|user,Withdraw=user|to". Viper
// lowercases map keys read from files; callers resolve kinds against the catalog.
func getFieldMap(v *viper.Viper, key string) (map[string][]string, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	out := make(map[string][]string)
	switch typed := v.Get(key).(type) {
	case map[string]interface{}:
		for kind, raw := range typed {
			out[kind] = fieldList(raw)
		}
	case map[string][]string:
		for kind, fields := range typed {
			out[kind] = cleanStrings(fields)
		}
	case string:
		parsed, err := parseFieldMap(typed)
		if err != nil {
			return nil, err
		}
		out = parsed
	case []string:
		parsed, err := parseFieldMap(strings.Join(typed, ","))
		if err != nil {
			return nil, err
		}
		out = parsed
	default:
		return nil, fmt.Errorf("%s: unsupported value %T", key, typed)
	}

	for kind, fields := range out {
		if len(fields) == 0 {
			return nil, fmt.Errorf("%s: %s has no fields", key, kind)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// fieldList reads one kind's fields from a decoded config value: a list, or
// a string separated by commas or pipes.
func fieldList(raw interface{}) []string {
	switch typed := raw.(type) {
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(strings.ReplaceAll(typed, "|", ","), ",")
	default:
		return nil
	}
}

func parseFieldMap(input string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, pair := range splitAndClean(input, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("active user fields: expected kind=field|field, got %q", pair)
		}
		kind := strings.TrimSpace(parts[0])
		fields := splitAndClean(parts[1], "|")
		if kind == "" || len(fields) == 0 {
			return nil, fmt.Errorf("active user fields: expected kind=field|field, got %q", pair)
		}
		out[kind] = append(out[kind], fields...)
	}
	return out, nil
}
