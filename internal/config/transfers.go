package config

import (
	"time"

	"github.com/spf13/pflag"
)

// TransfersConfig holds configuration for the transfers command.
type TransfersConfig struct {
	SinkConfig
	SnapshotDate string
	In           string
	LogLevel     string
}

// LoadTransfers merges config file, environment variables, and flags into TransfersConfig.
func LoadTransfers(cfgFile string, flags *pflag.FlagSet) (TransfersConfig, error) {
	defaults := sinkDefaults()
	defaults["in"] = "./data/daily-token-transfers/token_transfers_snapshot_date={date}/token_transfers.json"
	defaults["out-dir"] = "./data/daily-decoded-transfers/decoded_transfers_snapshot_date={date}"

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return TransfersConfig{}, err
	}

	snapshot, err := ParseSnapshotDate(v.GetString("snapshot-date"), time.Now())
	if err != nil {
		return TransfersConfig{}, err
	}
	sinks, err := loadSinkConfig(v, snapshot)
	if err != nil {
		return TransfersConfig{}, err
	}

	return TransfersConfig{
		SinkConfig:   sinks,
		SnapshotDate: snapshot,
		In:           ExpandSnapshotPath(v.GetString("in"), snapshot),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// SignaturesConfig holds configuration for the signatures command.
type SignaturesConfig struct {
	Catalog  string
	LogLevel string
}

// LoadSignatures merges config file, environment variables, and flags into SignaturesConfig.
func LoadSignatures(cfgFile string, flags *pflag.FlagSet) (SignaturesConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return SignaturesConfig{}, err
	}
	return SignaturesConfig{
		Catalog:  v.GetString("catalog"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
