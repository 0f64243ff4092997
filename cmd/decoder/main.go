package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "decoder",
		Short:        "Aave V3 pool event decoder",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a snapshot of raw pool logs into per-event tables",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "raw events JSON or JSONL ({date} is replaced)")
	decodeCmd.Flags().String("snapshot-date", "", "snapshot date YYYY-MM-DD, defaults to yesterday (UTC)")
	decodeCmd.Flags().String("catalog", "", "event catalog (.json ABI or .yaml), defaults to the Aave V3 Pool")
	decodeCmd.Flags().String("active-user-fields", "", "participant fields per event (e.g. Supply=onBehalfOf|user,Withdraw=user|to)")
	decodeCmd.Flags().Int("workers", 4, "parallel decode workers")
	decodeCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	decodeCmd.Flags().Bool("checkpoint-enabled", true, "skip snapshots already processed")
	decodeCmd.Flags().Bool("force", false, "decode even if the snapshot was processed")
	addSinkFlags(decodeCmd)

	root.AddCommand(decodeCmd)

	transfersCmd := &cobra.Command{
		Use:   "transfers",
		Short: "Decode token Transfer logs and list their users",
		RunE:  runTransfers,
	}

	transfersCmd.Flags().String("in", "", "token transfer JSON or JSONL ({date} is replaced)")
	transfersCmd.Flags().String("snapshot-date", "", "snapshot date YYYY-MM-DD, defaults to yesterday (UTC)")
	addSinkFlags(transfersCmd)

	root.AddCommand(transfersCmd)

	signaturesCmd := &cobra.Command{
		Use:   "signatures",
		Short: "Print the event signatures and topic0 hashes of a catalog",
		RunE:  runSignatures,
	}

	signaturesCmd.Flags().String("catalog", "", "event catalog (.json ABI or .yaml), defaults to the Aave V3 Pool")
	signaturesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(signaturesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSinkFlags(cmd *cobra.Command) {
	cmd.Flags().String("out-dir", "", "output directory for table files ({date} is replaced)")
	cmd.Flags().String("format", "csv", "table file format (csv, jsonl)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("sqlite-path", "", "SQLite database path ({date} is replaced)")
	cmd.Flags().Int("batch-size", 1000, "rows per DB write batch")
	cmd.Flags().Int("max-retries", 3, "maximum write attempts per table")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("pushgateway-url", "", "Prometheus Pushgateway URL")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
