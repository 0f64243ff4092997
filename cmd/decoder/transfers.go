package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lendingScope/internal/config"
	"lendingScope/internal/metrics"
	"lendingScope/internal/pipeline"
)

func runTransfers(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTransfers(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := openSinks(ctx, cfg.SinkConfig, cfg.SnapshotDate, logger)
	if err != nil {
		return err
	}
	defer sinks.Close(logger)

	logger.Info("transfers start",
		zap.String("snapshot", cfg.SnapshotDate),
		zap.String("in", cfg.In),
		zap.String("out_dir", cfg.OutDir),
		zap.String("format", cfg.Format),
	)

	res, err := pipeline.RunTransfers(ctx, pipeline.TransferRunConfig{
		InputPath:    cfg.In,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, sinks.sinks, logger)
	if err != nil {
		return err
	}

	logger.Info("transfers complete",
		zap.Int("entries", res.Entries),
		zap.Int("transfers", len(res.Transfers.Transfers)),
		zap.Int("mints_filtered", res.Transfers.Mints),
		zap.Int("active_users", len(res.ActiveUsers)),
	)

	if err := metrics.Push(ctx, cfg.PushgatewayURL, "decoder_transfers"); err != nil {
		logger.Warn("push metrics", zap.Error(err))
	}
	return nil
}
