package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lendingScope/internal/catalog"
	"lendingScope/internal/config"
	"lendingScope/internal/metrics"
	"lendingScope/internal/pipeline"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
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

	cat, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return err
	}
	fields, err := cat.ResolveFieldMap(cfg.ActiveUserFields)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := openSinks(ctx, cfg.SinkConfig, cfg.SnapshotDate, logger)
	if err != nil {
		return err
	}
	defer sinks.Close(logger)

	var state pipeline.StateStore
	switch {
	case sinks.state != nil:
		state = &pipeline.DBStateStore{Backend: sinks.state, Name: "decode"}
	case cfg.CheckpointEnabled:
		state = &pipeline.FileStateStore{Path: cfg.Checkpoint}
	}

	runner := pipeline.NewRunner(pipeline.RunConfig{
		SnapshotDate:     cfg.SnapshotDate,
		InputPath:        cfg.In,
		Workers:          cfg.Workers,
		ActiveUserFields: fields,
		Force:            cfg.Force,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
	}, cat, sinks.sinks, state, logger)

	logger.Info("decode start",
		zap.String("snapshot", cfg.SnapshotDate),
		zap.String("in", cfg.In),
		zap.String("out_dir", cfg.OutDir),
		zap.String("format", cfg.Format),
		zap.Bool("pg", cfg.PGDSN != ""),
		zap.String("sqlite", cfg.SQLitePath),
		zap.Int("events", len(cat.Schemas)),
		zap.Int("workers", cfg.Workers),
		zap.Bool("force", cfg.Force),
	)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if !res.Skipped {
		logger.Info("decode complete",
			zap.Int("total", res.Classification.Total),
			zap.Int("duplicates", res.Classification.Duplicates),
			zap.Int("unknown_signature", res.Classification.Unknown),
			zap.Int("tables", len(res.Store.Kinds())),
			zap.Int("active_users", len(res.ActiveUsers)),
		)
	}

	if err := metrics.Push(ctx, cfg.PushgatewayURL, "decoder_decode"); err != nil {
		logger.Warn("push metrics", zap.Error(err))
	}
	return nil
}
