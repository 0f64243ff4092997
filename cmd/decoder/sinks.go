package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"lendingScope/internal/config"
	"lendingScope/internal/pipeline"
	"lendingScope/internal/storage"
	"lendingScope/internal/storage/postgres"
	"lendingScope/internal/storage/sqlite"
)

// sinkSet holds the opened sinks plus the first database that can keep state.
type sinkSet struct {
	sinks []storage.Sink
	state pipeline.StateBackend
}

func (s *sinkSet) Close(logger *zap.Logger) {
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			logger.Warn("close sink", zap.Error(err))
		}
	}
}

func openSinks(ctx context.Context, cfg config.SinkConfig, snapshot string, logger *zap.Logger) (*sinkSet, error) {
	set := &sinkSet{}

	if cfg.OutDir != "" {
		fileSink, err := storage.NewFileSink(cfg.OutDir, storage.Format(cfg.Format))
		if err != nil {
			return nil, err
		}
		set.sinks = append(set.sinks, fileSink)
	}

	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN, snapshot, cfg.BatchSize)
		if err != nil {
			set.Close(logger)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			set.Close(logger)
			return nil, err
		}
		set.sinks = append(set.sinks, pg)
		set.state = pg
	}

	if cfg.SQLitePath != "" {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				set.Close(logger)
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		lite, err := sqlite.NewStore(cfg.SQLitePath, snapshot, cfg.BatchSize, logger)
		if err != nil {
			set.Close(logger)
			return nil, err
		}
		set.sinks = append(set.sinks, lite)
		if set.state == nil {
			set.state = lite
		}
	}

	if len(set.sinks) == 0 {
		return nil, fmt.Errorf("no output configured: set out-dir, pg-dsn or sqlite-path")
	}
	return set, nil
}
