package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lendingScope/internal/aggregate"
	"lendingScope/internal/events"
	"lendingScope/internal/metrics"
	"lendingScope/internal/model"
	"lendingScope/internal/storage"
)

// TransferRunConfig holds runtime settings for a token transfer run.
type TransferRunConfig struct {
	InputPath    string
	MaxRetries   int
	RetryBackoff time.Duration
}

// TransferRunResult summarizes a token transfer run.
type TransferRunResult struct {
	Entries     int
	Transfers   events.TransferResult
	ActiveUsers model.ActiveUserSet
}

// RunTransfers decodes token transfer logs, derives their users and writes
// both tables to sinks.
func RunTransfers(ctx context.Context, cfg TransferRunConfig, sinks []storage.Sink, logger *zap.Logger) (TransferRunResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sinks) == 0 {
		return TransferRunResult{}, fmt.Errorf("at least one sink is required")
	}
	started := time.Now()

	entries, err := storage.ReadTransferRecords(cfg.InputPath)
	if err != nil {
		return TransferRunResult{}, err
	}
	metrics.RawEntriesAdd(len(entries))

	res, err := events.DecodeTransfers(entries)
	if err != nil {
		var malformed *model.MalformedEventError
		if errors.As(err, &malformed) {
			metrics.MalformedEventInc(malformed.Event)
		}
		return TransferRunResult{}, fmt.Errorf("decode transfers: %w", err)
	}
	metrics.DecodedRecordsAdd("Transfer", len(res.Transfers))
	metrics.MintsFilteredAdd(res.Mints)

	users := aggregate.TransferUsers(res.Transfers)
	metrics.ActiveUsersSet("transfers", len(users))
	logger.Info("transfers decoded",
		zap.Int("entries", len(entries)),
		zap.Int("transfers", len(res.Transfers)),
		zap.Int("mints_filtered", res.Mints),
		zap.Int("users", len(users)),
	)

	tables := []model.Table{res.Table(), users.Table(aggregate.TransferUsersTable)}
	if err := writeTables(ctx, logger, sinks, tables, cfg.MaxRetries, cfg.RetryBackoff); err != nil {
		return TransferRunResult{}, err
	}
	metrics.RunDurationObserve("transfers", time.Since(started).Seconds())

	return TransferRunResult{Entries: len(entries), Transfers: res, ActiveUsers: users}, nil
}
