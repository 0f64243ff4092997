package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lendingScope/internal/aggregate"
	"lendingScope/internal/catalog"
	"lendingScope/internal/events"
	"lendingScope/internal/metrics"
	"lendingScope/internal/model"
	"lendingScope/internal/storage"
)

// RunConfig holds runtime settings for one decode run.
type RunConfig struct {
	SnapshotDate string
	InputPath    string
	Workers      int
	// ActiveUserFields overrides the catalog's participant fields when set.
	ActiveUserFields map[string][]string
	Force            bool
	MaxRetries       int
	RetryBackoff     time.Duration
}

// Result summarizes a decode run.
type Result struct {
	Skipped        bool
	Classification events.Classification
	Store          *events.Store
	ActiveUsers    model.ActiveUserSet
}

// Runner decodes one snapshot of raw pool logs and writes the tables to sinks.
type Runner struct {
	cfg     RunConfig
	catalog *catalog.Catalog
	sinks   []storage.Sink
	state   StateStore
	logger  *zap.Logger
}

// NewRunner builds a Runner with its dependencies. state may be nil.
func NewRunner(cfg RunConfig, cat *catalog.Catalog, sinks []storage.Sink, state StateStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		catalog: cat,
		sinks:   sinks,
		state:   state,
		logger:  logger,
	}
}

func (r *Runner) activeUserFields() map[string][]string {
	if len(r.cfg.ActiveUserFields) > 0 {
		return r.cfg.ActiveUserFields
	}
	return r.catalog.ActiveUserFields
}

// Run executes signatures, classification, decoding, aggregation and writes.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.catalog == nil {
		return Result{}, fmt.Errorf("catalog is nil")
	}
	if len(r.sinks) == 0 {
		return Result{}, fmt.Errorf("at least one sink is required")
	}
	if r.cfg.SnapshotDate == "" {
		return Result{}, fmt.Errorf("snapshot date is required")
	}
	fields := r.activeUserFields()
	if err := catalog.ValidateAddressFields(r.catalog.Schemas, fields); err != nil {
		return Result{}, err
	}
	if len(fields) == 0 {
		r.logger.Warn("no active user fields configured, users table will be empty",
			zap.String("table", aggregate.ActiveUsersTable))
	}

	started := time.Now()

	if r.state != nil && !r.cfg.Force {
		last, ok, err := r.state.Load(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("load state: %w", err)
		}
		if ok && last == r.cfg.SnapshotDate {
			r.logger.Info("snapshot already processed", zap.String("snapshot", last))
			return Result{Skipped: true}, nil
		}
	}

	idx, err := events.BuildIndex(r.catalog.Schemas)
	if err != nil {
		return Result{}, err
	}
	r.logger.Info("signatures built", zap.Int("kinds", idx.Len()))
	for _, e := range idx.Entries() {
		r.logger.Debug("signature",
			zap.String("event", e.Kind),
			zap.String("signature", e.Signature),
			zap.String("topic0", e.Hash.Hex()),
		)
	}

	entries, err := storage.ReadLogRecords(r.cfg.InputPath)
	if err != nil {
		return Result{}, err
	}
	metrics.RawEntriesAdd(len(entries))

	classified := events.Classify(entries, idx)
	metrics.DuplicateEntriesAdd(classified.Duplicates)
	metrics.UnknownSignaturesAdd(classified.Unknown)
	r.logger.Info("entries classified",
		zap.Int("total", classified.Total),
		zap.Int("duplicates", classified.Duplicates),
		zap.Int("unknown_signature", classified.Unknown),
		zap.Int("classified", classified.Classified()),
	)

	store, err := events.DecodeAll(ctx, classified.Buckets, r.catalog.Schemas, r.cfg.Workers)
	if err != nil {
		var malformed *model.MalformedEventError
		if errors.As(err, &malformed) {
			metrics.MalformedEventInc(malformed.Event)
		}
		return Result{}, fmt.Errorf("decode: %w", err)
	}
	for _, kind := range store.Kinds() {
		n := store.Len(kind)
		metrics.DecodedRecordsAdd(kind, n)
		if n == 0 {
			r.logger.Info("no entries for event", zap.String("event", kind))
			continue
		}
		r.logger.Info("event decoded", zap.String("event", kind), zap.Int("records", n))
	}

	users := aggregate.ActiveUsers(store, fields)
	metrics.ActiveUsersSet("pool", len(users))
	r.logger.Info("active users aggregated", zap.Int("users", len(users)))

	tables := append(store.Tables(), users.Table(aggregate.ActiveUsersTable))
	if err := writeTables(ctx, r.logger, r.sinks, tables, r.cfg.MaxRetries, r.cfg.RetryBackoff); err != nil {
		return Result{}, err
	}

	if r.state != nil {
		if err := r.state.Save(ctx, r.cfg.SnapshotDate); err != nil {
			return Result{}, fmt.Errorf("save state: %w", err)
		}
	}
	metrics.RunDurationObserve("decode", time.Since(started).Seconds())

	return Result{
		Classification: classified,
		Store:          store,
		ActiveUsers:    users,
	}, nil
}

func writeTables(ctx context.Context, logger *zap.Logger, sinks []storage.Sink, tables []model.Table, maxRetries int, backoff time.Duration) error {
	for _, table := range tables {
		table := table
		for _, sink := range sinks {
			sink := sink
			err := withRetry(ctx, logger, "write "+table.Name, maxRetries, backoff, func(ctx context.Context) error {
				return sink.WriteTable(ctx, table)
			})
			if err != nil {
				return fmt.Errorf("write %s: %w", table.Name, err)
			}
		}
		logger.Debug("table written", zap.String("table", table.Name), zap.Int("rows", len(table.Rows)))
	}
	return nil
}
