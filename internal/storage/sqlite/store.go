package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
	"go.uber.org/zap"

	"lendingScope/internal/model"
	"lendingScope/internal/storage"
)

type decodedRow struct {
	ID           int64  `meddler:"id,pk"`
	SnapshotDate string `meddler:"snapshot_date"`
	TableName    string `meddler:"table_name"`
	RowNum       int    `meddler:"row_num"`
	Payload      string `meddler:"payload"`
}

type stateRow struct {
	Name         string `meddler:"name"`
	LastSnapshot string `meddler:"last_snapshot"`
	UpdatedAt    string `meddler:"updated_at"`
}

// Store persists decoded tables for one snapshot into a SQLite file.
type Store struct {
	db        *sql.DB
	snapshot  string
	batchSize int
	logger    *zap.Logger
}

// NewStore opens the database and applies migrations.
func NewStore(path, snapshot string, batchSize int, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if snapshot == "" {
		return nil, fmt.Errorf("snapshot date is required")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf(
		"file:%s?_txlock=immediate&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=30000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := RunMigrations(logger, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, snapshot: snapshot, batchSize: batchSize, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WriteTable replaces the snapshot's rows of a table. The clear and every
// batch of inserts share one transaction.
func (s *Store) WriteTable(ctx context.Context, table model.Table) error {
	ranges, err := storage.SplitRows(len(table.Rows), s.batchSize)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Error("rollback failed", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM decoded_rows WHERE snapshot_date = ? AND table_name = ?`, s.snapshot, table.Name,
	); err != nil {
		return fmt.Errorf("clear %s: %w", table.Name, err)
	}

	for _, r := range ranges {
		if err := s.insertRange(tx, table, r); err != nil {
			return err
		}
		s.logger.Debug("sqlite batch inserted",
			zap.String("table", table.Name),
			zap.Int("from", r.From),
			zap.Int("to", r.To),
		)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table.Name, err)
	}
	s.logger.Debug("sqlite table written", zap.String("table", table.Name), zap.Int("rows", len(table.Rows)))
	return nil
}

func (s *Store) insertRange(tx *sql.Tx, table model.Table, r storage.RowRange) error {
	for i := r.From; i < r.To; i++ {
		payload, err := table.RowJSON(i)
		if err != nil {
			return err
		}
		row := &decodedRow{
			SnapshotDate: s.snapshot,
			TableName:    table.Name,
			RowNum:       i,
			Payload:      string(payload),
		}
		if err := meddler.SQLite.Insert(tx, "decoded_rows", row); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table.Name, i, err)
		}
	}
	return nil
}

// Rows returns the stored JSON payloads of a table in row order.
func (s *Store) Rows(ctx context.Context, tableName string) ([]string, error) {
	var rows []*decodedRow
	err := meddler.SQLite.QueryAll(s.db, &rows,
		`SELECT * FROM decoded_rows WHERE snapshot_date = ? AND table_name = ? ORDER BY row_num`,
		s.snapshot, tableName,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Payload)
	}
	return out, nil
}

// LoadState returns the last completed snapshot for a name.
func (s *Store) LoadState(_ context.Context, name string) (string, bool, error) {
	var state stateRow
	err := meddler.SQLite.QueryRow(s.db, &state, `SELECT * FROM decoder_state WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load state: %w", err)
	}
	return state.LastSnapshot, true, nil
}

// SaveState upserts the last completed snapshot for a name.
func (s *Store) SaveState(ctx context.Context, name, snapshot string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decoder_state (name, last_snapshot, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET last_snapshot = excluded.last_snapshot, updated_at = excluded.updated_at
	`, name, snapshot, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

var _ storage.Sink = (*Store)(nil)
