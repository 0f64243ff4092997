package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lendingScope/internal/model"
	"lendingScope/internal/storage"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS decoded_rows (
	snapshot_date TEXT NOT NULL,
	table_name    TEXT NOT NULL,
	row_num       INTEGER NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (snapshot_date, table_name, row_num)
);
CREATE TABLE IF NOT EXISTS decoder_state (
	name          TEXT PRIMARY KEY,
	last_snapshot TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store persists decoded tables for one snapshot into Postgres.
type Store struct {
	pool      *pgxpool.Pool
	snapshot  string
	batchSize int
}

func NewStore(ctx context.Context, dsn, snapshot string, batchSize int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if snapshot == "" {
		return nil, fmt.Errorf("snapshot date is required")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, snapshot: snapshot, batchSize: batchSize}, nil
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// WriteTable replaces the snapshot's rows of a table in one transaction.
func (s *Store) WriteTable(ctx context.Context, table model.Table) error {
	ranges, err := storage.SplitRows(len(table.Rows), s.batchSize)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM decoded_rows WHERE snapshot_date=$1 AND table_name=$2`, s.snapshot, table.Name); err != nil {
		return fmt.Errorf("clear %s: %w", table.Name, err)
	}

	for _, r := range ranges {
		batch := &pgx.Batch{}
		for i := r.From; i < r.To; i++ {
			payload, err := table.RowJSON(i)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO decoded_rows (snapshot_date, table_name, row_num, payload, created_at)
				VALUES ($1, $2, $3, $4, now())
				ON CONFLICT (snapshot_date, table_name, row_num)
				DO UPDATE SET payload = EXCLUDED.payload, created_at = now()
			`, s.snapshot, table.Name, i, string(payload))
		}

		if err := execBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", table.Name, r.From, r.To, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", table.Name, err)
	}
	return nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last completed snapshot for a name.
func (s *Store) LoadState(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("state name required")
	}
	var snapshot string
	row := s.pool.QueryRow(ctx, `SELECT last_snapshot FROM decoder_state WHERE name=$1`, name)
	if err := row.Scan(&snapshot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return snapshot, true, nil
}

// SaveState upserts the last completed snapshot for a name.
func (s *Store) SaveState(ctx context.Context, name, snapshot string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO decoder_state (name, last_snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_snapshot = EXCLUDED.last_snapshot, updated_at = now()
	`, name, snapshot)
	return err
}

var _ storage.Sink = (*Store)(nil)
