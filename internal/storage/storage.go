package storage

import (
	"context"

	"lendingScope/internal/model"
)

// Sink persists decoded tables.
type Sink interface {
	WriteTable(ctx context.Context, table model.Table) error
	Close() error
}

// Format selects the file encoding of FileSink.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)
