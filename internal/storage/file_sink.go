package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lendingScope/internal/model"
)

// FileSink writes each table to <dir>/<table>.<format>, replacing older files.
type FileSink struct {
	dir    string
	format Format
	mu     sync.Mutex
}

func NewFileSink(dir string, format Format) (*FileSink, error) {
	switch format {
	case FormatCSV, FormatJSONL:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if dir == "" {
		return nil, fmt.Errorf("output dir is required")
	}
	return &FileSink{dir: dir, format: format}, nil
}

// Path returns the file a table is written to.
func (s *FileSink) Path(table string) string {
	return filepath.Join(s.dir, table+"."+string(s.format))
}

// WriteTable writes the whole table, header included for CSV.
func (s *FileSink) WriteTable(_ context.Context, table model.Table) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(table.Name)
	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if s.format == FormatCSV {
		err = writeCSV(writer, table)
	} else {
		err = writeJSONL(writer, table)
	}
	if err == nil {
		err = writer.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", table.Name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	return nil
}

func writeJSONL(writer *bufio.Writer, table model.Table) error {
	for i := range table.Rows {
		line, err := table.RowJSON(i)
		if err != nil {
			return err
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	return nil
}

func writeCSV(writer *bufio.Writer, table model.Table) error {
	w := csv.NewWriter(writer)
	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(table.Columns))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
