package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StateStore persists the last snapshot a run completed.
type StateStore interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, snapshot string) error
}

// FileStateStore stores state in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	LastSnapshot string `json:"last_snapshot"`
	UpdatedAt    string `json:"updated_at"`
}

func (s *FileStateStore) Load(_ context.Context) (string, bool, error) {
	if s == nil || s.Path == "" {
		return "", false, nil
	}
	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat state: %w", err)
	}
	if stat.IsDir() {
		return "", false, fmt.Errorf("state path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", false, fmt.Errorf("read state: %w", err)
	}
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, fmt.Errorf("parse state: %w", err)
	}
	return rec.LastSnapshot, true, nil
}

func (s *FileStateStore) Save(_ context.Context, snapshot string) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.Marshal(stateRecord{
		LastSnapshot: snapshot,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// StateBackend is a database that keeps named run state.
type StateBackend interface {
	LoadState(ctx context.Context, name string) (string, bool, error)
	SaveState(ctx context.Context, name, snapshot string) error
}

// DBStateStore stores state in a database under Name.
type DBStateStore struct {
	Backend StateBackend
	Name    string
}

func (s *DBStateStore) Load(ctx context.Context) (string, bool, error) {
	if s == nil || s.Backend == nil {
		return "", false, nil
	}
	return s.Backend.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, snapshot string) error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.SaveState(ctx, s.Name, snapshot)
}
