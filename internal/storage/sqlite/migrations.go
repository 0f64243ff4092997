package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

const (
	upSeparator   = "-- +migrate Up"
	downSeparator = "-- +migrate Down"
)

//go:embed migrations/001_initial.sql
var mig0001 string

// Migration is one embedded schema change with Down and Up sections.
type Migration struct {
	ID  string
	SQL string
}

var migrations = []Migration{
	{ID: "001_initial.sql", SQL: mig0001},
}

// RunMigrations applies pending migrations to db.
func RunMigrations(logger *zap.Logger, db *sql.DB) error {
	source, err := migrationSource(migrations)
	if err != nil {
		return err
	}

	n, err := migrate.Exec(db, "sqlite3", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("sqlite migrations applied", zap.Int("count", n))
	return nil
}

func migrationSource(list []Migration) (*migrate.MemoryMigrationSource, error) {
	source := &migrate.MemoryMigrationSource{Migrations: make([]*migrate.Migration, 0, len(list))}
	for _, m := range list {
		parts := strings.Split(m.SQL, upSeparator)
		if len(parts) != 2 {
			return nil, fmt.Errorf("migration %s missing %q separator", m.ID, upSeparator)
		}

		down := parts[0]
		if idx := strings.Index(down, downSeparator); idx != -1 {
			down = down[idx+len(downSeparator):]
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{strings.TrimSpace(parts[1])},
			Down: []string{strings.TrimSpace(down)},
		})
	}
	return source, nil
}
