package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/pkg/errors"
)

// Migration files live in store/migration/{driver}/. LATEST.sql is the full
// schema applied to a fresh database. Demo mode additionally runs the files in
// store/seed/{driver}/ in lexical order.

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	modeDemo = "demo"
)

// Migrate creates the schema when the database is empty and seeds demo data in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		slog.Debug("database already initialized", slog.String("driver", s.profile.Driver))
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %s", filePath)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if s.profile.Mode == modeDemo {
		if err := s.seed(ctx, tx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	slog.Info("database initialized successfully")
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) getSeedBasePath() string {
	return fmt.Sprintf("seed/%s/", s.profile.Driver)
}

// seed applies the demo data files. Only SQLite ships seed data.
func (s *Store) seed(ctx context.Context, tx *sql.Tx) error {
	filenames, err := fs.Glob(seedFS, s.getSeedBasePath()+"*.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	if len(filenames) == 0 {
		slog.Warn("no seed data for driver, skipping", slog.String("driver", s.profile.Driver))
		return nil
	}
	sort.Strings(filenames)
	for _, filename := range filenames {
		bytes, err := seedFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file, filename=%s", filename)
		}
		if err := execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "seed error: %s", filename)
		}
	}
	return nil
}

// execute runs a multi-statement script. Both drivers accept several
// statements in one parameterless Exec.
func execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}
	return nil
}
