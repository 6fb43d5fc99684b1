package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"

	"github.com/pkg/errors"
	"modernc.org/sqlite"

	"github.com/hrygo/skedule/internal/profile"
	"github.com/hrygo/skedule/internal/util"
	"github.com/hrygo/skedule/store"
)

// ============================================================================
// SQLITE SUPPORT (Development and single-user deployments)
// ============================================================================
// SQLite has no accent-insensitive comparison, so a deterministic fold()
// scalar function is registered on the driver and used for the "contains"
// title match policy. Writes take an immediate lock so that concurrent
// transactions queue on busy_timeout instead of failing.
// ============================================================================

var registerOnce sync.Once
var registerErr error

func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("fold", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return util.Fold(v), nil
				case []byte:
					return util.Fold(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return registerErr
}

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens db at profile.DSN and creates the schema if it doesn't exist.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	if err := registerFunctions(); err != nil {
		return nil, errors.Wrap(err, "failed to register sqlite functions")
	}

	// Connect to the database with some sane settings:
	// - foreign_keys: enforce ON DELETE CASCADE from schedule to task.
	// - busy_timeout: wait up to 10s for a lock instead of failing with SQLITE_BUSY.
	// - journal_mode WAL: readers do not block the writer.
	// - _txlock immediate: take the write lock at BEGIN so read-then-write
	//   transactions cannot deadlock.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'task')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}
