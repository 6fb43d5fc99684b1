package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound reports that no task matched. It is a normal outcome.
	ErrNotFound = errors.New("no matching task")
	// ErrInvalidArgument reports a request rejected before reaching the database.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPersistence reports a database fault; the transaction was rolled back.
	ErrPersistence = errors.New("persistence failure")
	// ErrStoreUnavailable reports a timeout or a broken connection.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// classify tags a driver error with one of the store sentinels.
// The original error stays reachable through errors.Is and errors.As.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrPersistence), errors.Is(err, ErrStoreUnavailable):
		return err
	case isUnavailable(err):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
