package test

import (
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testUser     = "testuser"
	testPassword = "testpassword"
	testImage    = "postgres:16-alpine"
)

// GetPostgresDSN returns a DSN for PostgreSQL testing.
// POSTGRES_TEST_DSN wins when set; otherwise a fresh container is started,
// and the test is skipped when no container provider is reachable.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		return dsn
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)
	pgContainer, err := postgres.Run(t.Context(),
		testImage,
		postgres.WithDatabase("skedule_test"),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(t.Context(), "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return connStr
}
