//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/migrations"
)

// globalPool is shared by every test in the package and initialized in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pool, cleanup, err := setupDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up postgres: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	cleanup()
	os.Exit(code)
}

// setupDatabase uses TEST_DATABASE_URL when set and starts a container
// otherwise. Migrations are applied either way.
func setupDatabase(ctx context.Context) (*pgxpool.Pool, func(), error) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	stop := func() {}
	if connStr == "" {
		var err error
		connStr, stop, err = startPostgres(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("start postgres container: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, connStr, db.PoolOptions{MaxConns: 5})
	if err != nil {
		stop()
		return nil, nil, err
	}

	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx); err != nil {
		pool.Close()
		stop()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	return pool, func() {
		pool.Close()
		stop()
	}, nil
}

// resetTables empties every domain table. Tests in this package run serially.
func resetTables(t *testing.T) {
	t.Helper()
	if _, err := globalPool.Exec(context.Background(), `TRUNCATE appointments, doctors CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func createTestDoctor(t *testing.T, ctx context.Context, name, email string) *doctor.Doctor {
	t.Helper()
	d := &doctor.Doctor{
		Name:        name,
		Specialty:   "Cardiology",
		Email:       email,
		Credentials: "MD",
	}
	if err := doctor.NewRepoPG(globalPool).Create(ctx, d); err != nil {
		t.Fatalf("create doctor %s: %v", name, err)
	}
	return d
}
