package migrations_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zglowawpiorach/backend/internal/testutil"
	"github.com/zglowawpiorach/backend/migrations"
)

func TestApply(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Running again must be a no-op.
	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	for _, table := range []string{"products", "events", "images", "product_images", "event_images", "reservations"} {
		assertTableExists(t, ctx, pool, table)
	}

	var recorded int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&recorded); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if recorded == 0 {
		t.Error("no migrations recorded")
	}
}

func assertTableExists(t *testing.T, ctx context.Context, pool *pgxpool.Pool, table string) {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", table, err)
	}
	if !exists {
		t.Errorf("table %s missing", table)
	}
}
