// Package dbtest runs repository tests against a real Postgres when HOSTEL_TEST_DATABASE_URL is set.
// Tests share one database and never truncate; every fixture uses fresh ids.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostel/pkg/config"
	"hostel/pkg/db"
)

const EnvURL = "HOSTEL_TEST_DATABASE_URL"

// Open migrates the test database and returns a pool closed at the end of the test.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set", EnvURL)
	}
	cfg := config.Config{DatabaseURL: url, DirectURL: url}

	_, file, _, _ := runtime.Caller(0)
	migrations := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
	if err := db.MigrateConfig("file://"+filepath.ToSlash(migrations), cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// User inserts a profile with role and returns its id.
func User(t *testing.T, pool *pgxpool.Pool, role string) string {
	t.Helper()
	id := uuid.NewString()
	ctx := context.Background()
	if _, err := pool.Exec(ctx, `INSERT INTO profiles (id, email, full_name) VALUES ($1, $2, $3)`, id, id+"@example.com", role+" "+id[:8]); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2::app_role)`, id, role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return id
}

// Service inserts an available laundry service and returns its id.
func Service(t *testing.T, pool *pgxpool.Pool, price string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO services (name, price, service_type)
VALUES ('Laundry', $1::text::numeric, 'laundry')
RETURNING id
`, price).Scan(&id)
	if err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return id
}

// Room inserts an available room and returns its id.
func Room(t *testing.T, pool *pgxpool.Pool, nightly string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO rooms (room_number, room_type, capacity, price_per_night)
VALUES ($1, 'dorm', 4, $2::text::numeric)
RETURNING id
`, "T-"+uuid.NewString()[:8], nightly).Scan(&id)
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return id
}
