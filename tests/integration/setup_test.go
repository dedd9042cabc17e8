//go:build integration

// Package integration exercises the purchase and return sagas end to end
// against a real PostgreSQL instance, following the teacher's
// tests/stress/setup_test.go dockertest pattern (scaled down to the saga
// core instead of a full flash-sale harness; there is no health-gate test).
package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	ordermigrations "github.com/ordersys/platform/internal/order/migrations"
	warehousemigrations "github.com/ordersys/platform/internal/warehouse/migrations"
	warrantymigrations "github.com/ordersys/platform/internal/warranty/migrations"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not construct docker pool: %s", err)
	}

	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("could not connect to docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres resource: %s", err)
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://testuser:testpass@%s/testdb?sslmode=disable", hostAndPort)
	log.Println("connecting to database on url:", databaseURL)

	_ = resource.Expire(180)

	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		var err error
		testPool, err = pgxpool.New(context.Background(), databaseURL)
		if err != nil {
			return err
		}
		return testPool.Ping(context.Background())
	}); err != nil {
		log.Fatalf("could not connect to database: %s", err)
	}

	if err := applySchemas(testPool); err != nil {
		log.Fatalf("could not apply schemas: %s", err)
	}

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		log.Fatalf("could not purge resource: %s", err)
	}

	os.Exit(code)
}

// applySchemas loads the warehouse, order and warranty services' embedded SQL
// migrations into the single shared test database: they own disjoint tables, so
// they coexist safely in one schema for the purposes of this test.
func applySchemas(pool *pgxpool.Pool) error {
	ctx := context.Background()
	for _, fsys := range []interface {
		ReadFile(name string) ([]byte, error)
	}{warehousemigrations.FS, ordermigrations.FS, warrantymigrations.FS} {
		sql, err := fsys.ReadFile("000001_init.up.sql")
		if err != nil {
			return fmt.Errorf("read migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE TABLE orders, order_items, items, warranty RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to cleanup tables: %v", err)
	}
}

func seedItem(t *testing.T, modelName, size string, availableCount int) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`INSERT INTO items (model, size, available_count) VALUES ($1, $2, $3)`,
		modelName, size, availableCount)
	if err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}
}

func itemAvailableCount(t *testing.T, modelName, size string) int {
	t.Helper()
	var count int
	err := testPool.QueryRow(context.Background(),
		`SELECT available_count FROM items WHERE model = $1 AND size = $2`, modelName, size).Scan(&count)
	if err != nil {
		t.Fatalf("failed to read item count: %v", err)
	}
	return count
}
