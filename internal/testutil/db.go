package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/archon-research/keeper/db/migrations"
	"github.com/archon-research/keeper/db/migrator"
	"github.com/archon-research/keeper/internal/pkg/retry"
)

const (
	postgresImage = "postgres:17-alpine"
	postgresPort  = "5432/tcp"
)

// SettlementDB starts a throwaway PostgreSQL, applies the keeper migrations
// and returns a pool on it. Container and pool are released by t.Cleanup.
func SettlementDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{postgresPort},
			Env: map[string]string{
				"POSTGRES_USER":     "keeper",
				"POSTGRES_PASSWORD": "keeper",
				"POSTGRES_DB":       "settlements",
			},
			// postgres restarts once after init; the second banner is the real one.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("starting %s: %v", postgresImage, err)
	}

	endpoint, err := container.PortEndpoint(ctx, postgresPort, "")
	if err != nil {
		t.Fatalf("resolving postgres endpoint: %v", err)
	}
	dsn := fmt.Sprintf("postgres://keeper:keeper@%s/settlements?sslmode=disable", endpoint)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("opening pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := retry.DoVoid(ctx, retry.Fixed(30, 100*time.Millisecond), retry.Always, nil, func() error {
		return pool.Ping(ctx)
	}); err != nil {
		t.Fatalf("waiting for postgres: %v", err)
	}

	if err := migrator.New(pool, migrations.FS, nil).ApplyAll(ctx); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return pool
}
