package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"workflow-sync/backend/pkg/models"
)

func TestPostgresWorkflowStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	require.NoError(t, ApplyMigrations(ctx, connStr))
	// a second run is a no-op
	require.NoError(t, ApplyMigrations(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgresWorkflowStore(pool)

	t.Run("Add, update and delete", func(t *testing.T) {
		err := store.AddWorkflows(ctx, []models.Workflow{
			{ID: 1, Name: models.StringPtr("one"), IsActive: true, MultiExecBehavior: models.StringPtr("Skip")},
			{ID: 2, Name: models.StringPtr("two")},
			{ID: 3},
		})
		require.NoError(t, err)

		err = store.UpdateWorkflows(ctx, []models.Workflow{
			{ID: 1, Name: nil, IsActive: false},
			{ID: 3, Name: models.StringPtr("three"), IsActive: true, MultiExecBehavior: models.StringPtr("Queue")},
		})
		require.NoError(t, err)

		require.NoError(t, store.DeleteWorkflows(ctx, []int{2}))

		workflows, err := store.ListWorkflows(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Workflow{
			{ID: 1},
			{ID: 3, Name: models.StringPtr("three"), IsActive: true, MultiExecBehavior: models.StringPtr("Queue")},
		}, workflows)
	})
}
