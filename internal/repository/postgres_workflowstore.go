package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"workflow-sync/backend/pkg/models"
)

const workflowsTable = "workflows"

var workflowColumns = []string{"id", "name", "is_active", "multi_exec_behavior"}

const updateWorkflowsSQL = `UPDATE workflows AS w
SET name = u.name, is_active = u.is_active, multi_exec_behavior = u.multi_exec_behavior
FROM unnest($1::int[], $2::text[], $3::bool[], $4::text[]) AS u(id, name, is_active, multi_exec_behavior)
WHERE w.id = u.id`

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// DB is the subset of pgxpool.Pool the store depends on.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresWorkflowStore is a PostgreSQL implementation of the WorkflowStore interface.
type PostgresWorkflowStore struct {
	db DB
}

// NewPostgresWorkflowStore creates a new PostgresWorkflowStore.
func NewPostgresWorkflowStore(db DB) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

// ListWorkflows returns every stored workflow ordered by id.
func (s *PostgresWorkflowStore) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	query, args, err := psql.Select(workflowColumns...).From(workflowsTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	var workflows []models.Workflow
	if err := pgxscan.Select(ctx, s.db, &workflows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return workflows, nil
}

// AddWorkflows inserts workflows with a single COPY.
func (s *PostgresWorkflowStore) AddWorkflows(ctx context.Context, workflows []models.Workflow) error {
	if len(workflows) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{workflowsTable}, workflowColumns,
			pgx.CopyFromSlice(len(workflows), func(i int) ([]any, error) {
				w := workflows[i]
				return []any{w.ID, w.Name, w.IsActive, w.MultiExecBehavior}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to insert workflows: %w", err)
		}
		if int(n) != len(workflows) {
			return fmt.Errorf("inserted %d of %d workflows", n, len(workflows))
		}
		return nil
	})
}

// UpdateWorkflows overwrites name, is_active and multi_exec_behavior for
// every given workflow in one statement.
func (s *PostgresWorkflowStore) UpdateWorkflows(ctx context.Context, workflows []models.Workflow) error {
	if len(workflows) == 0 {
		return nil
	}
	ids := make([]int, len(workflows))
	names := make([]*string, len(workflows))
	active := make([]bool, len(workflows))
	behaviors := make([]*string, len(workflows))
	for i, w := range workflows {
		ids[i] = w.ID
		names[i] = w.Name
		active[i] = w.IsActive
		behaviors[i] = w.MultiExecBehavior
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, updateWorkflowsSQL, ids, names, active, behaviors); err != nil {
			return fmt.Errorf("failed to update workflows: %w", err)
		}
		return nil
	})
}

// DeleteWorkflows removes the workflows with the given ids.
func (s *PostgresWorkflowStore) DeleteWorkflows(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete(workflowsTable).Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete workflows: %w", err)
		}
		return nil
	})
}

// withTx runs fn in a transaction that is committed when fn succeeds and
// rolled back otherwise.
func (s *PostgresWorkflowStore) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()
	return fn(tx)
}
