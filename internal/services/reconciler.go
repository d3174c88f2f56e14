package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"workflow-sync/backend/internal/logging"
	"workflow-sync/backend/internal/repository"
	"workflow-sync/backend/pkg/models"
)

// Reconciler mirrors the remote workflow collection into the local store.
type Reconciler struct {
	source   WorkflowSource
	store    repository.WorkflowStore
	logger   *logging.Logger
	recorder SyncRecorder
	now      func() time.Time
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithRecorder reports every pass to rec.
func WithRecorder(rec SyncRecorder) ReconcilerOption {
	return func(r *Reconciler) { r.recorder = rec }
}

// NewReconciler creates a new Reconciler.
func NewReconciler(source WorkflowSource, store repository.WorkflowStore, logger *logging.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		source:   source,
		store:    store,
		logger:   logger,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Synchronize runs one reconciliation pass. Failures end the pass and are
// logged; they are never returned.
func (r *Reconciler) Synchronize(ctx context.Context) {
	r.SynchronizeWithReport(ctx)
}

// SynchronizeWithReport runs one reconciliation pass and describes what it did.
func (r *Reconciler) SynchronizeWithReport(ctx context.Context) models.SyncReport {
	report := models.SyncReport{
		PassID:    uuid.NewString(),
		StartedAt: r.now(),
	}
	log := r.logger.With("pass_id", report.PassID)
	log.Info("Starting workflow synchronization")

	plan, err := r.reconcile(ctx, log)
	report.Duration = r.now().Sub(report.StartedAt)
	report.Added, report.Deleted, report.Updated = len(plan.ToAdd), len(plan.ToDelete), len(plan.ToUpdate)

	switch {
	case errors.Is(err, ErrEmptySource):
		report.Outcome = models.SyncOutcomeSkipped
		log.Warn("No workflows found in the external service, skipping synchronization")
	case err != nil:
		report.Outcome = models.SyncOutcomeFailed
		report.Err = err
		log.Error("An error occurred during workflow synchronization", "error", err)
	default:
		report.Outcome = models.SyncOutcomeSuccess
		log.Info("Workflow synchronization completed successfully",
			"added", report.Added,
			"deleted", report.Deleted,
			"updated", report.Updated,
			"duration", report.Duration,
		)
	}

	r.recorder.RecordPass(ctx, report)
	return report
}

func (r *Reconciler) reconcile(ctx context.Context, log *logging.Logger) (Plan, error) {
	remote, local, err := r.fetch(ctx)
	if err != nil {
		return Plan{}, err
	}
	if len(remote) == 0 {
		return Plan{}, ErrEmptySource
	}

	plan := Diff(remote, local)
	log.Debug("Computed synchronization plan",
		"remote", len(remote),
		"local", len(local),
		"to_add", len(plan.ToAdd),
		"to_delete", len(plan.ToDelete),
		"to_update", len(plan.ToUpdate),
	)
	if err := r.apply(ctx, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

// fetch reads both collections concurrently. A failure on either side
// fails the whole fetch.
func (r *Reconciler) fetch(ctx context.Context) (remote, local []models.Workflow, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workflows, err := r.source.ListWorkflows(gctx)
		if err != nil {
			return &SourceError{Op: "list", Err: err}
		}
		remote = workflows
		return nil
	})
	g.Go(func() error {
		workflows, err := r.store.ListWorkflows(gctx)
		if err != nil {
			return &StoreError{Op: "list", Err: err}
		}
		local = workflows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return remote, local, nil
}

// apply writes the plan as add, then delete, then update. Empty steps are
// skipped without touching the store.
func (r *Reconciler) apply(ctx context.Context, plan Plan) error {
	if len(plan.ToAdd) > 0 {
		if err := r.store.AddWorkflows(ctx, plan.ToAdd); err != nil {
			return &StoreError{Op: "add", Err: err}
		}
	}
	if len(plan.ToDelete) > 0 {
		if err := r.store.DeleteWorkflows(ctx, plan.ToDelete); err != nil {
			return &StoreError{Op: "delete", Err: err}
		}
	}
	if len(plan.ToUpdate) > 0 {
		if err := r.store.UpdateWorkflows(ctx, plan.ToUpdate); err != nil {
			return &StoreError{Op: "update", Err: err}
		}
	}
	return nil
}
