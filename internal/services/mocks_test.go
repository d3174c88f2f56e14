package services

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"workflow-sync/backend/pkg/models"
)

// MockSource satisfies WorkflowSource
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Workflow), args.Error(1)
}

func (m *MockSource) RunWorkflow(ctx context.Context, id int) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockStore satisfies repository.WorkflowStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Workflow), args.Error(1)
}

func (m *MockStore) AddWorkflows(ctx context.Context, workflows []models.Workflow) error {
	return m.Called(ctx, workflows).Error(0)
}

func (m *MockStore) UpdateWorkflows(ctx context.Context, workflows []models.Workflow) error {
	return m.Called(ctx, workflows).Error(0)
}

func (m *MockStore) DeleteWorkflows(ctx context.Context, ids []int) error {
	return m.Called(ctx, ids).Error(0)
}

// memoryStore is an in-memory WorkflowStore that records write calls.
type memoryStore struct {
	mu      sync.Mutex
	rows    map[int]models.Workflow
	updates int
}

func newMemoryStore(seed ...models.Workflow) *memoryStore {
	s := &memoryStore{rows: map[int]models.Workflow{}}
	for _, w := range seed {
		s.rows[w.ID] = w
	}
	return s
}

func (s *memoryStore) ListWorkflows(context.Context) ([]models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Workflow, 0, len(s.rows))
	for _, w := range s.rows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) AddWorkflows(_ context.Context, workflows []models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range workflows {
		s.rows[w.ID] = w
	}
	return nil
}

func (s *memoryStore) UpdateWorkflows(_ context.Context, workflows []models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates += len(workflows)
	for _, w := range workflows {
		s.rows[w.ID] = w
	}
	return nil
}

func (s *memoryStore) DeleteWorkflows(_ context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

func (s *memoryStore) ids() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
