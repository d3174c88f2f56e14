package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"workflow-sync/backend/pkg/models"
)

func ids(workflows []models.Workflow) []int {
	out := make([]int, 0, len(workflows))
	for _, w := range workflows {
		out = append(out, w.ID)
	}
	return out
}

func TestDiff_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		remote     []models.Workflow
		local      []models.Workflow
		wantAdd    []int
		wantDelete []int
		wantUpdate []int
	}{
		{
			name:       "overlap is rewritten",
			remote:     []models.Workflow{wf(1, "a"), wf(2, "b"), wf(3, "c-renamed")},
			local:      []models.Workflow{wf(2, "b"), wf(3, "c")},
			wantAdd:    []int{1},
			wantUpdate: []int{2, 3},
		},
		{
			name:    "empty local",
			remote:  []models.Workflow{wf(1, "a")},
			wantAdd: []int{1},
		},
		{
			name:       "identical sets",
			remote:     []models.Workflow{wf(1, "a"), wf(2, "b")},
			local:      []models.Workflow{wf(1, "a"), wf(2, "b")},
			wantUpdate: []int{1, 2},
		},
		{
			name:       "removed remotely",
			remote:     []models.Workflow{wf(1, "a")},
			local:      []models.Workflow{wf(1, "a"), wf(4, "d"), wf(2, "b")},
			wantDelete: []int{2, 4},
			wantUpdate: []int{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Diff(tt.remote, tt.local)

			assert.ElementsMatch(t, tt.wantAdd, ids(plan.ToAdd))
			assert.ElementsMatch(t, tt.wantDelete, plan.ToDelete)
			assert.ElementsMatch(t, tt.wantUpdate, ids(plan.ToUpdate))
		})
	}
}

func TestDiff_UpdateCarriesRemoteContent(t *testing.T) {
	plan := Diff([]models.Workflow{wf(3, "remote")}, []models.Workflow{wf(3, "local")})

	assert.Equal(t, []models.Workflow{wf(3, "remote")}, plan.ToUpdate)
}

func TestDiff_DuplicateIDsLastWins(t *testing.T) {
	plan := Diff([]models.Workflow{wf(1, "first"), wf(1, "second")}, nil)

	assert.Equal(t, []models.Workflow{wf(1, "second")}, plan.ToAdd)
}

func TestDiff_Partition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		remoteIDs := rapid.SliceOfDistinct(rapid.IntRange(1, 50), rapid.ID[int]).Draw(t, "remote")
		localIDs := rapid.SliceOfDistinct(rapid.IntRange(1, 50), rapid.ID[int]).Draw(t, "local")
		remote := make([]models.Workflow, 0, len(remoteIDs))
		for _, id := range remoteIDs {
			remote = append(remote, wf(id, "r"))
		}
		local := make([]models.Workflow, 0, len(localIDs))
		for _, id := range localIDs {
			local = append(local, wf(id, "l"))
		}

		plan := Diff(remote, local)

		add, upd, del := toSet(ids(plan.ToAdd)), toSet(ids(plan.ToUpdate)), toSet(plan.ToDelete)
		for id := range add {
			if upd[id] || del[id] {
				t.Fatalf("id %d appears in more than one set", id)
			}
		}
		for id := range upd {
			if del[id] {
				t.Fatalf("id %d is both updated and deleted", id)
			}
		}
		if !sameSet(union(add, upd), toSet(remoteIDs)) {
			t.Fatalf("toAdd ∪ toUpdate != remote")
		}
		if !sameSet(union(del, upd), toSet(localIDs)) {
			t.Fatalf("toDelete ∪ toUpdate != local")
		}
	})
}

func toSet(ids []int) map[int]bool {
	s := make(map[int]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func union(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for id := range a {
		out[id] = true
	}
	for id := range b {
		out[id] = true
	}
	return out
}

func sameSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
