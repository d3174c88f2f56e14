package services

import (
	"sort"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/duke-git/lancet/v2/slice"

	"workflow-sync/backend/pkg/models"
)

// Plan is the three-way diff between the remote and the local collection.
// The sets are disjoint by id and sorted by id.
type Plan struct {
	ToAdd    []models.Workflow
	ToDelete []int
	ToUpdate []models.Workflow
}

// Diff classifies ids by membership: remote-only ids are added, local-only
// ids are deleted and ids present in both are updated from the remote copy
// without comparing content. Duplicate ids within one side keep the last
// occurrence.
func Diff(remote, local []models.Workflow) Plan {
	remoteByID := indexByID(remote)
	localByID := indexByID(local)

	var plan Plan
	for _, id := range sortedIDs(remoteByID) {
		if _, ok := localByID[id]; ok {
			plan.ToUpdate = append(plan.ToUpdate, remoteByID[id])
		} else {
			plan.ToAdd = append(plan.ToAdd, remoteByID[id])
		}
	}
	plan.ToDelete = slice.Filter(sortedIDs(localByID), func(_ int, id int) bool {
		_, ok := remoteByID[id]
		return !ok
	})
	return plan
}

func indexByID(workflows []models.Workflow) map[int]models.Workflow {
	m := make(map[int]models.Workflow, len(workflows))
	for _, w := range workflows {
		m[w.ID] = w
	}
	return m
}

func sortedIDs(m map[int]models.Workflow) []int {
	ids := maputil.Keys(m)
	sort.Ints(ids)
	return ids
}
