package timesheet

import (
	"slices"

	"github.com/google/uuid"
)

// Reconcile merges projects that share an id (the same project appearing in
// non-contiguous blocks). Tasks of a repeated block are appended to the first
// occurrence and durations are summed. A task whose id is already present in
// the merged project is the same work reported twice and is dropped.
//
// The result is ordered by date ascending; ties keep first-seen order.
func Reconcile(projects []*Project) []*Project {
	byID := make(map[uuid.UUID]*Project, len(projects))
	merged := make([]*Project, 0, len(projects))

	for _, p := range projects {
		existing, ok := byID[p.ID]
		if !ok {
			byID[p.ID] = p
			merged = append(merged, p)
			continue
		}
		mergeInto(existing, p)
	}

	slices.SortStableFunc(merged, func(a, b *Project) int {
		return a.Date.Compare(b.Date)
	})
	return merged
}

func mergeInto(dst, src *Project) {
	seen := make(map[uuid.UUID]bool, len(dst.Tasks))
	for _, t := range dst.Tasks {
		seen[t.ID] = true
	}
	for _, t := range src.Tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		dst.Tasks = append(dst.Tasks, t)
		dst.DurationMS += t.DurationMS
	}
	dst.Recompute()
}
