package planner

import (
	"sort"
	"time"

	"github.com/harsha08-2k6/studyplan/internal/api"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

type SortBy string

const (
	SortByDueDate  SortBy = "due_date"
	SortByPriority SortBy = "priority"
)

var priorityRank = map[string]int{"high": 3, "medium": 2, "low": 1}

// farFuture is the sentinel for missing due dates so they sort last.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// ApplyView filters then sorts a copy of tasks. Pure and idempotent; the
// caller's slice is never reordered.
func ApplyView(tasks []api.Task, filter Filter, sortBy SortBy) []api.Task {
	out := make([]api.Task, 0, len(tasks))
	for _, t := range tasks {
		switch filter {
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		case FilterPending:
			if t.Completed {
				continue
			}
		}
		out = append(out, t)
	}

	switch sortBy {
	case SortByPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return priorityRank[out[i].Priority] > priorityRank[out[j].Priority]
		})
	case SortByDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			return dueTime(out[i]).Before(dueTime(out[j]))
		})
	}
	return out
}

func dueTime(t api.Task) time.Time {
	if t.DueDate == "" {
		return farFuture
	}
	parsed, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return farFuture
	}
	return parsed
}
