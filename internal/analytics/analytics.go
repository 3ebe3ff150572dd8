// Package analytics holds the pure derivations behind both dashboard
// variants. Nothing here is persisted; every value is recomputed from the
// current collections on each refresh.
package analytics

import (
	"math"

	"github.com/harsha08-2k6/studyplan/internal/api"
)

// Achievement thresholds, in points or streak days.
const (
	rookiePoints     = 100
	scholarPoints    = 500
	consistentStreak = 7
)

// TaskStats are the four scalar counters on the student dashboard.
type TaskStats struct {
	Total        int
	Completed    int
	Pending      int
	HighPriority int // pending tasks with high priority
}

func ComputeTaskStats(tasks []api.Task) TaskStats {
	var stats TaskStats
	stats.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
			if t.Priority == "high" {
				stats.HighPriority++
			}
		}
	}
	return stats
}

// CompletionRate is round(100 * completed / total), or 0 when there is
// nothing to complete.
func CompletionRate(stats TaskStats) int {
	if stats.Total == 0 {
		return 0
	}
	return int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
}

// MaxCount is the normalization factor for proportional bar rendering. The
// floor of 1 keeps empty weeks from dividing by zero.
func MaxCount(buckets []api.WeeklyBucket) int {
	max := 1
	for _, b := range buckets {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}

type Achievement struct {
	Name     string
	Unlocked bool
}

// Achievements evaluates the badge predicates for the current profile.
func Achievements(points, streak int) []Achievement {
	return []Achievement{
		{Name: "Rookie", Unlocked: points >= rookiePoints},
		{Name: "Scholar", Unlocked: points >= scholarPoints},
		{Name: "Consistent", Unlocked: streak >= consistentStreak},
	}
}

// RecentTasks is the first n tasks in server order.
func RecentTasks(tasks []api.Task, n int) []api.Task {
	if len(tasks) < n {
		n = len(tasks)
	}
	return tasks[:n]
}

// RecentCompletions is the first n completed student tasks in server order,
// for the admin activity feed.
func RecentCompletions(tasks []api.Task, n int) []api.Task {
	var out []api.Task
	for _, t := range tasks {
		if t.Completed && t.UserRole == api.RoleStudent {
			out = append(out, t)
			if len(out) == n {
				break
			}
		}
	}
	return out
}
