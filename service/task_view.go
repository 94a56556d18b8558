package service

import (
	"sort"
	"strings"

	"github.com/ompro/ompro_end/models"
)

// MatchesQuery reports whether task passes the search, status and shift filters
func MatchesQuery(task models.Task, q models.TaskQuery) bool {
	if q.GroupID != "" && task.GroupID != q.GroupID {
		return false
	}
	if q.Status != "" && task.Status != q.Status {
		return false
	}
	if q.Shift != "" && task.Shift != q.Shift {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(task.OMNumber), search) ||
		strings.Contains(strings.ToLower(task.Description), search) ||
		strings.Contains(strings.ToLower(task.WorkCenter), search)
}

// QueryTasks returns the tasks matching q in display order; tasks is not modified
func QueryTasks(tasks []models.Task, q models.TaskQuery) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if MatchesQuery(t, q) {
			out = append(out, t)
		}
	}
	SortTasks(out)
	return out
}

// SortTasks orders by earliest minimum date, tasks without a parseable date
// last, then by most recent update.
func SortTasks(tasks []models.Task) {
	type entry struct {
		task  models.Task
		unix  int64
		dated bool
	}
	entries := make([]entry, len(tasks))
	for i, t := range tasks {
		entries[i].task = t
		if d, ok := ParseTaskDate(t.MinDate); ok {
			entries[i].unix = d.Unix()
			entries[i].dated = true
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.dated != b.dated {
			return a.dated
		}
		if a.dated && a.unix != b.unix {
			return a.unix < b.unix
		}
		return a.task.UpdatedAt > b.task.UpdatedAt
	})

	for i := range entries {
		tasks[i] = entries[i].task
	}
}
