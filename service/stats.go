package service

import (
	"context"
	"sort"

	"github.com/ompro/ompro_end/models"
)

// ComputeStats aggregates tasks by status, shift and group.
// Tasks of unknown groups are counted in the totals only.
func ComputeStats(tasks []models.Task, groups []models.Group) *models.DashboardStats {
	stats := &models.DashboardStats{Total: len(tasks)}

	byStatus := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	byShift := make(map[models.Shift]int, len(models.Shifts))
	type groupCount struct{ total, done int }
	byGroup := make(map[string]*groupCount, len(groups))
	for _, g := range groups {
		byGroup[g.ID.Hex()] = &groupCount{}
	}

	for _, t := range tasks {
		byStatus[t.Status]++
		if t.Shift != "" {
			byShift[t.Shift]++
		}
		if gc, ok := byGroup[t.GroupID]; ok {
			gc.total++
			if t.Status == models.TaskStatusDone {
				gc.done++
			}
		}
	}

	stats.Pending = byStatus[models.TaskStatusPending]
	stats.InProgress = byStatus[models.TaskStatusInProgress]
	stats.Done = byStatus[models.TaskStatusDone]
	stats.NotDone = byStatus[models.TaskStatusNotDone]
	stats.CompletionRate = percent(stats.Done, stats.Total)

	stats.StatusDistribution = make([]models.ChartDataItem, 0, len(models.TaskStatuses))
	for _, s := range models.TaskStatuses {
		stats.StatusDistribution = append(stats.StatusDistribution, models.ChartDataItem{Name: string(s), Value: byStatus[s]})
	}
	stats.ShiftDistribution = make([]models.ChartDataItem, 0, len(models.Shifts))
	for _, s := range models.Shifts {
		stats.ShiftDistribution = append(stats.ShiftDistribution, models.ChartDataItem{Name: "Turno " + string(s), Value: byShift[s]})
	}

	stats.Groups = make([]models.GroupStats, 0, len(groups))
	for _, g := range groups {
		gc := byGroup[g.ID.Hex()]
		stats.Groups = append(stats.Groups, models.GroupStats{
			GroupID:        g.ID.Hex(),
			GroupName:      g.Name,
			Total:          gc.total,
			Done:           gc.done,
			CompletionRate: percent(gc.done, gc.total),
		})
	}
	sort.SliceStable(stats.Groups, func(i, j int) bool {
		return stats.Groups[i].Total > stats.Groups[j].Total
	})
	return stats
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*100 + total/2) / total
}

// StatsService dashboard statistics
type StatsService struct {
	tasks  TaskStore
	groups GroupStore
}

// NewStatsService creates a stats service
func NewStatsService(tasks TaskStore, groups GroupStore) *StatsService {
	return &StatsService{tasks: tasks, groups: groups}
}

// DashboardStats statistics over every group
func (s *StatsService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	groups, err := s.groups.FindGroups(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.FindTasks(ctx, "")
	if err != nil {
		return nil, err
	}
	return ComputeStats(tasks, groups), nil
}
