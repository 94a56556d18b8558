package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// DeleteBatchSize tasks removed per delete batch when clearing a group
const DeleteBatchSize = 500

// TaskService task reads and mutations
type TaskService struct {
	tasks  TaskStore
	groups GroupStore
	now    func() time.Time
}

// NewTaskService creates a task service
func NewTaskService(tasks TaskStore, groups GroupStore) *TaskService {
	return &TaskService{tasks: tasks, groups: groups, now: time.Now}
}

// ValidateStatusUpdate checks a status change before anything is written.
// Every status except Pending needs a shift; In Progress and Not Done also
// need a reason.
func ValidateStatusUpdate(req models.StatusUpdateRequest) (models.StatusUpdateRequest, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	req.Shift = models.Shift(strings.ToUpper(strings.TrimSpace(string(req.Shift))))

	if !req.Status.Valid() {
		return req, validationError("unknown status %q", req.Status)
	}
	if req.Shift != "" && !req.Shift.Valid() {
		return req, validationError("shift must be one of A, B, C or D")
	}
	if req.Status != models.TaskStatusPending && req.Shift == "" {
		return req, validationError("a shift (A, B, C or D) is required")
	}
	if req.Status.RequiresReason() && req.Reason == "" {
		return req, validationError("a reason is required for status %q", req.Status)
	}
	return req, nil
}

// UpdateStatus validates and applies a status change, appending it to the task history
func (s *TaskService) UpdateStatus(ctx context.Context, taskID string, req models.StatusUpdateRequest, actor Actor) (*models.Task, error) {
	req, err := ValidateStatusUpdate(req)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrInvalidID
	}

	update := models.StatusUpdate{
		Status:         req.Status,
		Shift:          req.Shift,
		Reason:         req.Reason,
		UpdatedAt:      s.now().UnixMilli(),
		UpdatedBy:      actor.ID,
		UpdatedByEmail: actor.Email,
	}
	task, err := s.tasks.ApplyStatusUpdate(ctx, id, update)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("taskId", taskID).
		Str("status", string(req.Status)).
		Str("shift", string(req.Shift)).
		Str("user", actor.Email).
		Msg("task status updated")
	return task, nil
}

// GetTask loads one task
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.tasks.FindTask(ctx, id)
}

// ListTasks loads tasks of one group (or all groups) filtered and sorted by q
func (s *TaskService) ListTasks(ctx context.Context, q models.TaskQuery) ([]models.Task, error) {
	tasks, err := s.tasks.FindTasks(ctx, q.GroupID)
	if err != nil {
		return nil, err
	}
	return QueryTasks(tasks, q), nil
}

// DeleteTask removes one task
func (s *TaskService) DeleteTask(ctx context.Context, taskID string, actor Actor) error {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return ErrInvalidID
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}
	utils.Logger.Info().Str("taskId", taskID).Str("user", actor.Email).Msg("task deleted")
	return nil
}

// ClearGroup removes every task of a group, keeping the group
func (s *TaskService) ClearGroup(ctx context.Context, groupID string, actor Actor) (int64, error) {
	id, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return 0, ErrInvalidID
	}
	if _, err := s.groups.FindGroup(ctx, id); err != nil {
		return 0, err
	}
	deleted, err := s.tasks.DeleteTasksByGroup(ctx, groupID, DeleteBatchSize)
	if err != nil {
		return deleted, err
	}
	utils.Logger.Info().Str("groupId", groupID).Int64("deleted", deleted).Str("user", actor.Email).Msg("group task list cleared")
	return deleted, nil
}

// GroupService group lifecycle
type GroupService struct {
	groups GroupStore
	tasks  TaskStore
	now    func() time.Time
}

// NewGroupService creates a group service
func NewGroupService(groups GroupStore, tasks TaskStore) *GroupService {
	return &GroupService{groups: groups, tasks: tasks, now: time.Now}
}

// CreateGroup creates a named group
func (s *GroupService) CreateGroup(ctx context.Context, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("group name is required")
	}
	group := &models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.groups.InsertGroup(ctx, group); err != nil {
		return nil, err
	}
	utils.Logger.Info().Str("groupId", group.ID.Hex()).Str("name", name).Msg("group created")
	return group, nil
}

// ListGroups all groups, oldest first
func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groups.FindGroups(ctx)
}

// DeleteGroup deletes the tasks of a group, then the group itself.
// Task batches deleted before a failure stay deleted.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) (int64, error) {
	id, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return 0, ErrInvalidID
	}
	if _, err := s.groups.FindGroup(ctx, id); err != nil {
		return 0, err
	}

	deleted, err := s.tasks.DeleteTasksByGroup(ctx, groupID, DeleteBatchSize)
	if err != nil {
		return deleted, err
	}
	if err := s.groups.DeleteGroup(ctx, id); err != nil {
		return deleted, err
	}
	utils.Logger.Info().Str("groupId", groupID).Int64("deletedTasks", deleted).Msg("group deleted")
	return deleted, nil
}
