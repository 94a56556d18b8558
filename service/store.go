package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
)

// TaskStore persistence of tasks
type TaskStore interface {
	// InsertTaskBatch commits tasks as one atomic batch.
	InsertTaskBatch(ctx context.Context, tasks []models.Task) error
	// FindTasks returns the tasks of groupID, or of every group when groupID is empty.
	FindTasks(ctx context.Context, groupID string) ([]models.Task, error)
	FindTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	// ApplyStatusUpdate overwrites the current status fields and appends one history entry.
	ApplyStatusUpdate(ctx context.Context, id primitive.ObjectID, update models.StatusUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
	DeleteTasksByGroup(ctx context.Context, groupID string, batchSize int) (int64, error)
}

// GroupStore persistence of groups
type GroupStore interface {
	InsertGroup(ctx context.Context, group *models.Group) error
	FindGroups(ctx context.Context) ([]models.Group, error)
	FindGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
}

// UserStore persistence of user profiles
type UserStore interface {
	InsertUser(ctx context.Context, user *models.UserProfile) error
	FindUsers(ctx context.Context) ([]models.UserProfile, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error)
	FindUserByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

// Actor the authenticated user performing an operation
type Actor struct {
	ID    string
	Email string
	Name  string
	Role  models.UserRole
}
