package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

// TaskRepository tasks collection
type TaskRepository struct {
	m    *Mongo
	coll *mongo.Collection
}

// NewTaskRepository creates a task repository
func NewTaskRepository(m *Mongo) *TaskRepository {
	return &TaskRepository{m: m, coll: m.TasksCollection()}
}

// InsertTaskBatch inserts tasks as one unit: inside a transaction when
// enabled, otherwise as a single ordered insert.
func (r *TaskRepository) InsertTaskBatch(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tasks))
	for i := range tasks {
		docs[i] = tasks[i]
	}

	if !r.m.transactions {
		_, err := r.coll.InsertMany(ctx, docs)
		return err
	}

	session, err := r.m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.coll.InsertMany(sc, docs)
	})
	return err
}

// FindTasks tasks of groupID, or of every group when groupID is empty
func (r *TaskRepository) FindTasks(ctx context.Context, groupID string) ([]models.Task, error) {
	filter := bson.M{}
	if groupID != "" {
		filter["groupId"] = groupID
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		utils.LogDbOperation("find", r.coll.Name(), filter, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindTask one task by id
func (r *TaskRepository) FindTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// ApplyStatusUpdate sets the current status fields and pushes one history entry
func (r *TaskRepository) ApplyStatusUpdate(ctx context.Context, id primitive.ObjectID, u models.StatusUpdate) (*models.Task, error) {
	set := bson.M{
		"status":         u.Status,
		"updatedAt":      u.UpdatedAt,
		"updatedBy":      u.UpdatedBy,
		"updatedByEmail": u.UpdatedByEmail,
	}
	unset := bson.M{}
	if u.Shift != "" {
		set["shift"] = u.Shift
	} else {
		unset["shift"] = ""
	}
	if u.Reason != "" {
		set["reason"] = u.Reason
	} else {
		unset["reason"] = ""
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": u.HistoryEntry()},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var task models.Task
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes one task
func (r *TaskRepository) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return service.ErrTaskNotFound
	}
	return nil
}

// DeleteTasksByGroup deletes the tasks of a group batchSize at a time.
// Batches deleted before an error stay deleted.
func (r *TaskRepository) DeleteTasksByGroup(ctx context.Context, groupID string, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = service.DeleteBatchSize
	}
	findOpts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(batchSize))

	var deleted int64
	for {
		cursor, err := r.coll.Find(ctx, bson.M{"groupId": groupID}, findOpts)
		if err != nil {
			return deleted, err
		}
		var batch []struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.All(ctx, &batch); err != nil {
			return deleted, err
		}
		if len(batch) == 0 {
			return deleted, nil
		}

		ids := make([]primitive.ObjectID, len(batch))
		for i, doc := range batch {
			ids[i] = doc.ID
		}
		res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return deleted, err
		}
		deleted += res.DeletedCount
		if len(batch) < batchSize {
			return deleted, nil
		}
	}
}
