package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
)

// GroupRepository groups collection
type GroupRepository struct {
	coll *mongo.Collection
}

// NewGroupRepository creates a group repository
func NewGroupRepository(m *Mongo) *GroupRepository {
	return &GroupRepository{coll: m.Collection(GroupsCollection)}
}

// InsertGroup stores a new group
func (r *GroupRepository) InsertGroup(ctx context.Context, group *models.Group) error {
	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, group)
	return err
}

// FindGroups all groups, oldest first
func (r *GroupRepository) FindGroups(ctx context.Context) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []models.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// FindGroup one group by id
func (r *GroupRepository) FindGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var group models.Group
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&group); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a group document; its tasks are deleted by the caller
func (r *GroupRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return service.ErrGroupNotFound
	}
	return nil
}
