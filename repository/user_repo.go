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

// UserRepository users collection
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a user repository
func NewUserRepository(m *Mongo) *UserRepository {
	return &UserRepository{coll: m.Collection(UsersCollection)}
}

// InsertUser stores a new profile; a taken e-mail yields service.ErrEmailTaken
func (r *UserRepository) InsertUser(ctx context.Context, user *models.UserProfile) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return service.ErrEmailTaken
	}
	return err
}

// FindUsers all profiles ordered by name
func (r *UserRepository) FindUsers(ctx context.Context) ([]models.UserProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.UserProfile{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindUserByID one profile by id
func (r *UserRepository) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindUserByEmail one profile by e-mail
func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CountUsersByRole number of profiles with role
func (r *UserRepository) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"role": role})
}

// UpdatePassword replaces the password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a profile
func (r *UserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return service.ErrUserNotFound
	}
	return nil
}
