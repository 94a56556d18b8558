package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group named partition of tasks, e.g. one maintenance shutdown
type Group struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	CreatedAt int64              `json:"createdAt" bson:"createdAt"`
}

// CreateGroupRequest create group request
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}
