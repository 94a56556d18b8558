package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ompro/ompro_end/models"
)

// OperationLogRepository apiOperationLogs collection
type OperationLogRepository struct {
	coll *mongo.Collection
}

// NewOperationLogRepository creates an operation log repository
func NewOperationLogRepository(m *Mongo) *OperationLogRepository {
	return &OperationLogRepository{coll: m.Collection(ApiOperationLogsCollection)}
}

// InsertOperationLog stores one audit record
func (r *OperationLogRepository) InsertOperationLog(ctx context.Context, entry *models.OperationLog) error {
	_, err := r.coll.InsertOne(ctx, entry)
	return err
}
