package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ompro/ompro_end/utils"
)

const (
	// collection names
	GroupsCollection           = "groups"
	UsersCollection            = "users"
	ApiOperationLogsCollection = "apiOperationLogs"
	DefaultTasksCollection     = "tasks"
)

// Options connection settings
type Options struct {
	URI          string
	Database     string
	Tasks        string // tasks collection name
	Transactions bool   // commit import batches inside a transaction
}

// Mongo MongoDB client and database handle shared by the repositories
type Mongo struct {
	client       *mongo.Client
	db           *mongo.Database
	tasks        string
	transactions bool
}

// Connect opens the connection and checks it with a ping
func Connect(ctx context.Context, opts Options) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	err = pingWithRetry(ctx, client, 3)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	utils.Logger.Info().Str("database", opts.Database).Bool("transactions", opts.Transactions).Msg("connected to MongoDB")
	return NewMongo(client, client.Database(opts.Database), opts), nil
}

// NewMongo wraps an already connected client
func NewMongo(client *mongo.Client, db *mongo.Database, opts Options) *Mongo {
	tasks := opts.Tasks
	if tasks == "" {
		tasks = DefaultTasksCollection
	}
	return &Mongo{client: client, db: db, tasks: tasks, transactions: opts.Transactions}
}

// Close disconnects the client
func (m *Mongo) Close(ctx context.Context) {
	if m.client == nil {
		return
	}
	if err := m.client.Disconnect(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		return
	}
	utils.Logger.Info().Msg("disconnected from MongoDB")
}

// Collection returns the named collection
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// TasksCollection returns the configured tasks collection
func (m *Mongo) TasksCollection() *mongo.Collection {
	return m.db.Collection(m.tasks)
}

func (m *Mongo) collections() []string {
	return []string{m.tasks, GroupsCollection, UsersCollection, ApiOperationLogsCollection}
}

func pingWithRetry(ctx context.Context, client *mongo.Client, retries int) error {
	var lastErr error
	for i := 0; i < retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		utils.Logger.Warn().Err(err).Msgf("MongoDB ping failed, retrying (%d/%d)", i+1, retries)
		if !isRetryableError(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(500*(i+1)) * time.Millisecond):
		}
	}
	return lastErr
}

// isRetryableError reports transient network and election errors
func isRetryableError(err error) bool {
	retryableCodes := map[int32]bool{
		6:     true, // HostUnreachable
		7:     true, // HostNotFound
		89:    true, // NetworkTimeout
		91:    true, // ShutdownInProgress
		189:   true, // PrimarySteppedDown
		10107: true, // NotWritablePrimary
		13436: true, // NotPrimaryNoSecondaryOk
		11600: true, // InterruptedAtShutdown
		11602: true, // InterruptedDueToReplStateChange
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return retryableCodes[cmdErr.Code]
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// InitializeCollections creates missing collections
func (m *Mongo) InitializeCollections(ctx context.Context) error {
	for _, name := range m.collections() {
		exists, err := m.collectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check collection %s: %w", name, err)
		}
		if exists {
			utils.Logger.Debug().Str("collection", name).Msg("collection exists")
			continue
		}
		if err := m.db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		utils.Logger.Info().Str("collection", name).Msg("collection created")
	}
	return nil
}

func (m *Mongo) collectionExists(ctx context.Context, name string) (bool, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// EnsureIndexes creates the indexes the queries rely on
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.TasksCollection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "groupId", Value: 1}}},
		{Keys: bson.D{{Key: "importId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}

	_, err = m.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	_, err = m.Collection(GroupsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create group indexes: %w", err)
	}
	return nil
}

// GetDatabaseStatus document count per collection
func (m *Mongo) GetDatabaseStatus(ctx context.Context) (map[string]interface{}, error) {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	result := make(map[string]interface{})
	for _, name := range m.collections() {
		count, err := m.Collection(name).CountDocuments(ctx, bson.M{})
		if err != nil {
			utils.Logger.Error().Err(err).Str("collection", name).Msg("failed to count collection")
			result[name] = map[string]interface{}{"count": 0, "error": err.Error()}
			continue
		}
		result[name] = map[string]interface{}{"count": count}
	}
	return result, nil
}
