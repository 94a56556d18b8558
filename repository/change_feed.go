package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

// ErrStreamInvalidated the watched collection was dropped or renamed
var ErrStreamInvalidated = errors.New("change stream invalidated")

// TaskChangeFeed opens change streams on the tasks collection
type TaskChangeFeed struct {
	coll *mongo.Collection
}

// NewTaskChangeFeed creates a change feed; change streams need a replica set
func NewTaskChangeFeed(m *Mongo) *TaskChangeFeed {
	return &TaskChangeFeed{coll: m.TasksCollection()}
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument *models.Task `bson:"fullDocument"`
}

// GroupPipeline matches changes of groupID plus every delete, since deleted
// documents carry no groupId, and every update that rewrites groupId so
// watchers of the old group see the task leave. Events for tasks outside the
// mirror are ignored by the synchronizer.
func GroupPipeline(groupID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "fullDocument.groupId", Value: groupID}},
			bson.D{{Key: "updateDescription.updatedFields.groupId", Value: bson.D{{Key: "$exists", Value: true}}}},
			bson.D{{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"delete", "drop", "rename", "dropDatabase", "invalidate"}}}}},
		}}}}},
	}
}

// Subscribe opens a change stream for groupID
func (f *TaskChangeFeed) Subscribe(ctx context.Context, groupID string) (service.TaskSubscription, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := f.coll.Watch(ctx, GroupPipeline(groupID), opts)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", f.coll.Name(), err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &streamSubscription{
		stream: stream,
		ch:     make(chan service.TaskChange, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(runCtx, groupID)
	return sub, nil
}

// ToTaskChange converts a change event; ok is false for events that carry no task change
func ToTaskChange(raw bson.Raw) (service.TaskChange, bool, error) {
	var ev changeEvent
	if err := bson.Unmarshal(raw, &ev); err != nil {
		return service.TaskChange{}, false, err
	}
	id := ev.DocumentKey.ID.Hex()

	switch ev.OperationType {
	case "insert", "update", "replace":
		if ev.FullDocument == nil {
			// updated then deleted before the lookup ran
			return service.TaskChange{Kind: service.ChangeDelete, TaskID: id}, true, nil
		}
		kind := service.ChangeUpdate
		if ev.OperationType == "insert" {
			kind = service.ChangeInsert
		}
		return service.TaskChange{Kind: kind, TaskID: id, Task: ev.FullDocument}, true, nil
	case "delete":
		return service.TaskChange{Kind: service.ChangeDelete, TaskID: id}, true, nil
	case "drop", "rename", "dropDatabase", "invalidate":
		return service.TaskChange{}, false, ErrStreamInvalidated
	}
	return service.TaskChange{}, false, nil
}

type streamSubscription struct {
	stream *mongo.ChangeStream
	ch     chan service.TaskChange
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

func (s *streamSubscription) run(ctx context.Context, groupID string) {
	defer close(s.done)
	defer close(s.ch)

	for s.stream.Next(ctx) {
		change, ok, err := ToTaskChange(s.stream.Current)
		if err != nil {
			s.setErr(err)
			return
		}
		if !ok {
			continue
		}
		select {
		case s.ch <- change:
		case <-ctx.Done():
			return
		}
	}
	if err := s.stream.Err(); err != nil {
		utils.Logger.Debug().Err(err).Str("groupId", groupID).Msg("change stream stopped")
		s.setErr(err)
	}
}

func (s *streamSubscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.err = err
	}
}

func (s *streamSubscription) Changes() <-chan service.TaskChange {
	return s.ch
}

func (s *streamSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *streamSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	<-s.done
	return s.stream.Close(context.Background())
}
