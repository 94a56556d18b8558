package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// ChangeKind kind of a change feed event
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// TaskChange one event of a group's change feed. Task is nil for deletes.
type TaskChange struct {
	Kind   ChangeKind   `json:"kind"`
	TaskID string       `json:"taskId"`
	Task   *models.Task `json:"task,omitempty"`
}

// TaskSubscription a live change feed. Changes is closed when the feed ends;
// Err then reports why (nil after Close).
type TaskSubscription interface {
	Changes() <-chan TaskChange
	Err() error
	Close() error
}

// TaskFeed opens change feeds filtered by group
type TaskFeed interface {
	Subscribe(ctx context.Context, groupID string) (TaskSubscription, error)
}

// TaskLister loads the snapshot a feed is applied on top of
type TaskLister interface {
	FindTasks(ctx context.Context, groupID string) ([]models.Task, error)
}

// SyncState lifecycle of a synchronizer
type SyncState int

const (
	StateUnsubscribed SyncState = iota
	StateSubscribing
	StateLive
)

func (s SyncState) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	default:
		return "unsubscribed"
	}
}

// TaskSynchronizer keeps an in-memory mirror of the tasks of one group,
// updated from the change feed.
type TaskSynchronizer struct {
	feed   TaskFeed
	lister TaskLister

	selectMu sync.Mutex // serializes Select and Close

	mu        sync.RWMutex
	state     SyncState
	groupID   string
	tasks     map[string]models.Task
	lastErr   error
	sub       TaskSubscription
	done      chan struct{}
	listeners map[int]chan TaskChange
	nextID    int
}

// NewTaskSynchronizer creates an unsubscribed synchronizer
func NewTaskSynchronizer(feed TaskFeed, lister TaskLister) *TaskSynchronizer {
	return &TaskSynchronizer{
		feed:      feed,
		lister:    lister,
		tasks:     make(map[string]models.Task),
		listeners: make(map[int]chan TaskChange),
	}
}

// Select switches the mirror to groupID. The previous subscription is torn
// down first; an empty groupID leaves the synchronizer unsubscribed.
func (s *TaskSynchronizer) Select(ctx context.Context, groupID string) error {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	s.teardown()
	if groupID == "" {
		return nil
	}

	s.mu.Lock()
	s.state = StateSubscribing
	s.groupID = groupID
	s.lastErr = nil
	s.mu.Unlock()

	// the feed is opened before the snapshot is read so no change falls in between
	sub, err := s.feed.Subscribe(context.Background(), groupID)
	if err != nil {
		return s.fail(fmt.Errorf("subscribe to group %s: %w", groupID, err))
	}

	snapshot, err := s.lister.FindTasks(ctx, groupID)
	if err != nil {
		_ = sub.Close()
		return s.fail(fmt.Errorf("load tasks of group %s: %w", groupID, err))
	}

	done := make(chan struct{})
	s.mu.Lock()
	for _, t := range snapshot {
		s.tasks[t.ID.Hex()] = t
	}
	s.sub = sub
	s.done = done
	s.state = StateLive
	s.mu.Unlock()

	utils.Logger.Debug().Str("groupId", groupID).Int("tasks", len(snapshot)).Msg("task mirror live")

	go s.run(sub, done)
	return nil
}

// Close tears down the subscription and clears the mirror
func (s *TaskSynchronizer) Close() {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	s.teardown()
}

func (s *TaskSynchronizer) fail(err error) error {
	s.mu.Lock()
	s.state = StateUnsubscribed
	s.groupID = ""
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// teardown must be called with selectMu held
func (s *TaskSynchronizer) teardown() {
	s.mu.Lock()
	sub, done := s.sub, s.done
	s.sub, s.done = nil, nil
	s.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			utils.Logger.Warn().Err(err).Msg("closing task feed")
		}
		<-done
	}

	s.mu.Lock()
	s.state = StateUnsubscribed
	s.groupID = ""
	s.tasks = make(map[string]models.Task)
	s.closeListenersLocked()
	s.mu.Unlock()
}

func (s *TaskSynchronizer) run(sub TaskSubscription, done chan struct{}) {
	defer close(done)

	for change := range sub.Changes() {
		s.apply(change)
	}

	err := sub.Err()
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != sub {
		return
	}
	utils.Logger.Error().Err(err).Str("groupId", s.groupID).Msg("task feed ended")
	s.state = StateUnsubscribed
	s.lastErr = err
	s.closeListenersLocked()
}

func (s *TaskSynchronizer) apply(change TaskChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch change.Kind {
	case ChangeInsert, ChangeUpdate:
		if change.Task == nil {
			return
		}
		if change.Task.GroupID != s.groupID {
			// moved out of the watched group
			if _, ok := s.tasks[change.TaskID]; !ok {
				return
			}
			delete(s.tasks, change.TaskID)
			change = TaskChange{Kind: ChangeDelete, TaskID: change.TaskID}
		} else {
			s.tasks[change.TaskID] = *change.Task
		}
	case ChangeDelete:
		if _, ok := s.tasks[change.TaskID]; !ok {
			return
		}
		delete(s.tasks, change.TaskID)
	default:
		return
	}

	for id, ch := range s.listeners {
		select {
		case ch <- change:
		default:
			// a listener that cannot keep up is dropped and must resubscribe
			close(ch)
			delete(s.listeners, id)
		}
	}
}

func (s *TaskSynchronizer) closeListenersLocked() {
	for id, ch := range s.listeners {
		close(ch)
		delete(s.listeners, id)
	}
}

// Watch registers a listener for applied changes. The channel is closed when
// the synchronizer is torn down, the feed fails or the listener falls behind.
func (s *TaskSynchronizer) Watch(buffer int) (<-chan TaskChange, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan TaskChange, buffer)

	s.mu.Lock()
	if s.state != StateLive {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if l, ok := s.listeners[id]; ok {
			close(l)
			delete(s.listeners, id)
		}
	}
}

// View returns the mirrored tasks matching q in display order
func (s *TaskSynchronizer) View(q models.TaskQuery) []models.Task {
	s.mu.RLock()
	tasks := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.RUnlock()

	return QueryTasks(tasks, q)
}

// Len number of mirrored tasks
func (s *TaskSynchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// State current lifecycle state
func (s *TaskSynchronizer) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// GroupID the watched group, empty when unsubscribed
func (s *TaskSynchronizer) GroupID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupID
}

// Err the error that last dropped the synchronizer to unsubscribed
func (s *TaskSynchronizer) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
