// Package servicetest provides in-memory stores for exercising services and handlers.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
)

// ErrInjected returned by operations made to fail on purpose
var ErrInjected = errors.New("injected store failure")

// MemStore keeps tasks, groups and users in memory and publishes task changes
// to subscribers the way a change stream would.
type MemStore struct {
	mu     sync.Mutex
	tasks  map[primitive.ObjectID]models.Task
	order  []primitive.ObjectID
	groups map[primitive.ObjectID]models.Group
	users  map[primitive.ObjectID]models.UserProfile
	subs   map[*memSubscription]struct{}

	// FailBatch makes the n-th InsertTaskBatch call (1-based) fail; 0 disables it.
	FailBatch int
	// FailFind makes FindTasks fail.
	FailFind bool
	// FailSubscribe makes Subscribe fail.
	FailSubscribe bool

	batchCalls int
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		tasks:  make(map[primitive.ObjectID]models.Task),
		groups: make(map[primitive.ObjectID]models.Group),
		users:  make(map[primitive.ObjectID]models.UserProfile),
		subs:   make(map[*memSubscription]struct{}),
	}
}

// BatchCalls number of InsertTaskBatch calls so far
func (m *MemStore) BatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// TaskCount number of stored tasks
func (m *MemStore) TaskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// AddGroup stores a group with a fresh id
func (m *MemStore) AddGroup(name string) models.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := models.Group{ID: primitive.NewObjectID(), Name: name, CreatedAt: int64(len(m.groups) + 1)}
	m.groups[g.ID] = g
	return g
}

// PutTask inserts or replaces a task and publishes the change
func (m *MemStore) PutTask(t models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kind := service.ChangeUpdate
	if _, ok := m.tasks[t.ID]; !ok {
		kind = service.ChangeInsert
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = t
	m.publishLocked(kind, t.ID, &t)
}

// InsertTaskBatch implements service.TaskStore
func (m *MemStore) InsertTaskBatch(_ context.Context, tasks []models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.FailBatch > 0 && m.batchCalls == m.FailBatch {
		return ErrInjected
	}
	for _, t := range tasks {
		t := t
		m.tasks[t.ID] = t
		m.order = append(m.order, t.ID)
		m.publishLocked(service.ChangeInsert, t.ID, &t)
	}
	return nil
}

// FindTasks implements service.TaskStore
func (m *MemStore) FindTasks(_ context.Context, groupID string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFind {
		return nil, ErrInjected
	}
	out := make([]models.Task, 0, len(m.tasks))
	for _, id := range m.order {
		t, ok := m.tasks[id]
		if !ok {
			continue
		}
		if groupID == "" || t.GroupID == groupID {
			out = append(out, t)
		}
	}
	return out, nil
}

// FindTask implements service.TaskStore
func (m *MemStore) FindTask(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, service.ErrTaskNotFound
	}
	return &t, nil
}

// ApplyStatusUpdate implements service.TaskStore
func (m *MemStore) ApplyStatusUpdate(_ context.Context, id primitive.ObjectID, u models.StatusUpdate) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, service.ErrTaskNotFound
	}
	t.Status = u.Status
	t.Shift = u.Shift
	t.Reason = u.Reason
	t.UpdatedAt = u.UpdatedAt
	t.UpdatedBy = u.UpdatedBy
	t.UpdatedByEmail = u.UpdatedByEmail
	t.History = append(append([]models.HistoryEntry(nil), t.History...), u.HistoryEntry())
	m.tasks[id] = t
	m.publishLocked(service.ChangeUpdate, id, &t)
	return &t, nil
}

// DeleteTask implements service.TaskStore
func (m *MemStore) DeleteTask(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return service.ErrTaskNotFound
	}
	delete(m.tasks, id)
	m.publishLocked(service.ChangeDelete, id, nil)
	return nil
}

// DeleteTasksByGroup implements service.TaskStore
func (m *MemStore) DeleteTasksByGroup(_ context.Context, groupID string, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tasks {
		if t.GroupID == groupID {
			delete(m.tasks, id)
			m.publishLocked(service.ChangeDelete, id, nil)
			n++
		}
	}
	return n, nil
}

// InsertGroup implements service.GroupStore
func (m *MemStore) InsertGroup(_ context.Context, g *models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	m.groups[g.ID] = *g
	return nil
}

// FindGroups implements service.GroupStore
func (m *MemStore) FindGroups(_ context.Context) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// FindGroup implements service.GroupStore
func (m *MemStore) FindGroup(_ context.Context, id primitive.ObjectID) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, service.ErrGroupNotFound
	}
	return &g, nil
}

// DeleteGroup implements service.GroupStore
func (m *MemStore) DeleteGroup(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return service.ErrGroupNotFound
	}
	delete(m.groups, id)
	return nil
}

// InsertUser implements service.UserStore
func (m *MemStore) InsertUser(_ context.Context, u *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return service.ErrEmailTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = *u
	return nil
}

// FindUsers implements service.UserStore
func (m *MemStore) FindUsers(_ context.Context) ([]models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.UserProfile, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// FindUserByID implements service.UserStore
func (m *MemStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return &u, nil
}

// FindUserByEmail implements service.UserStore
func (m *MemStore) FindUserByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, service.ErrUserNotFound
}

// CountUsersByRole implements service.UserStore
func (m *MemStore) CountUsersByRole(_ context.Context, role models.UserRole) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// UpdatePassword implements service.UserStore
func (m *MemStore) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return service.ErrUserNotFound
	}
	u.Password = hash
	m.users[id] = u
	return nil
}

// DeleteUser implements service.UserStore
func (m *MemStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return service.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// Subscribe implements service.TaskFeed. Every change is delivered; the
// synchronizer filters by group like a change stream match stage would.
func (m *MemStore) Subscribe(_ context.Context, _ string) (service.TaskSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSubscribe {
		return nil, ErrInjected
	}
	sub := &memSubscription{store: m, ch: make(chan service.TaskChange, 1024)}
	m.subs[sub] = struct{}{}
	return sub, nil
}

// Subscribers number of open subscriptions
func (m *MemStore) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// BreakFeeds ends every open subscription with err
func (m *MemStore) BreakFeeds(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		sub.err = err
		close(sub.ch)
		delete(m.subs, sub)
	}
}

func (m *MemStore) publishLocked(kind service.ChangeKind, id primitive.ObjectID, t *models.Task) {
	change := service.TaskChange{Kind: kind, TaskID: id.Hex()}
	if t != nil {
		cp := *t
		change.Task = &cp
	}
	for sub := range m.subs {
		sub.ch <- change
	}
}

type memSubscription struct {
	store *MemStore
	ch    chan service.TaskChange
	err   error
}

func (s *memSubscription) Changes() <-chan service.TaskChange { return s.ch }

func (s *memSubscription) Err() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.err
}

func (s *memSubscription) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, ok := s.store.subs[s]; ok {
		delete(s.store.subs, s)
		close(s.ch)
	}
	return nil
}
