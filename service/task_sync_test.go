package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/service/servicetest"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestSynchronizerLifecycle(t *testing.T) {
	store := servicetest.NewMemStore()
	seedTask(store, "g1", "100")
	seedTask(store, "g2", "200")
	sync := service.NewTaskSynchronizer(store, store)
	ctx := context.Background()

	assert.Equal(t, service.StateUnsubscribed, sync.State())

	require.NoError(t, sync.Select(ctx, "g1"))
	assert.Equal(t, service.StateLive, sync.State())
	assert.Equal(t, "g1", sync.GroupID())
	assert.Equal(t, 1, sync.Len())
	assert.Equal(t, 1, store.Subscribers())

	// switching groups tears the first feed down before the second opens
	require.NoError(t, sync.Select(ctx, "g2"))
	assert.Equal(t, 1, store.Subscribers())
	assert.Equal(t, "g2", sync.GroupID())
	view := sync.View(models.TaskQuery{})
	require.Len(t, view, 1)
	assert.Equal(t, "200", view[0].OMNumber)

	require.NoError(t, sync.Select(ctx, ""))
	assert.Equal(t, service.StateUnsubscribed, sync.State())
	assert.Zero(t, sync.Len())
	assert.Zero(t, store.Subscribers())
}

func TestSynchronizerAppliesChanges(t *testing.T) {
	store := servicetest.NewMemStore()
	existing := seedTask(store, "g1", "100")
	sync := service.NewTaskSynchronizer(store, store)
	svc := service.NewTaskService(store, store)
	ctx := context.Background()

	require.NoError(t, sync.Select(ctx, "g1"))
	defer sync.Close()

	changes, cancel := sync.Watch(16)
	defer cancel()

	added := seedTask(store, "g1", "101")
	seedTask(store, "g2", "900")
	_, err := svc.UpdateStatus(ctx, existing.ID.Hex(), models.StatusUpdateRequest{
		Status: models.TaskStatusDone,
		Shift:  models.ShiftA,
	}, executor)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTask(ctx, added.ID.Hex(), executor))

	var kinds []service.ChangeKind
	for len(kinds) < 3 {
		select {
		case c := <-changes:
			kinds = append(kinds, c.Kind)
		case <-time.After(waitFor):
			t.Fatalf("received %v, want 3 changes", kinds)
		}
	}
	assert.Equal(t, []service.ChangeKind{service.ChangeInsert, service.ChangeUpdate, service.ChangeDelete}, kinds)

	view := sync.View(models.TaskQuery{})
	require.Len(t, view, 1)
	assert.Equal(t, models.TaskStatusDone, view[0].Status)

	pending := sync.View(models.TaskQuery{Status: models.TaskStatusPending})
	assert.Empty(t, pending)
}

func TestSynchronizerTaskMovedOutOfGroup(t *testing.T) {
	store := servicetest.NewMemStore()
	task := seedTask(store, "g1", "100")
	sync := service.NewTaskSynchronizer(store, store)

	require.NoError(t, sync.Select(context.Background(), "g1"))
	defer sync.Close()

	task.GroupID = "g2"
	store.PutTask(task)

	assert.Eventually(t, func() bool { return sync.Len() == 0 }, waitFor, tick)
}

func TestSynchronizerFeedFailure(t *testing.T) {
	store := servicetest.NewMemStore()
	seedTask(store, "g1", "100")
	sync := service.NewTaskSynchronizer(store, store)

	require.NoError(t, sync.Select(context.Background(), "g1"))
	changes, cancel := sync.Watch(4)
	defer cancel()

	broken := errors.New("stream invalidated")
	store.BreakFeeds(broken)

	assert.Eventually(t, func() bool { return sync.State() == service.StateUnsubscribed }, waitFor, tick)
	assert.ErrorIs(t, sync.Err(), broken)

	_, open := <-changes
	assert.False(t, open)

	// no automatic retry; selecting again resubscribes
	require.NoError(t, sync.Select(context.Background(), "g1"))
	assert.Equal(t, service.StateLive, sync.State())
	assert.NoError(t, sync.Err())
	sync.Close()
}

func TestSynchronizerSubscribeFailure(t *testing.T) {
	store := servicetest.NewMemStore()
	store.FailSubscribe = true
	sync := service.NewTaskSynchronizer(store, store)

	err := sync.Select(context.Background(), "g1")
	require.ErrorIs(t, err, servicetest.ErrInjected)
	assert.Equal(t, service.StateUnsubscribed, sync.State())
	assert.Empty(t, sync.GroupID())
}

func TestSynchronizerSnapshotFailureClosesFeed(t *testing.T) {
	store := servicetest.NewMemStore()
	store.FailFind = true
	sync := service.NewTaskSynchronizer(store, store)

	err := sync.Select(context.Background(), "g1")
	require.ErrorIs(t, err, servicetest.ErrInjected)
	assert.Equal(t, service.StateUnsubscribed, sync.State())
	assert.Zero(t, store.Subscribers())
}

func TestWatchWhenNotLive(t *testing.T) {
	sync := service.NewTaskSynchronizer(servicetest.NewMemStore(), servicetest.NewMemStore())

	changes, cancel := sync.Watch(1)
	defer cancel()

	_, open := <-changes
	assert.False(t, open)
}

func TestSyncHubSharesFeeds(t *testing.T) {
	store := servicetest.NewMemStore()
	seedTask(store, "g1", "100")
	hub := service.NewSyncHub(store, store)
	ctx := context.Background()

	first, releaseFirst, err := hub.Acquire(ctx, "g1")
	require.NoError(t, err)
	second, releaseSecond, err := hub.Acquire(ctx, "g1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, hub.ActiveGroups())
	assert.Equal(t, 1, store.Subscribers())

	_, releaseOther, err := hub.Acquire(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ActiveGroups())

	releaseFirst()
	releaseFirst()
	assert.Equal(t, 2, hub.ActiveGroups())
	assert.Equal(t, service.StateLive, second.State())

	releaseSecond()
	assert.Equal(t, 1, hub.ActiveGroups())
	assert.Equal(t, service.StateUnsubscribed, first.State())

	hub.CloseAll()
	assert.Zero(t, hub.ActiveGroups())
	assert.Zero(t, store.Subscribers())
	releaseOther()
}

func TestSyncHubReopensFailedFeed(t *testing.T) {
	store := servicetest.NewMemStore()
	hub := service.NewSyncHub(store, store)
	ctx := context.Background()

	sync, release, err := hub.Acquire(ctx, "g1")
	require.NoError(t, err)
	defer release()

	store.BreakFeeds(errors.New("gone"))
	assert.Eventually(t, func() bool { return sync.State() == service.StateUnsubscribed }, waitFor, tick)

	again, releaseAgain, err := hub.Acquire(ctx, "g1")
	require.NoError(t, err)
	defer releaseAgain()
	assert.Same(t, sync, again)
	assert.Equal(t, service.StateLive, again.State())
}
