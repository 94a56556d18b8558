package service

import (
	"context"
	"sync"
)

// SyncHub shares one TaskSynchronizer per watched group between live clients
type SyncHub struct {
	feed   TaskFeed
	lister TaskLister

	mu      sync.Mutex
	entries map[string]*hubEntry
}

type hubEntry struct {
	sync *TaskSynchronizer
	refs int
}

// NewSyncHub creates an empty hub
func NewSyncHub(feed TaskFeed, lister TaskLister) *SyncHub {
	return &SyncHub{
		feed:    feed,
		lister:  lister,
		entries: make(map[string]*hubEntry),
	}
}

// Acquire returns the live synchronizer of groupID, subscribing when needed.
// release must be called exactly once; the last release tears the feed down.
func (h *SyncHub) Acquire(ctx context.Context, groupID string) (*TaskSynchronizer, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[groupID]
	if !ok {
		entry = &hubEntry{sync: NewTaskSynchronizer(h.feed, h.lister)}
	}
	if entry.sync.State() != StateLive {
		// a feed that failed earlier is reopened for the new client
		if err := entry.sync.Select(ctx, groupID); err != nil {
			return nil, nil, err
		}
	}
	entry.refs++
	h.entries[groupID] = entry

	var once sync.Once
	release := func() {
		once.Do(func() { h.release(groupID, entry) })
	}
	return entry.sync, release, nil
}

func (h *SyncHub) release(groupID string, entry *hubEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.refs--
	if entry.refs > 0 {
		return
	}
	entry.sync.Close()
	if h.entries[groupID] == entry {
		delete(h.entries, groupID)
	}
}

// ActiveGroups number of groups with a live subscription
func (h *SyncHub) ActiveGroups() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// CloseAll tears down every subscription
func (h *SyncHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, entry := range h.entries {
		entry.sync.Close()
		delete(h.entries, id)
	}
}
