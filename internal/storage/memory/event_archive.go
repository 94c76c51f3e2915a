package memory

import (
	"context"
	"sort"
	"sync"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

// EventArchive is an in-memory implementation of storage.EventArchive.
type EventArchive struct {
	mu   sync.RWMutex
	data []*domain.ArchivedEvent
	keys map[string]bool
}

// NewEventArchive creates a new in-memory event archive.
func NewEventArchive() *EventArchive {
	return &EventArchive{
		data: make([]*domain.ArchivedEvent, 0),
		keys: make(map[string]bool),
	}
}

// Compile-time interface check.
var _ storage.EventArchive = (*EventArchive)(nil)

// InsertBulk appends events, skipping event ids already present.
func (a *EventArchive) InsertBulk(_ context.Context, events []*domain.ArchivedEvent) error {
	for _, e := range events {
		if e == nil || e.EventID == "" {
			return storage.ErrInvalidInput
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range events {
		if a.keys[e.EventID] {
			continue
		}
		cp := *e
		a.data = append(a.data, &cp)
		a.keys[e.EventID] = true
	}
	return nil
}

// GetByBlock retrieves the events of a block ordered by index in block.
func (a *EventArchive) GetByBlock(_ context.Context, pipeline string, height uint64) ([]*domain.ArchivedEvent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.ArchivedEvent
	for _, e := range a.data {
		if e.Pipeline == pipeline && e.BlockHeight == height {
			cp := *e
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].IndexInBlock < result[j].IndexInBlock
	})
	return result, nil
}

// GetByHeightRange retrieves events with from <= height <= to ordered by (height, index).
func (a *EventArchive) GetByHeightRange(_ context.Context, pipeline string, from, to uint64) ([]*domain.ArchivedEvent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.ArchivedEvent
	for _, e := range a.data {
		if e.Pipeline == pipeline && e.BlockHeight >= from && e.BlockHeight <= to {
			cp := *e
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockHeight != result[j].BlockHeight {
			return result[i].BlockHeight < result[j].BlockHeight
		}
		return result[i].IndexInBlock < result[j].IndexInBlock
	})
	return result, nil
}
