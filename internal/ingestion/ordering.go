package ingestion

import (
	"errors"
	"fmt"
	"sort"

	"crosschain-swap-indexer/internal/domain"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// ValidateEventOrdering checks that event indices strictly increase.
// Sources never reorder a block, so a violation is rejected rather than sorted.
func ValidateEventOrdering(events []domain.RawEvent) error {
	for i := 1; i < len(events); i++ {
		if events[i-1].IndexInBlock >= events[i].IndexInBlock {
			return fmt.Errorf("%w: index %d after %d", ErrInvalidOrdering, events[i].IndexInBlock, events[i-1].IndexInBlock)
		}
	}
	return nil
}

// SortArchivedEvents orders archived events by (block_height ASC, index_in_block ASC).
func SortArchivedEvents(events []*domain.ArchivedEvent) {
	sort.Slice(events, func(i, j int) bool {
		return compareArchived(events[i], events[j]) < 0
	})
}

// compareArchived returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_height ASC, index_in_block ASC)
func compareArchived(a, b *domain.ArchivedEvent) int {
	if a.BlockHeight != b.BlockHeight {
		if a.BlockHeight < b.BlockHeight {
			return -1
		}
		return 1
	}
	if a.IndexInBlock != b.IndexInBlock {
		if a.IndexInBlock < b.IndexInBlock {
			return -1
		}
		return 1
	}
	return 0
}
