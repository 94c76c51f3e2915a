// Package status derives the externally visible state of a swap.
package status

import (
	"errors"
	"fmt"

	"crosschain-swap-indexer/internal/domain"
)

// ErrInconsistent is returned when a swap has an egress or broadcast but was never executed.
var ErrInconsistent = errors.New("inconsistent swap state")

// Snapshot is the entity chain of one swap. Any field may be nil.
type Snapshot struct {
	Channel   *domain.SwapDepositChannel
	Swap      *domain.Swap
	Egress    *domain.Egress
	Broadcast *domain.Broadcast // effective broadcast of Egress
}

// Project computes the status of a snapshot, checking the entity chain
// from the outermost entity inwards.
func Project(s Snapshot) (domain.SwapStatus, error) {
	switch {
	case s.Broadcast != nil && s.Broadcast.SucceededAt != nil:
		return executed(s, domain.StatusComplete)
	case s.Broadcast != nil && s.Broadcast.AbortedAt != nil:
		return executed(s, domain.StatusBroadcastAborted)
	case s.Broadcast != nil:
		return executed(s, domain.StatusBroadcastRequested)
	case s.Egress != nil:
		return executed(s, domain.StatusEgressScheduled)
	case s.Swap != nil && s.Swap.SwapExecutedAt != nil:
		return domain.StatusSwapExecuted, nil
	case s.Swap != nil:
		return domain.StatusDepositReceived, nil
	default:
		return domain.StatusAwaitingDeposit, nil
	}
}

func executed(s Snapshot, st domain.SwapStatus) (domain.SwapStatus, error) {
	if s.Swap == nil || s.Swap.SwapExecutedAt == nil {
		return "", fmt.Errorf("%w: %s without swap execution", ErrInconsistent, st)
	}
	return st, nil
}
