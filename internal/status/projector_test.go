package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosschain-swap-indexer/internal/domain"
)

func TestProject(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	received := &domain.Swap{NativeID: 1, DepositReceivedBlockIndex: "1-0"}
	executedSwap := &domain.Swap{NativeID: 1, DepositReceivedBlockIndex: "1-0", SwapExecutedAt: &now}
	egress := &domain.Egress{NativeID: 1}
	requested := &domain.Broadcast{NativeID: 1}
	succeeded := &domain.Broadcast{NativeID: 1, SucceededAt: &now}
	aborted := &domain.Broadcast{NativeID: 1, AbortedAt: &now}

	tests := []struct {
		name string
		snap Snapshot
		want domain.SwapStatus
	}{
		{name: "nothing", snap: Snapshot{}, want: domain.StatusAwaitingDeposit},
		{name: "channel only", snap: Snapshot{Channel: &domain.SwapDepositChannel{}}, want: domain.StatusAwaitingDeposit},
		{name: "deposit received", snap: Snapshot{Swap: received}, want: domain.StatusDepositReceived},
		{name: "executed", snap: Snapshot{Swap: executedSwap}, want: domain.StatusSwapExecuted},
		{name: "egress", snap: Snapshot{Swap: executedSwap, Egress: egress}, want: domain.StatusEgressScheduled},
		{name: "broadcast", snap: Snapshot{Swap: executedSwap, Egress: egress, Broadcast: requested}, want: domain.StatusBroadcastRequested},
		{name: "aborted", snap: Snapshot{Swap: executedSwap, Egress: egress, Broadcast: aborted}, want: domain.StatusBroadcastAborted},
		{name: "complete", snap: Snapshot{Swap: executedSwap, Egress: egress, Broadcast: succeeded}, want: domain.StatusComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(tt.snap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject_RequiresExecution(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	received := &domain.Swap{NativeID: 1, DepositReceivedBlockIndex: "1-0"}

	snaps := []Snapshot{
		{Swap: received, Egress: &domain.Egress{}},
		{Swap: received, Egress: &domain.Egress{}, Broadcast: &domain.Broadcast{}},
		{Egress: &domain.Egress{}, Broadcast: &domain.Broadcast{SucceededAt: &now}},
		{Swap: received, Broadcast: &domain.Broadcast{AbortedAt: &now}},
	}
	for _, snap := range snaps {
		_, err := Project(snap)
		assert.ErrorIs(t, err, ErrInconsistent)
	}
}
