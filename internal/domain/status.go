package domain

// SwapStatus is the derived lifecycle status of a swap.
type SwapStatus string

const (
	StatusAwaitingDeposit    SwapStatus = "AWAITING_DEPOSIT"
	StatusDepositReceived    SwapStatus = "DEPOSIT_RECEIVED"
	StatusSwapExecuted       SwapStatus = "SWAP_EXECUTED"
	StatusEgressScheduled    SwapStatus = "EGRESS_SCHEDULED"
	StatusBroadcastRequested SwapStatus = "BROADCAST_REQUESTED"
	StatusBroadcastAborted   SwapStatus = "BROADCAST_ABORTED"
	StatusComplete           SwapStatus = "COMPLETE"
)

// String returns the string representation of SwapStatus.
func (s SwapStatus) String() string {
	return string(s)
}

// Rank orders statuses along the lifecycle. Complete and BroadcastAborted share
// the terminal rank. Unknown statuses rank -1.
func (s SwapStatus) Rank() int {
	switch s {
	case StatusAwaitingDeposit:
		return 0
	case StatusDepositReceived:
		return 1
	case StatusSwapExecuted:
		return 2
	case StatusEgressScheduled:
		return 3
	case StatusBroadcastRequested:
		return 4
	case StatusComplete, StatusBroadcastAborted:
		return 5
	default:
		return -1
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s SwapStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusBroadcastAborted
}
