package domain

import "time"

// BroadcastType describes what triggered a broadcast.
type BroadcastType string

const (
	BroadcastTypeBatch       BroadcastType = "BATCH"
	BroadcastTypeCcm         BroadcastType = "CCM"
	BroadcastTypeTransaction BroadcastType = "TRANSACTION"
)

// Broadcast is a signed transaction submitted to a destination chain.
// Corresponds to broadcasts table in PostgreSQL. Natural key: (chain, native_id).
//
// At most one of SucceededAt/AbortedAt is ever set and neither is cleared.
// ReplacedByID is immutable once set and points to a newer broadcast.
type Broadcast struct {
	ID                  int64         // BIGSERIAL primary key
	Chain               Chain         // destination chain
	NativeID            uint64        // chain-assigned broadcast id
	Type                BroadcastType // origin of the broadcast
	RequestedAt         time.Time     // block timestamp of the request
	RequestedBlockIndex string        // "<height>-<index>"
	SucceededAt         *time.Time    // nil unless succeeded
	SucceededBlockIndex string        // empty unless succeeded
	AbortedAt           *time.Time    // nil unless aborted
	AbortedBlockIndex   string        // empty unless aborted
	ReplacedByID        *int64        // FK to the retry broadcast
}

// IsFinal reports whether the broadcast reached a terminal outcome.
func (b *Broadcast) IsFinal() bool {
	return b.SucceededAt != nil || b.AbortedAt != nil
}
