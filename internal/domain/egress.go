package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Egress is the outbound transfer of swapped funds to the destination chain.
// Corresponds to egresses table in PostgreSQL. Natural key: (chain, native_id).
type Egress struct {
	ID                  int64        // BIGSERIAL primary key
	NativeID            uint64       // chain-assigned egress id
	Chain               Chain        // destination chain
	Asset               Asset        // egressed asset
	Amount              *uint256.Int // amount sent to the user
	ScheduledAt         time.Time    // block timestamp of scheduling
	ScheduledBlockIndex string       // "<height>-<index>"
	BroadcastID         *int64       // FK to broadcasts (nil until batched)
}
