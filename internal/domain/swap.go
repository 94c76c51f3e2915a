package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Swap represents one swap scheduled by the state chain.
// Corresponds to swaps table in PostgreSQL. Natural key: native_id.
type Swap struct {
	ID                        int64        // BIGSERIAL primary key
	NativeID                  uint64       // chain-assigned swap id
	ChannelID                 *int64       // FK to swap_deposit_channels (nil for vault swaps)
	TxHash                    string       // source tx hash for vault swaps (optional)
	SrcAsset                  Asset        // deposited asset
	DestAsset                 Asset        // asset paid out
	DestAddress               string       // payout address
	DepositAmount             *uint256.Int // amount credited for the swap
	DepositReceivedAt         time.Time    // block timestamp of the deposit
	DepositReceivedBlockIndex string       // "<height>-<index>"
	IntermediateAmount        *uint256.Int // settlement amount for two-leg swaps (nullable)
	SwapOutputAmount          *uint256.Int // output of the swap before egress (nullable)
	SwapExecutedAt            *time.Time   // nil until executed
	SwapExecutedBlockIndex    string       // empty until executed
	EgressID                  *int64       // FK to egresses (nil until scheduled)
}

// IsExecuted reports whether the swap has been executed.
func (s *Swap) IsExecuted() bool {
	return s.SwapExecutedAt != nil
}
