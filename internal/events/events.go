// Package events decodes raw state-chain events into a closed set of typed records.
package events

import (
	"time"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
)

// Meta is the block position of a decoded event.
type Meta struct {
	Height       uint64
	BlockHash    string
	Timestamp    time.Time
	IndexInBlock uint32
}

// BlockIndex returns the "<height>-<index>" position string.
func (m Meta) BlockIndex() string {
	return domain.BlockIndex(m.Height, m.IndexInBlock)
}

// Event is implemented by every decoded event type. The set is closed:
// only types in this package satisfy it.
type Event interface {
	EventName() string
	isEvent()
}

// Decoded pairs a typed event with its block position.
type Decoded struct {
	Meta  Meta
	Event Event
}

// SwapDepositChannelOpened opens a deposit channel.
type SwapDepositChannelOpened struct {
	ChannelID             uint64
	SrcChain              domain.Chain
	SrcAsset              domain.Asset
	DestAsset             domain.Asset
	DestAddress           string
	DepositAddress        string
	ExpectedDepositAmount *uint256.Int
	ExpiryBlock           uint64
}

// SwapOrigin tells where the deposited funds came from. Exactly one field is set.
type SwapOrigin struct {
	DepositChannel *ChannelOrigin
	Vault          *VaultOrigin
}

// ChannelOrigin references the deposit channel that received the funds.
type ChannelOrigin struct {
	SrcChain       domain.Chain
	ChannelID      uint64
	DepositAddress string
}

// VaultOrigin references a direct smart contract deposit.
type VaultOrigin struct {
	TxHash string
}

// SwapScheduled is emitted once a deposit is credited and a swap scheduled.
type SwapScheduled struct {
	SwapID        uint64
	SrcAsset      domain.Asset
	DestAsset     domain.Asset
	DestAddress   string
	DepositAmount *uint256.Int
	Origin        SwapOrigin
}

// SwapExecuted is emitted when the swap went through the pools.
type SwapExecuted struct {
	SwapID             uint64
	IntermediateAmount *uint256.Int // nil for single-leg swaps
	OutputAmount       *uint256.Int
}

// SwapEgressScheduled is emitted when the swap output is queued for payout.
type SwapEgressScheduled struct {
	SwapID   uint64
	Chain    domain.Chain
	EgressID uint64
	Asset    domain.Asset
	Amount   *uint256.Int
}

// BroadcastRequested covers batch, CCM and plain transaction broadcast requests.
type BroadcastRequested struct {
	Chain       domain.Chain
	BroadcastID uint64
	Type        domain.BroadcastType
	EgressIDs   []uint64 // egresses included in the broadcast, same chain
}

// BroadcastSuccess is emitted when the transaction was witnessed on the destination chain.
type BroadcastSuccess struct {
	Chain       domain.Chain
	BroadcastID uint64
}

// BroadcastAborted is emitted when the broadcast was given up.
type BroadcastAborted struct {
	Chain       domain.Chain
	BroadcastID uint64
}

// ThresholdSignatureInvalid is emitted when the signature of a broadcast was rejected.
// RetryBroadcastID is nil when no retry was scheduled.
type ThresholdSignatureInvalid struct {
	Chain            domain.Chain
	BroadcastID      uint64
	RetryBroadcastID *uint64
}

func (SwapDepositChannelOpened) EventName() string  { return "SwapDepositChannelOpened" }
func (SwapScheduled) EventName() string             { return "SwapScheduled" }
func (SwapExecuted) EventName() string              { return "SwapExecuted" }
func (SwapEgressScheduled) EventName() string       { return "SwapEgressScheduled" }
func (BroadcastRequested) EventName() string        { return "BroadcastRequested" }
func (BroadcastSuccess) EventName() string          { return "BroadcastSuccess" }
func (BroadcastAborted) EventName() string          { return "BroadcastAborted" }
func (ThresholdSignatureInvalid) EventName() string { return "ThresholdSignatureInvalid" }

func (SwapDepositChannelOpened) isEvent()  {}
func (SwapScheduled) isEvent()             {}
func (SwapExecuted) isEvent()              {}
func (SwapEgressScheduled) isEvent()       {}
func (BroadcastRequested) isEvent()        {}
func (BroadcastSuccess) isEvent()          {}
func (BroadcastAborted) isEvent()          {}
func (ThresholdSignatureInvalid) isEvent() {}
