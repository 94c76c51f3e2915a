package storage

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
)

// Reader provides read access to the swap lifecycle entities.
// Every method returns ErrNotFound when the record does not exist.
type Reader interface {
	// GetChannel retrieves a channel by its composite identity.
	GetChannel(ctx context.Context, issuedBlock uint64, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error)

	// GetChannelByID retrieves a channel by its surrogate id.
	GetChannelByID(ctx context.Context, id int64) (*domain.SwapDepositChannel, error)

	// GetSwapByNativeID retrieves a swap by its chain-assigned id.
	GetSwapByNativeID(ctx context.Context, nativeID uint64) (*domain.Swap, error)

	// GetSwapByTxHash retrieves the most recent swap originating from a vault transaction.
	GetSwapByTxHash(ctx context.Context, txHash string) (*domain.Swap, error)

	// GetLatestSwapByChannel retrieves the most recent swap of a channel.
	GetLatestSwapByChannel(ctx context.Context, channelID int64) (*domain.Swap, error)

	// CountSwapsByChannel returns the number of swaps opened through a channel.
	CountSwapsByChannel(ctx context.Context, channelID int64) (int, error)

	// GetEgressByID retrieves an egress by its surrogate id.
	GetEgressByID(ctx context.Context, id int64) (*domain.Egress, error)

	// GetBroadcastByID retrieves a broadcast by its surrogate id.
	GetBroadcastByID(ctx context.Context, id int64) (*domain.Broadcast, error)

	// GetWatermark returns the last applied block height of a pipeline.
	GetWatermark(ctx context.Context, pipeline string) (uint64, error)
}

// Tx is a unit of work. All writes made through a Tx become visible together
// when the function passed to Store.WithTx returns nil, and none of them do otherwise.
type Tx interface {
	Reader

	// InsertChannel stores a channel. Re-inserting an existing (issuedBlock, srcChain, channelId)
	// is a no-op. c.ID is set to the stored id either way.
	InsertChannel(ctx context.Context, c *domain.SwapDepositChannel) error

	// FindLatestChannel returns the most recently issued channel with the given chain-local id.
	FindLatestChannel(ctx context.Context, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error)

	// ExpireChannels marks every unexpired channel of pipeline with expiryBlock <= height
	// as expired and returns how many flipped. Channels of other pipelines are untouched.
	ExpireChannels(ctx context.Context, pipeline string, height uint64) (int, error)

	// InsertSwap stores a swap. Re-inserting an existing nativeId is a no-op. s.ID is set.
	InsertSwap(ctx context.Context, s *domain.Swap) error

	// MarkSwapExecuted stamps execution once. Returns false if the swap was already executed.
	MarkSwapExecuted(ctx context.Context, swapID int64, intermediate, output *uint256.Int, at time.Time, blockIndex string) (bool, error)

	// SetSwapEgress links a swap to its egress.
	SetSwapEgress(ctx context.Context, swapID, egressID int64) error

	// InsertEgress stores an egress. Re-inserting an existing (chain, nativeId) is a no-op. e.ID is set.
	InsertEgress(ctx context.Context, e *domain.Egress) error

	// GetEgress retrieves an egress by its natural identity.
	GetEgress(ctx context.Context, chain domain.Chain, nativeID uint64) (*domain.Egress, error)

	// LinkEgresses points the given egresses at a broadcast.
	LinkEgresses(ctx context.Context, egressIDs []int64, broadcastID int64) error

	// InsertBroadcast stores a broadcast. Re-inserting an existing (chain, nativeId) is a no-op. b.ID is set.
	InsertBroadcast(ctx context.Context, b *domain.Broadcast) error

	// GetBroadcast retrieves a broadcast by its natural identity.
	GetBroadcast(ctx context.Context, chain domain.Chain, nativeID uint64) (*domain.Broadcast, error)

	// MarkBroadcastSucceeded stamps success unless the broadcast already succeeded or aborted.
	MarkBroadcastSucceeded(ctx context.Context, broadcastID int64, at time.Time, blockIndex string) (bool, error)

	// MarkBroadcastAborted stamps abortion unless the broadcast already succeeded or aborted.
	MarkBroadcastAborted(ctx context.Context, broadcastID int64, at time.Time, blockIndex string) (bool, error)

	// ReplaceBroadcast sets oldID.replacedBy = newID if unset and re-points every egress of
	// oldID to newID. Returns the number of relinked egresses.
	ReplaceBroadcast(ctx context.Context, oldID, newID int64) (int, error)

	// SetWatermark records the last applied block height of a pipeline.
	SetWatermark(ctx context.Context, pipeline string, height uint64) error
}

// Store provides transactional access to the swap lifecycle entities.
type Store interface {
	Reader

	// WithTx runs fn in a transaction. The transaction commits if fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// EventArchive stores raw chain events for audit and replay.
type EventArchive interface {
	// InsertBulk appends events. Events already archived are skipped.
	InsertBulk(ctx context.Context, events []*domain.ArchivedEvent) error

	// GetByBlock retrieves the archived events of a block, ordered by index in block.
	GetByBlock(ctx context.Context, pipeline string, height uint64) ([]*domain.ArchivedEvent, error)

	// GetByHeightRange retrieves archived events with from <= height <= to,
	// ordered by (height, index in block).
	GetByHeightRange(ctx context.Context, pipeline string, from, to uint64) ([]*domain.ArchivedEvent, error)
}
