// Package reducer applies decoded chain events to the swap lifecycle entities.
//
// A block is applied inside a single storage transaction together with the
// pipeline watermark, so a block either lands completely or not at all.
package reducer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/events"
	"crosschain-swap-indexer/internal/storage"
)

var (
	// ErrAlreadyApplied is returned for blocks at or below the pipeline watermark.
	ErrAlreadyApplied = errors.New("block already applied")

	// ErrInvariantViolation signals chain data the lifecycle model cannot accept.
	// The block must not be committed.
	ErrInvariantViolation = errors.New("swap lifecycle invariant violated")
)

// Block is a chain block whose tracked events have been decoded.
type Block struct {
	Height    uint64
	Hash      string
	Timestamp time.Time
	Events    []events.Decoded
}

// Result summarizes the effects of one block.
type Result struct {
	Height             uint64
	ChannelsExpired    int
	EventsApplied      int
	EventsIgnored      int
	BroadcastsReplaced int
	EgressesRelinked   int
}

// Reducer applies blocks to a storage transaction.
type Reducer struct {
	logger *zap.Logger
}

// New creates a Reducer.
func New(logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{logger: logger.Named("reducer")}
}

// ApplyBlock applies block within tx and advances the watermark of pipeline.
// Blocks must arrive in increasing height order; a block at or below the
// watermark returns ErrAlreadyApplied without touching state.
func (r *Reducer) ApplyBlock(ctx context.Context, tx storage.Tx, pipeline string, block Block) (*Result, error) {
	watermark, err := tx.GetWatermark(ctx, pipeline)
	switch {
	case err == nil:
		if block.Height <= watermark {
			return nil, fmt.Errorf("%w: height %d, watermark %d", ErrAlreadyApplied, block.Height, watermark)
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("get watermark: %w", err)
	}

	res := &Result{Height: block.Height}

	res.ChannelsExpired, err = tx.ExpireChannels(ctx, pipeline, block.Height)
	if err != nil {
		return nil, fmt.Errorf("expire channels at %d: %w", block.Height, err)
	}

	for i, d := range block.Events {
		if d.Meta.Height != block.Height {
			return nil, fmt.Errorf("%w: event %s at height %d in block %d",
				ErrInvariantViolation, d.Event.EventName(), d.Meta.Height, block.Height)
		}
		if i > 0 && d.Meta.IndexInBlock <= block.Events[i-1].Meta.IndexInBlock {
			return nil, fmt.Errorf("%w: event index %d after %d in block %d",
				ErrInvariantViolation, d.Meta.IndexInBlock, block.Events[i-1].Meta.IndexInBlock, block.Height)
		}

		applied, err := r.apply(ctx, tx, pipeline, d, res)
		if err != nil {
			return nil, fmt.Errorf("apply %s at %s: %w", d.Event.EventName(), d.Meta.BlockIndex(), err)
		}
		if applied {
			res.EventsApplied++
		} else {
			res.EventsIgnored++
		}
	}

	if err := tx.SetWatermark(ctx, pipeline, block.Height); err != nil {
		return nil, fmt.Errorf("set watermark: %w", err)
	}
	return res, nil
}

// apply dispatches one event. It reports false for events that were
// legitimately ignored.
func (r *Reducer) apply(ctx context.Context, tx storage.Tx, pipeline string, d events.Decoded, res *Result) (bool, error) {
	switch e := d.Event.(type) {
	case events.SwapDepositChannelOpened:
		return true, r.openChannel(ctx, tx, pipeline, d.Meta, e)
	case events.SwapScheduled:
		return true, r.scheduleSwap(ctx, tx, d.Meta, e)
	case events.SwapExecuted:
		return true, r.executeSwap(ctx, tx, d.Meta, e)
	case events.SwapEgressScheduled:
		return true, r.scheduleEgress(ctx, tx, d.Meta, e)
	case events.BroadcastRequested:
		return true, r.requestBroadcast(ctx, tx, d.Meta, e)
	case events.BroadcastSuccess:
		return r.succeedBroadcast(ctx, tx, d.Meta, e)
	case events.BroadcastAborted:
		return r.abortBroadcast(ctx, tx, d.Meta, e)
	case events.ThresholdSignatureInvalid:
		return r.replaceBroadcast(ctx, tx, d.Meta, e, res)
	default:
		return false, fmt.Errorf("%w: unhandled event type %T", ErrInvariantViolation, d.Event)
	}
}

func (r *Reducer) openChannel(ctx context.Context, tx storage.Tx, pipeline string, meta events.Meta, e events.SwapDepositChannelOpened) error {
	return tx.InsertChannel(ctx, &domain.SwapDepositChannel{
		IssuedBlock:           meta.Height,
		SrcChain:              e.SrcChain,
		ChannelID:             e.ChannelID,
		SrcAsset:              e.SrcAsset,
		DestAsset:             e.DestAsset,
		DestAddress:           e.DestAddress,
		DepositAddress:        e.DepositAddress,
		ExpectedDepositAmount: e.ExpectedDepositAmount,
		ExpiryBlock:           e.ExpiryBlock,
		IssuedAt:              meta.Timestamp,
		Pipeline:              pipeline,
	})
}

func (r *Reducer) scheduleSwap(ctx context.Context, tx storage.Tx, meta events.Meta, e events.SwapScheduled) error {
	swap := &domain.Swap{
		NativeID:                  e.SwapID,
		SrcAsset:                  e.SrcAsset,
		DestAsset:                 e.DestAsset,
		DestAddress:               e.DestAddress,
		DepositAmount:             e.DepositAmount,
		DepositReceivedAt:         meta.Timestamp,
		DepositReceivedBlockIndex: meta.BlockIndex(),
	}

	switch {
	case e.Origin.DepositChannel != nil:
		origin := e.Origin.DepositChannel
		channel, err := tx.FindLatestChannel(ctx, origin.SrcChain, origin.ChannelID)
		switch {
		case err == nil:
			swap.ChannelID = &channel.ID
		case errors.Is(err, storage.ErrNotFound):
			// opened before this pipeline's first block
			r.logger.Warn("swap references unknown channel",
				zap.Uint64("swap_id", e.SwapID),
				zap.String("src_chain", string(origin.SrcChain)),
				zap.Uint64("channel_id", origin.ChannelID),
			)
		default:
			return fmt.Errorf("find channel: %w", err)
		}
	case e.Origin.Vault != nil:
		swap.TxHash = e.Origin.Vault.TxHash
	}

	return tx.InsertSwap(ctx, swap)
}

func (r *Reducer) executeSwap(ctx context.Context, tx storage.Tx, meta events.Meta, e events.SwapExecuted) error {
	swap, err := tx.GetSwapByNativeID(ctx, e.SwapID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: swap %d executed before its deposit was received", ErrInvariantViolation, e.SwapID)
	}
	if err != nil {
		return fmt.Errorf("get swap %d: %w", e.SwapID, err)
	}
	if swap.DepositReceivedBlockIndex == "" {
		return fmt.Errorf("%w: swap %d has no deposit stamp", ErrInvariantViolation, e.SwapID)
	}

	if _, err := tx.MarkSwapExecuted(ctx, swap.ID, e.IntermediateAmount, e.OutputAmount, meta.Timestamp, meta.BlockIndex()); err != nil {
		return fmt.Errorf("mark swap %d executed: %w", e.SwapID, err)
	}
	return nil
}

func (r *Reducer) scheduleEgress(ctx context.Context, tx storage.Tx, meta events.Meta, e events.SwapEgressScheduled) error {
	swap, err := tx.GetSwapByNativeID(ctx, e.SwapID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: egress scheduled for unknown swap %d", ErrInvariantViolation, e.SwapID)
	}
	if err != nil {
		return fmt.Errorf("get swap %d: %w", e.SwapID, err)
	}
	if !swap.IsExecuted() {
		return fmt.Errorf("%w: egress scheduled for unexecuted swap %d", ErrInvariantViolation, e.SwapID)
	}
	if swap.EgressID != nil {
		current, err := tx.GetEgressByID(ctx, *swap.EgressID)
		if err != nil {
			return fmt.Errorf("get egress of swap %d: %w", e.SwapID, err)
		}
		if current.Chain != e.Chain || current.NativeID != e.EgressID {
			return fmt.Errorf("%w: swap %d already egressed as %s/%d, got %s/%d",
				ErrInvariantViolation, e.SwapID, current.Chain, current.NativeID, e.Chain, e.EgressID)
		}
	}

	egress := &domain.Egress{
		NativeID:            e.EgressID,
		Chain:               e.Chain,
		Asset:               e.Asset,
		Amount:              e.Amount,
		ScheduledAt:         meta.Timestamp,
		ScheduledBlockIndex: meta.BlockIndex(),
	}
	if err := tx.InsertEgress(ctx, egress); err != nil {
		return fmt.Errorf("insert egress: %w", err)
	}
	return tx.SetSwapEgress(ctx, swap.ID, egress.ID)
}

func (r *Reducer) requestBroadcast(ctx context.Context, tx storage.Tx, meta events.Meta, e events.BroadcastRequested) error {
	broadcast := &domain.Broadcast{
		Chain:               e.Chain,
		NativeID:            e.BroadcastID,
		Type:                e.Type,
		RequestedAt:         meta.Timestamp,
		RequestedBlockIndex: meta.BlockIndex(),
	}
	if err := tx.InsertBroadcast(ctx, broadcast); err != nil {
		return fmt.Errorf("insert broadcast: %w", err)
	}

	egressIDs := make([]int64, 0, len(e.EgressIDs))
	for _, nativeID := range e.EgressIDs {
		egress, err := tx.GetEgress(ctx, e.Chain, nativeID)
		if errors.Is(err, storage.ErrNotFound) {
			// not a swap egress (fees, liquidity withdrawals)
			continue
		}
		if err != nil {
			return fmt.Errorf("get egress %s/%d: %w", e.Chain, nativeID, err)
		}
		// An egress leaves its broadcast only through a replacement.
		if egress.BroadcastID != nil && *egress.BroadcastID != broadcast.ID {
			return fmt.Errorf("%w: egress %s/%d already in another broadcast, requested again in %s/%d",
				ErrInvariantViolation, e.Chain, nativeID, e.Chain, e.BroadcastID)
		}
		egressIDs = append(egressIDs, egress.ID)
	}
	return tx.LinkEgresses(ctx, egressIDs, broadcast.ID)
}

func (r *Reducer) succeedBroadcast(ctx context.Context, tx storage.Tx, meta events.Meta, e events.BroadcastSuccess) (bool, error) {
	broadcast, err := tx.GetBroadcast(ctx, e.Chain, e.BroadcastID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get broadcast: %w", err)
	}
	if broadcast.AbortedAt != nil {
		return false, fmt.Errorf("%w: broadcast %s/%d succeeded after abort", ErrInvariantViolation, e.Chain, e.BroadcastID)
	}
	return tx.MarkBroadcastSucceeded(ctx, broadcast.ID, meta.Timestamp, meta.BlockIndex())
}

func (r *Reducer) abortBroadcast(ctx context.Context, tx storage.Tx, meta events.Meta, e events.BroadcastAborted) (bool, error) {
	broadcast, err := tx.GetBroadcast(ctx, e.Chain, e.BroadcastID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get broadcast: %w", err)
	}
	if broadcast.SucceededAt != nil {
		return false, fmt.Errorf("%w: broadcast %s/%d aborted after success", ErrInvariantViolation, e.Chain, e.BroadcastID)
	}
	return tx.MarkBroadcastAborted(ctx, broadcast.ID, meta.Timestamp, meta.BlockIndex())
}
