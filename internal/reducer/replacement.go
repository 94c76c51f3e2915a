package reducer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/events"
	"crosschain-swap-indexer/internal/storage"
)

// replaceBroadcast handles a rejected threshold signature. When the chain
// schedules a retry, the retry becomes a new broadcast and every egress of the
// old one moves over to it. Both writes happen in the block's transaction.
func (r *Reducer) replaceBroadcast(
	ctx context.Context,
	tx storage.Tx,
	meta events.Meta,
	e events.ThresholdSignatureInvalid,
	res *Result,
) (bool, error) {
	if e.RetryBroadcastID == nil {
		return false, nil
	}
	retryID := *e.RetryBroadcastID

	old, err := tx.GetBroadcast(ctx, e.Chain, e.BroadcastID)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Debug("ignoring signature failure of unknown broadcast",
			zap.String("chain", string(e.Chain)),
			zap.Uint64("broadcast_id", e.BroadcastID),
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get broadcast: %w", err)
	}

	if retryID <= old.NativeID {
		return false, fmt.Errorf("%w: retry broadcast %d is not newer than %s/%d",
			ErrInvariantViolation, retryID, e.Chain, old.NativeID)
	}
	if old.IsFinal() {
		return false, fmt.Errorf("%w: broadcast %s/%d replaced after it finished",
			ErrInvariantViolation, e.Chain, old.NativeID)
	}

	replacement := &domain.Broadcast{
		Chain:               old.Chain,
		NativeID:            retryID,
		Type:                old.Type,
		RequestedAt:         meta.Timestamp,
		RequestedBlockIndex: meta.BlockIndex(),
	}
	if err := tx.InsertBroadcast(ctx, replacement); err != nil {
		return false, fmt.Errorf("insert retry broadcast: %w", err)
	}

	if old.ReplacedByID != nil && *old.ReplacedByID != replacement.ID {
		return false, fmt.Errorf("%w: broadcast %s/%d already replaced",
			ErrInvariantViolation, e.Chain, old.NativeID)
	}

	relinked, err := tx.ReplaceBroadcast(ctx, old.ID, replacement.ID)
	if err != nil {
		return false, fmt.Errorf("replace broadcast %s/%d: %w", e.Chain, old.NativeID, err)
	}

	res.BroadcastsReplaced++
	res.EgressesRelinked += relinked

	r.logger.Info("broadcast replaced",
		zap.String("chain", string(e.Chain)),
		zap.Uint64("broadcast_id", old.NativeID),
		zap.Uint64("retry_broadcast_id", retryID),
		zap.Int("egresses_relinked", relinked),
	)
	return true, nil
}
