package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

var errRollback = errors.New("rollback")

func TestStore_InsertChannelIdempotent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var firstID, secondID int64
	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		c := &domain.SwapDepositChannel{IssuedBlock: 100, SrcChain: domain.ChainEthereum, ChannelID: 7, ExpiryBlock: 110}
		if err := tx.InsertChannel(ctx, c); err != nil {
			return err
		}
		firstID = c.ID

		again := &domain.SwapDepositChannel{IssuedBlock: 100, SrcChain: domain.ChainEthereum, ChannelID: 7, ExpiryBlock: 999}
		if err := tx.InsertChannel(ctx, again); err != nil {
			return err
		}
		secondID = again.ID
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	if firstID != secondID {
		t.Errorf("ID mismatch: got %d, want %d", secondID, firstID)
	}

	c, err := store.GetChannel(ctx, 100, domain.ChainEthereum, 7)
	if err != nil {
		t.Fatalf("GetChannel failed: %v", err)
	}
	if c.ExpiryBlock != 110 {
		t.Errorf("ExpiryBlock overwritten: got %d, want 110", c.ExpiryBlock)
	}
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertSwap(ctx, &domain.Swap{NativeID: 1, SrcAsset: domain.AssetETH}); err != nil {
			return err
		}
		if err := tx.SetWatermark(ctx, "main", 5); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("Expected errRollback, got %v", err)
	}

	if _, err := store.GetSwapByNativeID(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for swap, got %v", err)
	}
	if _, err := store.GetWatermark(ctx, "main"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for watermark, got %v", err)
	}
}

func TestStore_ExpireChannels(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	expire := func(height uint64) int {
		var n int
		err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			var err error
			n, err = tx.ExpireChannels(ctx, "main", height)
			return err
		})
		if err != nil {
			t.Fatalf("ExpireChannels failed: %v", err)
		}
		return n
	}

	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertChannel(ctx, &domain.SwapDepositChannel{IssuedBlock: 100, SrcChain: domain.ChainBitcoin, ChannelID: 1, ExpiryBlock: 110, Pipeline: "main"}); err != nil {
			return err
		}
		return tx.InsertChannel(ctx, &domain.SwapDepositChannel{IssuedBlock: 100, SrcChain: domain.ChainBitcoin, ChannelID: 2, ExpiryBlock: 110, Pipeline: "other"})
	})
	if err != nil {
		t.Fatalf("InsertChannel failed: %v", err)
	}

	if n := expire(109); n != 0 {
		t.Errorf("Expected 0 expired at 109, got %d", n)
	}
	if n := expire(110); n != 1 {
		t.Errorf("Expected 1 expired at 110, got %d", n)
	}
	if n := expire(111); n != 0 {
		t.Errorf("Expected expiry to be idempotent, got %d", n)
	}

	c, err := store.GetChannel(ctx, 100, domain.ChainBitcoin, 1)
	if err != nil {
		t.Fatalf("GetChannel failed: %v", err)
	}
	if !c.IsExpired {
		t.Error("Expected channel to be expired")
	}

	other, err := store.GetChannel(ctx, 100, domain.ChainBitcoin, 2)
	if err != nil {
		t.Fatalf("GetChannel failed: %v", err)
	}
	if other.IsExpired {
		t.Error("Expected channel of another pipeline to stay open")
	}
}

func TestStore_BroadcastOutcomeSetOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		b := &domain.Broadcast{Chain: domain.ChainEthereum, NativeID: 42, Type: domain.BroadcastTypeBatch}
		if err := tx.InsertBroadcast(ctx, b); err != nil {
			return err
		}

		ok, err := tx.MarkBroadcastSucceeded(ctx, b.ID, now, "10-1")
		if err != nil || !ok {
			t.Errorf("First MarkBroadcastSucceeded: ok=%v err=%v", ok, err)
		}
		ok, err = tx.MarkBroadcastAborted(ctx, b.ID, now, "11-1")
		if err != nil || ok {
			t.Errorf("MarkBroadcastAborted after success: ok=%v err=%v", ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
}

func TestStore_ReplaceBroadcastRelinksEgresses(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var oldID, newID int64
	var egressIDs []int64
	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old := &domain.Broadcast{Chain: domain.ChainEthereum, NativeID: 42, Type: domain.BroadcastTypeBatch}
		if err := tx.InsertBroadcast(ctx, old); err != nil {
			return err
		}
		oldID = old.ID

		for i := uint64(1); i <= 3; i++ {
			e := &domain.Egress{Chain: domain.ChainEthereum, NativeID: i, Asset: domain.AssetETH}
			if err := tx.InsertEgress(ctx, e); err != nil {
				return err
			}
			egressIDs = append(egressIDs, e.ID)
		}
		if err := tx.LinkEgresses(ctx, egressIDs, oldID); err != nil {
			return err
		}

		retry := &domain.Broadcast{Chain: domain.ChainEthereum, NativeID: 43, Type: domain.BroadcastTypeBatch}
		if err := tx.InsertBroadcast(ctx, retry); err != nil {
			return err
		}
		newID = retry.ID

		n, err := tx.ReplaceBroadcast(ctx, oldID, newID)
		if err != nil {
			return err
		}
		if n != 3 {
			t.Errorf("Expected 3 relinked egresses, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	old, err := store.GetBroadcastByID(ctx, oldID)
	if err != nil {
		t.Fatalf("GetBroadcastByID failed: %v", err)
	}
	if old.ReplacedByID == nil || *old.ReplacedByID != newID {
		t.Errorf("ReplacedByID mismatch: got %v, want %d", old.ReplacedByID, newID)
	}

	for _, id := range egressIDs {
		e, err := store.GetEgressByID(ctx, id)
		if err != nil {
			t.Fatalf("GetEgressByID failed: %v", err)
		}
		if e.BroadcastID == nil || *e.BroadcastID != newID {
			t.Errorf("Egress %d points at %v, want %d", id, e.BroadcastID, newID)
		}
	}
}

func TestStore_LatestSwapByChannel(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var channelID int64
	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		c := &domain.SwapDepositChannel{IssuedBlock: 1, SrcChain: domain.ChainPolkadot, ChannelID: 3, ExpiryBlock: 50}
		if err := tx.InsertChannel(ctx, c); err != nil {
			return err
		}
		channelID = c.ID

		for _, native := range []uint64{5, 9, 7} {
			if err := tx.InsertSwap(ctx, &domain.Swap{NativeID: native, ChannelID: &channelID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	latest, err := store.GetLatestSwapByChannel(ctx, channelID)
	if err != nil {
		t.Fatalf("GetLatestSwapByChannel failed: %v", err)
	}
	if latest.NativeID != 9 {
		t.Errorf("Expected latest swap 9, got %d", latest.NativeID)
	}

	n, err := store.CountSwapsByChannel(ctx, channelID)
	if err != nil {
		t.Fatalf("CountSwapsByChannel failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 swaps, got %d", n)
	}
}

func TestEventArchive_SkipsDuplicates(t *testing.T) {
	archive := NewEventArchive()
	ctx := context.Background()

	events := []*domain.ArchivedEvent{
		{EventID: "b", Pipeline: "main", BlockHeight: 10, IndexInBlock: 1},
		{EventID: "a", Pipeline: "main", BlockHeight: 10, IndexInBlock: 0},
	}
	if err := archive.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := archive.InsertBulk(ctx, events); err != nil {
		t.Fatalf("Second InsertBulk failed: %v", err)
	}

	got, err := archive.GetByBlock(ctx, "main", 10)
	if err != nil {
		t.Fatalf("GetByBlock failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if got[0].EventID != "a" {
		t.Errorf("Expected ordering by index, got %s first", got[0].EventID)
	}
}
