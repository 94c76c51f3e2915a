package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

var blockTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestStore_ChannelSwapRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(pool)

	var channelID int64
	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		c := &domain.SwapDepositChannel{
			IssuedBlock:           100,
			SrcChain:              domain.ChainEthereum,
			ChannelID:             7,
			SrcAsset:              domain.AssetETH,
			DestAsset:             domain.AssetDOT,
			DestAddress:           "1exaAg2VJRQbyUBAeXcktChCAqjVP9TUxF3zo23R2T6EGdE",
			DepositAddress:        "0x6fd8cf5a5f5b9b7b1d2f2ae1e0cdbc3a2bc6f3a0",
			ExpectedDepositAmount: domain.MustAmount("340282366920938463463374607431768211455"),
			ExpiryBlock:           110,
			IssuedAt:              blockTime,
		}
		require.NoError(t, tx.InsertChannel(ctx, c))
		channelID = c.ID

		latest, err := tx.FindLatestChannel(ctx, domain.ChainEthereum, 7)
		require.NoError(t, err)
		assert.Equal(t, channelID, latest.ID)

		return tx.InsertSwap(ctx, &domain.Swap{
			NativeID:                  1,
			ChannelID:                 &channelID,
			SrcAsset:                  domain.AssetETH,
			DestAsset:                 domain.AssetDOT,
			DestAddress:               "1exaAg2VJRQbyUBAeXcktChCAqjVP9TUxF3zo23R2T6EGdE",
			DepositAmount:             domain.MustAmount("1000000000000000000"),
			DepositReceivedAt:         blockTime,
			DepositReceivedBlockIndex: "101-3",
		})
	})
	require.NoError(t, err)

	c, err := store.GetChannel(ctx, 100, domain.ChainEthereum, 7)
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", c.ExpectedDepositAmount.Dec())
	assert.False(t, c.IsExpired)

	s, err := store.GetLatestSwapByChannel(ctx, channelID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.NativeID)
	assert.Equal(t, "1000000000000000000", s.DepositAmount.Dec())
	assert.Nil(t, s.SwapExecutedAt)
	assert.Nil(t, s.IntermediateAmount)

	n, err := store.CountSwapsByChannel(ctx, channelID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_InsertIsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(pool)

	var first, second int64
	for i, out := range []*int64{&first, &second} {
		err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			b := &domain.Broadcast{
				Chain:               domain.ChainBitcoin,
				NativeID:            9,
				Type:                domain.BroadcastTypeBatch,
				RequestedAt:         blockTime.Add(time.Duration(i) * time.Minute),
				RequestedBlockIndex: "200-1",
			}
			if err := tx.InsertBroadcast(ctx, b); err != nil {
				return err
			}
			*out = b.ID
			return nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, first, second)

	b, err := store.GetBroadcastByID(ctx, first)
	require.NoError(t, err)
	assert.True(t, b.RequestedAt.Equal(blockTime))
}

func TestStore_RollbackOnError(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(pool)
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, tx.SetWatermark(ctx, "main", 42))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.GetWatermark(ctx, "main")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ExpireChannels(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(pool)

	expire := func(height uint64) int {
		var n int
		err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			var err error
			n, err = tx.ExpireChannels(ctx, "main", height)
			return err
		})
		require.NoError(t, err)
		return n
	}

	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for id, pipeline := range map[uint64]string{1: "main", 2: "other"} {
			err := tx.InsertChannel(ctx, &domain.SwapDepositChannel{
				IssuedBlock: 100, SrcChain: domain.ChainSolana, ChannelID: id,
				SrcAsset: domain.AssetSOL, DestAsset: domain.AssetUSDC, ExpiryBlock: 110, IssuedAt: blockTime,
				Pipeline: pipeline,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 0, expire(109))
	assert.Equal(t, 1, expire(110))
	assert.Equal(t, 0, expire(110))

	c, err := store.GetChannel(ctx, 100, domain.ChainSolana, 1)
	require.NoError(t, err)
	assert.True(t, c.IsExpired)
	assert.Equal(t, "main", c.Pipeline)

	other, err := store.GetChannel(ctx, 100, domain.ChainSolana, 2)
	require.NoError(t, err)
	assert.False(t, other.IsExpired)
}

func TestStore_ReplaceBroadcast(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(pool)

	var oldID, newID int64
	var egressIDs []int64
	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old := &domain.Broadcast{Chain: domain.ChainEthereum, NativeID: 42, Type: domain.BroadcastTypeBatch,
			RequestedAt: blockTime, RequestedBlockIndex: "300-0"}
		require.NoError(t, tx.InsertBroadcast(ctx, old))
		oldID = old.ID

		for i := uint64(1); i <= 2; i++ {
			e := &domain.Egress{Chain: domain.ChainEthereum, NativeID: i, Asset: domain.AssetUSDC,
				Amount: domain.MustAmount("5000000"), ScheduledAt: blockTime, ScheduledBlockIndex: "299-1"}
			require.NoError(t, tx.InsertEgress(ctx, e))
			egressIDs = append(egressIDs, e.ID)
		}
		require.NoError(t, tx.LinkEgresses(ctx, egressIDs, oldID))

		ok, err := tx.MarkBroadcastAborted(ctx, oldID, blockTime, "301-0")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.MarkBroadcastSucceeded(ctx, oldID, blockTime, "302-0")
		require.NoError(t, err)
		assert.False(t, ok, "outcome must be set at most once")

		retry := &domain.Broadcast{Chain: domain.ChainEthereum, NativeID: 43, Type: domain.BroadcastTypeBatch,
			RequestedAt: blockTime, RequestedBlockIndex: "303-0"}
		require.NoError(t, tx.InsertBroadcast(ctx, retry))
		newID = retry.ID

		n, err := tx.ReplaceBroadcast(ctx, oldID, newID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)

	old, err := store.GetBroadcastByID(ctx, oldID)
	require.NoError(t, err)
	require.NotNil(t, old.ReplacedByID)
	assert.Equal(t, newID, *old.ReplacedByID)
	assert.Equal(t, "301-0", old.AbortedBlockIndex)
	assert.Nil(t, old.SucceededAt)

	for _, id := range egressIDs {
		e, err := store.GetEgressByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, e.BroadcastID)
		assert.Equal(t, newID, *e.BroadcastID)
	}
}

func TestStore_MarkSwapExecutedOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(pool)

	err := store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		s := &domain.Swap{
			NativeID: 5, TxHash: "0xabc", SrcAsset: domain.AssetBTC, DestAsset: domain.AssetETH,
			DepositAmount: domain.MustAmount("100000000"), DepositReceivedAt: blockTime, DepositReceivedBlockIndex: "10-0",
		}
		require.NoError(t, tx.InsertSwap(ctx, s))

		ok, err := tx.MarkSwapExecuted(ctx, s.ID, domain.MustAmount("60000000000"), domain.MustAmount("25000000000000000000"), blockTime, "11-0")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.MarkSwapExecuted(ctx, s.ID, nil, domain.MustAmount("1"), blockTime, "12-0")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = tx.MarkSwapExecuted(ctx, s.ID+1000, nil, nil, blockTime, "12-0")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	s, err := store.GetSwapByTxHash(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, s.SwapExecutedAt)
	assert.Equal(t, "11-0", s.SwapExecutedBlockIndex)
	assert.Equal(t, "60000000000", s.IntermediateAmount.Dec())
	assert.Equal(t, "25000000000000000000", s.SwapOutputAmount.Dec())
}
