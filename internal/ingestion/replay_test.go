package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage/memory"
)

func TestReplayer_RebuildsStateFromArchive(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewEventArchive()

	live := newTestRunner(t, RunnerOptions{Store: memory.NewStore(), Archive: archive})
	for _, b := range []*domain.Block{
		testBlock(100, channelOpenedRaw(7, 103)),
		testBlock(101, untrackedRaw(), swapScheduledRaw(1, 7)),
		testBlock(102, untrackedRaw()),
		testBlock(105, channelOpenedRaw(8, 900)),
	} {
		_, err := live.ProcessBlock(ctx, b)
		require.NoError(t, err)
	}

	rebuilt := memory.NewStore()
	replayer, err := NewReplayer(ReplayerOptions{
		Archive:        archive,
		SourcePipeline: testPipeline,
		Store:          rebuilt,
		Logger:         zap.NewNop(),
	})
	require.NoError(t, err)

	res, err := replayer.Replay(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, res.BlocksApplied, "blocks without tracked events are not archived")
	assert.Equal(t, 3, res.EventsProcessed)
	assert.Equal(t, 1, res.ChannelsExpired)

	channel, err := rebuilt.GetChannel(ctx, 100, domain.ChainEthereum, 7)
	require.NoError(t, err)
	assert.True(t, channel.IsExpired)

	swap, err := rebuilt.GetSwapByNativeID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, swap.ChannelID)
	assert.Equal(t, channel.ID, *swap.ChannelID)
	assert.Equal(t, "101-1", swap.DepositReceivedBlockIndex)

	wm, err := rebuilt.GetWatermark(ctx, testPipeline)
	require.NoError(t, err)
	assert.Equal(t, uint64(105), wm)

	again, err := replayer.Replay(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, again.BlocksApplied)
	assert.Equal(t, 3, again.BlocksSkipped)
}

func TestReplayer_InvalidRange(t *testing.T) {
	replayer, err := NewReplayer(ReplayerOptions{
		Archive:        memory.NewEventArchive(),
		SourcePipeline: testPipeline,
		Store:          memory.NewStore(),
	})
	require.NoError(t, err)

	_, err = replayer.Replay(context.Background(), 10, 5)
	assert.Error(t, err)
}

func TestNewReplayer_Validation(t *testing.T) {
	_, err := NewReplayer(ReplayerOptions{SourcePipeline: testPipeline, Store: memory.NewStore()})
	assert.Error(t, err)

	_, err = NewReplayer(ReplayerOptions{Archive: memory.NewEventArchive(), Store: memory.NewStore()})
	assert.Error(t, err)
}
