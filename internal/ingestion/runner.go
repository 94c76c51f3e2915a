package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/events"
	"crosschain-swap-indexer/internal/idhash"
	"crosschain-swap-indexer/internal/reducer"
	"crosschain-swap-indexer/internal/storage"
)

// ErrSourceClosed is returned by Run when the block source stops delivering.
var ErrSourceClosed = errors.New("block source closed")

// Runner drives one ingestion pipeline. Every block is applied in its own
// transaction together with the watermark; tracked raw events are archived
// after commit.
type Runner struct {
	pipeline string
	source   BlockSource
	decoder  EventDecoder
	reducer  *reducer.Reducer
	store    storage.Store
	archive  storage.EventArchive
	metrics  Metrics
	logger   *zap.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Pipeline string
	Source   BlockSource // only required by Run
	Decoder  EventDecoder
	Reducer  *reducer.Reducer
	Store    storage.Store
	Archive  storage.EventArchive // optional
	Metrics  Metrics
	Logger   *zap.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Pipeline == "" {
		return nil, errors.New("pipeline name is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("pipeline", opts.Pipeline))

	decoder := opts.Decoder
	if decoder == nil {
		decoder = events.NewDecoder()
	}
	red := opts.Reducer
	if red == nil {
		red = reducer.New(logger)
	}
	var metrics Metrics = nopMetrics{}
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}

	return &Runner{
		pipeline: opts.Pipeline,
		source:   opts.Source,
		decoder:  decoder,
		reducer:  red,
		store:    opts.Store,
		archive:  opts.Archive,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Pipeline returns the pipeline name.
func (r *Runner) Pipeline() string {
	return r.pipeline
}

// Run subscribes from the block after the stored watermark and applies
// blocks until the context is cancelled, the source closes, or a block is
// rejected.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return errors.New("block source is required")
	}

	from, err := r.startHeight(ctx)
	if err != nil {
		return err
	}

	blocks, err := r.source.Subscribe(ctx, from)
	if err != nil {
		return fmt.Errorf("subscribe from %d: %w", from, err)
	}
	r.logger.Info("runner started", zap.Uint64("from_height", from))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping")
			return ctx.Err()

		case block, ok := <-blocks:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn("block source closed")
				return ErrSourceClosed
			}
			if _, err := r.ProcessBlock(ctx, block); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) startHeight(ctx context.Context) (uint64, error) {
	watermark, err := r.store.GetWatermark(ctx, r.pipeline)
	switch {
	case err == nil:
		r.metrics.SetWatermark(watermark)
		return watermark + 1, nil
	case errors.Is(err, storage.ErrNotFound):
		return 0, nil
	default:
		return 0, fmt.Errorf("get watermark: %w", err)
	}
}

// ProcessBlock applies one block. A re-delivered block at or below the
// watermark is skipped and yields a nil result with no error. Ordering,
// decoding and invariant failures are returned and nothing is committed.
func (r *Runner) ProcessBlock(ctx context.Context, block *domain.Block) (*reducer.Result, error) {
	started := time.Now()

	if err := ValidateEventOrdering(block.Events); err != nil {
		return nil, r.fail(block, "ordering", err, started)
	}

	decoded, err := r.decoder.DecodeBlock(block)
	if err != nil {
		return nil, r.fail(block, "decode", err, started)
	}

	var res *reducer.Result
	err = r.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var applyErr error
		res, applyErr = r.reducer.ApplyBlock(ctx, tx, r.pipeline, reducer.Block{
			Height:    block.Height,
			Hash:      block.Hash,
			Timestamp: block.Timestamp,
			Events:    decoded,
		})
		return applyErr
	})
	switch {
	case errors.Is(err, reducer.ErrAlreadyApplied):
		r.metrics.ObserveDuplicate()
		r.logger.Debug("skipping re-delivered block", zap.Uint64("height", block.Height))
		return nil, nil
	case errors.Is(err, reducer.ErrInvariantViolation):
		return nil, r.fail(block, "invariant", err, started)
	case err != nil:
		return nil, r.fail(block, "storage", err, started)
	}

	r.metrics.ObserveBlock(nil, started)
	for _, d := range decoded {
		r.metrics.ObserveEvent(d.Event.EventName())
	}
	r.metrics.ObserveEffects(res.ChannelsExpired, res.BroadcastsReplaced, res.EventsIgnored)
	r.metrics.SetWatermark(block.Height)

	r.archiveBlock(ctx, block)

	r.logger.Debug("block applied",
		zap.Uint64("height", block.Height),
		zap.Int("events_applied", res.EventsApplied),
		zap.Int("events_ignored", res.EventsIgnored),
		zap.Int("channels_expired", res.ChannelsExpired),
		zap.Int("broadcasts_replaced", res.BroadcastsReplaced),
	)
	return res, nil
}

func (r *Runner) fail(block *domain.Block, reason string, err error, started time.Time) error {
	r.metrics.ObserveBlock(err, started)
	r.metrics.ObserveFailure(reason)
	r.logger.Error("block rejected",
		zap.Uint64("height", block.Height),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return fmt.Errorf("block %d: %w", block.Height, err)
}

// archiveBlock stores the tracked raw events of a committed block. Archive
// failures never undo the commit.
func (r *Runner) archiveBlock(ctx context.Context, block *domain.Block) {
	if r.archive == nil {
		return
	}

	archived := make([]*domain.ArchivedEvent, 0, len(block.Events))
	for _, raw := range block.Events {
		if !r.decoder.IsTracked(raw.Name) {
			continue
		}
		archived = append(archived, &domain.ArchivedEvent{
			EventID:      idhash.ComputeEventID(r.pipeline, block.Hash, block.Height, raw.IndexInBlock),
			Pipeline:     r.pipeline,
			BlockHeight:  block.Height,
			BlockHash:    block.Hash,
			BlockTime:    block.Timestamp,
			IndexInBlock: raw.IndexInBlock,
			Name:         raw.Name,
			Args:         string(raw.Args),
		})
	}
	if len(archived) == 0 {
		return
	}

	err := r.archive.InsertBulk(ctx, archived)
	r.metrics.ObserveArchive(err)
	if err != nil {
		r.logger.Warn("archive raw events failed",
			zap.Uint64("height", block.Height),
			zap.Int("events", len(archived)),
			zap.Error(err),
		)
	}
}
