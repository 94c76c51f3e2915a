package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager runs independent pipelines concurrently. The first pipeline to
// fail cancels the others.
type Manager struct {
	runners []*Runner
	logger  *zap.Logger
}

// NewManager creates a new ingestion manager for the given runners.
func NewManager(logger *zap.Logger, runners ...*Runner) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{runners: runners, logger: logger}
}

// Run blocks until every pipeline has stopped. Cancellation of ctx is a
// clean shutdown and returns nil.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.runners) == 0 {
		return errors.New("no pipelines configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range m.runners {
		g.Go(func() error {
			err := r.Run(gctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return err
			}
			m.logger.Error("pipeline stopped", zap.String("pipeline", r.Pipeline()), zap.Error(err))
			return fmt.Errorf("pipeline %s: %w", r.Pipeline(), err)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
