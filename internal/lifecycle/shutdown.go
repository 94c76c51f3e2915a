// Package lifecycle owns the ordered release of process resources.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// CloseFunc releases one resource.
type CloseFunc func(ctx context.Context) error

type closer struct {
	name string
	fn   CloseFunc
}

// Shutdown is an explicit list of close hooks owned by main. Hooks run in
// reverse registration order, exactly once.
type Shutdown struct {
	mu      sync.Mutex
	closers []closer
	done    bool
	logger  *zap.Logger
}

// NewShutdown creates an empty shutdown list.
func NewShutdown(logger *zap.Logger) *Shutdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shutdown{logger: logger.Named("shutdown")}
}

// Add registers a hook. Hooks added after Close has started are run
// immediately by the caller.
func (s *Shutdown) Add(name string, fn CloseFunc) {
	s.mu.Lock()
	if !s.done {
		s.closers = append(s.closers, closer{name: name, fn: fn})
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := fn(context.Background()); err != nil {
		s.logger.Error("late close failed", zap.String("resource", name), zap.Error(err))
	}
}

// AddFunc registers a hook that needs no context.
func (s *Shutdown) AddFunc(name string, fn func() error) {
	s.Add(name, func(context.Context) error { return fn() })
}

// Close runs every hook, newest first, and joins their errors. A hook that
// fails does not stop the others. Subsequent calls return nil.
func (s *Shutdown) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			s.logger.Error("close failed", zap.String("resource", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		s.logger.Debug("closed", zap.String("resource", c.name))
	}
	return errors.Join(errs...)
}
