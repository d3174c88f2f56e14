// Package scheduler drives periodic workflow synchronization.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"workflow-sync/backend/internal/logging"
)

// State is the lifecycle state of a Scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Synchronizer performs one synchronization pass.
type Synchronizer interface {
	Synchronize(ctx context.Context)
}

// Scheduler runs a Synchronizer immediately and then once per interval,
// measured from the end of the previous pass. Passes never overlap.
type Scheduler struct {
	sync     Synchronizer
	interval time.Duration
	logger   *logging.Logger
	state    atomic.Int32
}

// New creates a Scheduler. The interval must be positive.
func New(sync Synchronizer, interval time.Duration, logger *logging.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", interval)
	}
	return &Scheduler{
		sync:     sync,
		interval: interval,
		logger:   logger,
	}, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run blocks until ctx is cancelled. Cancellation is observed between
// passes; a pass already in flight runs to completion.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	s.logger.Info("Synchronization service is starting", "interval", s.interval)

	for ctx.Err() == nil {
		s.tick(context.WithoutCancel(ctx))

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	s.state.Store(int32(StateStopping))
	s.logger.Info("Synchronization service is stopping")
	s.state.Store(int32(StateStopped))
	return nil
}

// tick runs a single pass and keeps a panic inside it from ending the loop.
func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("An error occurred during periodic synchronization", "panic", r)
		}
	}()

	started := time.Now()
	s.logger.Debug("Synchronization started", "at", started)
	s.sync.Synchronize(ctx)
	s.logger.Debug("Synchronization finished", "elapsed", time.Since(started))
}
