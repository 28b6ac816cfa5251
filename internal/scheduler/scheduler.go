// Package scheduler runs periodic tasks until their context is cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is one periodic job. The next run is armed only after Run returns, so
// the effective period is Interval plus the time Run takes.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

type Scheduler struct {
	clock clock.Clock
	log   *zap.Logger
}

func New(clk clock.Clock, log *zap.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{clock: clk, log: log.Named("scheduler")}
}

// Every runs task immediately and then once per Interval until ctx is done.
// It returns ctx's error; no run starts once cancellation is observed.
func (s *Scheduler) Every(ctx context.Context, task Task) error {
	if task.Interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive, got %s", task.Name, task.Interval)
	}
	if task.Run == nil {
		return fmt.Errorf("task %q: nothing to run", task.Name)
	}

	log := s.log.With(zap.String("task", task.Name))
	log.Debug("task started", zap.Duration("interval", task.Interval))
	defer log.Debug("task stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runOnce(ctx, task, log)

		timer := s.clock.Timer(task.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task.Run(ctx)
}

// Run drives every task concurrently and waits for all of them. Cancelling
// ctx is a clean stop and yields nil; a task that cannot start stops the
// others and its error is returned.
func (s *Scheduler) Run(ctx context.Context, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return s.Every(gctx, task)
		})
	}

	err := g.Wait()
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}
