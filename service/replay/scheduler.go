package replay

import (
	"context"
	"log/slog"
	"sync"
)

// Runner executes the replay loop for one account task.
type Runner interface {
	Run(ctx context.Context, task AccountTask)
}

// Scheduler fans out one replay loop per account task and waits for all of
// them to finish. Accounts share nothing: each loop has its own goroutine,
// contains its own failures, and progresses at its own pace. The only
// synchronization point is the final join.
type Scheduler struct {
	runner Runner
	logger *slog.Logger
}

// NewScheduler creates a scheduler that drives the given runner.
func NewScheduler(runner Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
	}
}

// RunAll runs every task concurrently and blocks until all loops complete.
func (s *Scheduler) RunAll(ctx context.Context, tasks []AccountTask) {
	s.logger.InfoContext(ctx, "scheduling replay loops", "accounts", len(tasks))

	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runner.Run(ctx, task)
		}()
	}
	wg.Wait()

	s.logger.InfoContext(ctx, "all replay loops finished", "accounts", len(tasks))
}
