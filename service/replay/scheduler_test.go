package replay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner records which wallets ran and how concurrently.
type countingRunner struct {
	mu      sync.Mutex
	wallets map[string]int
	active  int
	peak    int

	block func(task AccountTask)
}

func newCountingRunner() *countingRunner {
	return &countingRunner{wallets: map[string]int{}}
}

func (r *countingRunner) Run(ctx context.Context, task AccountTask) {
	r.mu.Lock()
	r.active++
	if r.active > r.peak {
		r.peak = r.active
	}
	r.mu.Unlock()

	if r.block != nil {
		r.block(task)
	}

	r.mu.Lock()
	r.wallets[task.Wallet().String()]++
	r.active--
	r.mu.Unlock()
}

func TestRunAll_RunsEveryTaskOnce(t *testing.T) {
	tasks := []AccountTask{
		newTestTask(t, 1),
		newTestTask(t, 2),
		newTestTask(t, 3),
	}
	runner := newCountingRunner()
	s := NewScheduler(runner, testLogger())

	s.RunAll(context.Background(), tasks)

	require.Len(t, runner.wallets, 3)
	for _, task := range tasks {
		assert.Equal(t, 1, runner.wallets[task.Wallet().String()])
	}
}

func TestRunAll_TasksRunConcurrently(t *testing.T) {
	tasks := []AccountTask{
		newTestTask(t, 1),
		newTestTask(t, 1),
		newTestTask(t, 1),
	}

	// Every loop blocks until all three have started, so a sequential
	// scheduler would deadlock here and the per-account concurrency shows
	// up as peak == 3.
	var started sync.WaitGroup
	started.Add(len(tasks))
	runner := newCountingRunner()
	runner.block = func(AccountTask) {
		started.Done()
		started.Wait()
	}
	s := NewScheduler(runner, testLogger())

	done := make(chan struct{})
	go func() {
		s.RunAll(context.Background(), tasks)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunAll did not finish; loops are not running concurrently")
	}
	assert.Equal(t, 3, runner.peak)
}

func TestRunAll_SlowTaskDoesNotBlockOthersButJoinWaits(t *testing.T) {
	tasks := []AccountTask{
		newTestTask(t, 1),
		newTestTask(t, 1),
	}

	release := make(chan struct{})
	runner := newCountingRunner()
	first := true
	var mu sync.Mutex
	runner.block = func(AccountTask) {
		mu.Lock()
		slow := first
		first = false
		mu.Unlock()
		if slow {
			<-release
		}
	}
	s := NewScheduler(runner, testLogger())

	done := make(chan struct{})
	go func() {
		s.RunAll(context.Background(), tasks)
		close(done)
	}()

	// The fast task finishes, but RunAll must keep waiting for the slow one.
	select {
	case <-done:
		t.Fatal("RunAll returned before every loop finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunAll never returned after the slow loop finished")
	}

	require.Len(t, runner.wallets, 2)
}

func TestRunAll_EmptyTaskList(t *testing.T) {
	runner := newCountingRunner()
	s := NewScheduler(runner, testLogger())

	s.RunAll(context.Background(), nil)

	assert.Empty(t, runner.wallets)
}
