package detect

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/smartreview/detection/internal/domain"
)

// ErrTaskTimeout reports that a result was not produced within the wait
// budget. The worker may still complete the task afterwards; the result is
// simply not collected.
var ErrTaskTimeout = errors.New("task wait timed out")

// task is one unit of file analysis work queued on the pool.
type task struct {
	run  func(ctx context.Context) []domain.Issue
	done chan struct{}

	issues []domain.Issue
}

// Wait blocks until the task completes or the budget elapses.
func (t *task) Wait(budget time.Duration) ([]domain.Issue, error) {
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.issues, nil
	case <-timer.C:
		return nil, ErrTaskTimeout
	}
}

// pool runs queued tasks on a bounded set of workers. It is created per
// analysis run and shut down when the run completes.
type pool struct {
	tasks  chan *task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// poolSize bounds workers at min(4, NumCPU).
func poolSize() int {
	n := runtime.NumCPU()
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

func newPool(parent context.Context, workers, queue int) *pool {
	if workers <= 0 {
		workers = poolSize()
	}
	ctx, cancel := context.WithCancel(parent)
	p := &pool{
		tasks:  make(chan *task, queue),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			t.issues = t.run(p.ctx)
			close(t.done)
		case <-p.ctx.Done():
			return
		}
	}
}

// submit queues work and returns a handle to wait on. Submitting after
// shutdown panics, like sending on any closed channel would.
func (p *pool) submit(run func(ctx context.Context) []domain.Issue) *task {
	t := &task{run: run, done: make(chan struct{})}
	p.tasks <- t
	return t
}

// shutdown stops the pool in two phases: first close the queue and give
// running workers a graceful window to drain, then cancel the pool context
// and wait briefly for them to observe it. Workers still blocked after both
// windows are abandoned.
func (p *pool) shutdown(graceful, forced time.Duration) {
	p.closeOnce.Do(func() { close(p.tasks) })

	if p.awaitWorkers(graceful) {
		p.cancel()
		return
	}

	p.cancel()
	p.awaitWorkers(forced)
}

// awaitWorkers waits for all workers to exit, up to the budget.
func (p *pool) awaitWorkers(budget time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
