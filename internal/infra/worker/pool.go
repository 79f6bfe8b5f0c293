// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Submit when every queue slot is taken.
var ErrQueueFull = errors.New("worker queue full")

// Task is plain func so callers can submit without importing this package.
type Task = func(ctx context.Context) error

// Pool runs submitted tasks on a fixed set of goroutines. Submission never
// blocks: a saturated queue drops the task.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	stop sync.Once
	n    int
	log  *zerolog.Logger

	done    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// Stats is a point-in-time view of the pool counters.
type Stats struct {
	Workers int
	Queued  int
	Done    int64
	Failed  int64
	Dropped int64
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Pool{jobs: make(chan Task, workers*4), quit: make(chan struct{}), n: workers, log: logger}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					p.run(ctx, id, task)
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.failed.Add(1)
		p.log.Warn().Int("worker", id).Err(err).Msg("task error")
		return
	}
	p.done.Add(1)
}

// Stop signals the workers and waits for in-flight tasks. Queued tasks
// that have not started are discarded.
func (p *Pool) Stop() {
	p.stop.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers: p.n,
		Queued:  len(p.jobs),
		Done:    p.done.Load(),
		Failed:  p.failed.Load(),
		Dropped: p.dropped.Load(),
	}
}
