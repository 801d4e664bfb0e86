package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when work is submitted to a closed pool.
var ErrPoolClosed = errors.New("parallel: worker pool closed")

// job pairs a task with the channel its result is delivered on.
type job struct {
	ctx     context.Context
	task    ContrastTask
	results chan<- BandResult
}

// WorkerPool is a fixed-size pool of goroutines executing ContrastTasks.
//
// Each worker owns a queue. A worker whose queue is empty steals from the
// other queues before blocking, so one slow band does not idle the rest of
// the pool.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds per-worker task queues.
	queues []chan job

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// next is the round-robin cursor for Submit.
	next atomic.Uint32
}

// NewWorkerPool creates a pool with the given number of workers, clamped to
// [1, DefaultWorkers()]. If workers is 0 or negative, DefaultWorkers is used.
// The workers start immediately and wait for tasks.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 || workers > DefaultWorkers() {
		workers = DefaultWorkers()
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan job, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		// One band per worker is the common case; leave room for a few more.
		p.queues[i] = make(chan job, 4)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// worker is the main loop of one worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drainQueue(own)
			return
		case j := <-own:
			p.run(j)
		default:
			if j, ok := p.steal(id); ok {
				p.run(j)
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(own)
				return
			case j := <-own:
				p.run(j)
			}
		}
	}
}

// drainQueue runs every task still queued on shutdown so that no caller
// waits forever for a result.
func (p *WorkerPool) drainQueue(queue chan job) {
	for {
		select {
		case j := <-queue:
			p.run(j)
		default:
			return
		}
	}
}

// steal takes one task from another worker's queue.
func (p *WorkerPool) steal(self int) (job, bool) {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case j := <-p.queues[i]:
			return j, true
		default:
		}
	}
	return job{}, false
}

// run executes one task and always delivers exactly one result.
// A panicking task is reported as a failed band.
func (p *WorkerPool) run(j job) {
	res := BandResult{BandStart: j.task.BandStart, BandEnd: j.task.BandEnd}
	defer func() {
		if r := recover(); r != nil {
			res.Pix = nil
			res.Err = fmt.Errorf("%w: rows [%d,%d): panic: %v", ErrBandFailed, j.task.BandStart, j.task.BandEnd, r)
		}
		j.results <- res
	}()
	res.Pix, res.Err = j.task.Run(j.ctx)
}

// Submit queues a task. Its result is sent on results, which must have room
// for it or be drained by the caller. Tasks are spread round-robin across
// worker queues.
func (p *WorkerPool) Submit(ctx context.Context, task ContrastTask, results chan<- BandResult) error {
	if !p.running.Load() {
		return ErrPoolClosed
	}
	id := int(p.next.Add(1)-1) % p.workers
	select {
	case p.queues[id] <- job{ctx: ctx, task: task, results: results}:
		return nil
	case <-p.done:
		return ErrPoolClosed
	}
}

// Close stops accepting tasks, finishes queued ones and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts tasks.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
