// Package dispatch provides bounded worker queues that pace how often
// jobs are allowed to start. The scraper runs two of them: a serial
// queue for page fetches and a wider one for image downloads, each with
// its own minimum spacing between job starts.
package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/patrickkfkan/imagefap-dl/pkg/logger"
)

// Queue is a fixed-size worker pool with a pending-job buffer. Workers
// pull jobs off the buffer and block on the pacing gate before running
// each one, so job starts are spaced by at least the configured
// interval across all workers combined.
type Queue struct {
	name    string
	workers int
	jobs    chan func()
	gate    *rate.Limiter
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewQueue creates a queue with the given number of workers and minimum
// spacing between job starts. A spacing of zero or less disables pacing.
// The queue is bound to ctx: when ctx is cancelled the queue shuts down
// as if Stop had been called.
func NewQueue(ctx context.Context, name string, workers int, minSpacing time.Duration, log logger.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	gate := rate.NewLimiter(rate.Inf, 1)
	if minSpacing > 0 {
		gate = rate.NewLimiter(rate.Every(minSpacing), 1)
	}

	qctx, cancel := context.WithCancel(ctx)
	return &Queue{
		name:    name,
		workers: workers,
		jobs:    make(chan func(), workers*2),
		gate:    gate,
		ctx:     qctx,
		cancel:  cancel,
		logger:  log,
	}
}

// Start launches the worker goroutines.
func (q *Queue) Start() {
	q.logger.DebugWithFields("starting dispatch queue", map[string]interface{}{
		"queue":   q.name,
		"workers": q.workers,
	})
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Stop shuts the queue down and waits for in-flight jobs to finish.
// Jobs still sitting in the buffer are discarded; their Do callers are
// unblocked with the queue's cancellation error.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
	q.logger.DebugWithFields("dispatch queue stopped", map[string]interface{}{
		"queue": q.name,
	})
}

// Do submits fn to the queue and waits for it to run, returning fn's
// error. It returns early with a context error if the caller's ctx is
// cancelled or the queue is stopped before fn completes; a job already
// running when that happens is left to finish on its own.
func (q *Queue) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	job := func() {
		done <- fn()
	}

	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return q.ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return q.ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			// The gate spaces out job starts. An error here means the
			// queue is shutting down, so the job is dropped unrun.
			if err := q.gate.Wait(q.ctx); err != nil {
				return
			}
			job()
		}
	}
}
