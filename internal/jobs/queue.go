package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"affiliate-payout-service/internal/config"
)

// Task is one independent unit of background work. Run must be safe to
// invoke again after a failed attempt.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler accepts tasks for asynchronous execution.
type Scheduler interface {
	Enqueue(task Task)
}

// Queue executes tasks on a fixed pool of workers, retrying failed tasks
// with exponential backoff up to a maximum attempt count.
type Queue struct {
	logger      *slog.Logger
	tasks       chan Task
	stopped     chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	workers     int
	maxAttempts int
	backoff     time.Duration
}

func NewQueue(logger *slog.Logger, cfg config.Payout) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	return &Queue{
		logger:      logger,
		tasks:       make(chan Task, queueSize),
		stopped:     make(chan struct{}),
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Start launches the worker pool. Workers drain the queue until Stop is
// called; cancelling the context abandons queued work instead.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	go func() {
		select {
		case <-ctx.Done():
			q.signalStop()
		case <-q.stopped:
		}
	}()
}

// Enqueue schedules a task. Blocks while the queue is full; tasks offered
// after Stop or cancellation are dropped, never deadlocked on.
func (q *Queue) Enqueue(task Task) {
	select {
	case <-q.stopped:
		q.logger.Warn("task dropped, queue stopped", "task", task.Name)
		return
	default:
	}

	select {
	case q.tasks <- task:
	case <-q.stopped:
		q.logger.Warn("task dropped, queue stopped", "task", task.Name)
	}
}

// Stop tells the workers to finish queued tasks and waits for them.
func (q *Queue) Stop() {
	q.signalStop()
	q.wg.Wait()
}

func (q *Queue) signalStop() {
	q.stopOnce.Do(func() {
		close(q.stopped)
	})
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.runWithRetry(ctx, task)
		case <-q.stopped:
			q.drain(ctx)
			return
		}
	}
}

// drain empties the queue after Stop so accepted tasks still run.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.runWithRetry(ctx, task)
		default:
			return
		}
	}
}

func (q *Queue) runWithRetry(ctx context.Context, task Task) {
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		err := task.Run(ctx)
		if err == nil {
			if attempt > 1 {
				q.logger.InfoContext(ctx, "task succeeded after retry",
					"task", task.Name,
					"attempt", attempt,
				)
			}
			return
		}

		q.logger.WarnContext(ctx, "task failed",
			"task", task.Name,
			"attempt", attempt,
			"error", err,
		)

		if attempt == q.maxAttempts {
			q.logger.ErrorContext(ctx, "task exhausted retries",
				"task", task.Name,
				"attempts", attempt,
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(q.backoff << (attempt - 1)):
		}
	}
}
