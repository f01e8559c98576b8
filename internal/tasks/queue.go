// Package tasks runs fire-and-forget background work: thread warm-ups,
// unread-count refreshes and similar best-effort operations that must not
// block the request path and must not surface failures to the user.
package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is one queued unit of background work.
type Task struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Queue executes submitted tasks on a single worker goroutine. Failures are
// logged, never returned to the submitter; there is no cancellation of an
// individual task beyond queue shutdown.
type Queue struct {
	ch     chan Task
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{
		ch:     make(chan Task, size),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the worker.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	go q.loop(ctx)
}

// drainTimeout bounds how long shutdown spends on still-buffered tasks.
const drainTimeout = 5 * time.Second

// Stop stops the worker, runs tasks still buffered at shutdown within a
// bounded grace period, and waits for the worker to exit.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
		<-q.done
	}
}

// Submit enqueues a task. When the queue is full the task is dropped with a
// log entry: background work is best-effort by contract.
func (q *Queue) Submit(name string, run func(ctx context.Context) error) {
	t := Task{ID: uuid.NewString(), Name: name, Run: run}
	select {
	case q.ch <- t:
	default:
		if q.logger != nil {
			q.logger.Warn("task queue full, dropping task", zap.String("task", name))
		}
	}
}

func (q *Queue) loop(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case t := <-q.ch:
			q.run(ctx, t)
		case <-ctx.Done():
			q.drain()
			return
		}
	}
}

// drain runs the tasks still buffered when shutdown began. The parent context
// is already canceled, so they get a fresh bounded one.
func (q *Queue) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case t := <-q.ch:
			q.run(ctx, t)
		default:
			return
		}
	}
}

func (q *Queue) run(ctx context.Context, t Task) {
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		if q.logger != nil {
			q.logger.Error("background task failed",
				zap.String("task", t.Name),
				zap.String("task_id", t.ID),
				zap.Error(err))
		}
		return
	}
	if q.logger != nil {
		q.logger.Debug("background task done",
			zap.String("task", t.Name),
			zap.Duration("took", time.Since(start)))
	}
}
