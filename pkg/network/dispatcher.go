package network

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is a unit of deferred work the dispatcher hands to a worker.
// Handlers never process a frame inline on the substrate's read
// goroutine; they build a Task and enqueue it, keeping that goroutine
// free to keep reading.
type Task func()

// Dispatcher decouples network callbacks from the goroutines that do
// the actual work: a bounded channel plus a fixed worker pool, the
// same register/unregister/quit-channel shape a Server's connection
// loop uses, applied here to units of work instead of peer lifecycle
// events. Enqueue never blocks — a full queue is a backpressure
// signal, not something a caller should stall on.
type Dispatcher struct {
	tasks   chan Task
	log     *zap.Logger
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	workers int
}

// NewDispatcher creates a dispatcher with the given queue capacity and
// worker count. workers defaults to 1 if non-positive.
func NewDispatcher(capacity, workers int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		tasks:   make(chan Task, capacity),
		log:     log,
		workers: workers,
	}
}

// Start launches the worker pool. Calling Start twice is a no-op after
// the first call's workers are already running.
func (d *Dispatcher) Start(ctx context.Context) {
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-d.tasks:
			if !ok {
				return
			}
			d.runTask(id, t)
		}
	}
}

// runTask executes t, converting a panic into a logged error so one
// malformed task can never take down the worker pool.
func (d *Dispatcher) runTask(worker int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("task panicked", zap.Int("worker", worker), zap.Any("recovered", r))
		}
	}()
	t()
}

// Enqueue submits t for asynchronous execution, returning
// errQueueFull immediately if the queue is at capacity rather than
// blocking the caller (almost always the substrate's read goroutine).
func (d *Dispatcher) Enqueue(t Task) error {
	select {
	case d.tasks <- t:
		return nil
	default:
		return errQueueFull
	}
}

// Len reports the current queue depth, exposed for metrics.
func (d *Dispatcher) Len() int {
	return len(d.tasks)
}

// Stop signals all workers to exit and waits for them to drain.
// Already-enqueued tasks are not guaranteed to run once Stop is
// called.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}
