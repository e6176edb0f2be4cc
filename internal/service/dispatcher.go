package service

import (
	"context"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type dispatchTask struct {
	name string
	fn   func(ctx context.Context) error
}

// implDispatcher is a supervised replacement for bare detached goroutines:
// tasks run on a tracked worker with their own deadline, and failures land
// in the log instead of vanishing.
type implDispatcher struct {
	l           logger.Logger
	tasks       chan dispatchTask
	taskTimeout time.Duration
	wg          sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(queueSize int, l logger.Logger) Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}

	d := &implDispatcher{
		l:           l,
		tasks:       make(chan dispatchTask, queueSize),
		taskTimeout: 10 * time.Second,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *implDispatcher) run() {
	defer d.wg.Done()

	for task := range d.tasks {
		// Detached from the spawning request; the task gets its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
		if err := task.fn(ctx); err != nil {
			d.l.Errorf(ctx, "service.dispatcher: task %s failed: %v", task.name, err)
		}
		cancel()
	}
}

// Enqueue never blocks the caller. A full queue drops the task and reports
// false; the drop is logged.
func (d *implDispatcher) Enqueue(ctx context.Context, name string, fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.l.Warnf(ctx, "service.dispatcher: enqueue %s after close", name)
		return false
	}

	select {
	case d.tasks <- dispatchTask{name: name, fn: fn}:
		return true
	default:
		d.l.Errorf(ctx, "service.dispatcher: queue full, dropping task %s", name)
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (d *implDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}
