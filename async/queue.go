package async

import (
	"sync"

	"go.uber.org/zap"
)

// Queue is a Channel that runs callbacks one at a time, in send order, on a
// dedicated goroutine. It stands in for a host event loop when the bridge is
// used from plain Go.
type Queue struct {
	logger *zap.Logger
	mu     sync.Mutex
	jobs   []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

var _ Channel = (*Queue)(nil)

// NewQueue starts a queue. A nil logger is replaced with a no-op logger.
func NewQueue(logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Send enqueues fn. It never blocks on the consumer.
func (q *Queue) Send(fn func()) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrChannelClosed
	}
	q.jobs = append(q.jobs, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops accepting callbacks, runs the ones already queued and waits for
// the worker to exit. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for range q.wake {
		for {
			q.mu.Lock()
			if len(q.jobs) == 0 {
				closed := q.closed
				q.mu.Unlock()
				if closed {
					return
				}
				break
			}
			fn := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]
			q.mu.Unlock()

			q.invoke(fn)
		}
	}
}

func (q *Queue) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("host callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
