package bridge

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrLoopClosed is returned when work is posted to a stopped loop
var ErrLoopClosed = errors.New("dispatch loop closed")

// Loop is the single logical dispatch thread of a view session. Tasks run
// one at a time in the order they were posted. Posting never blocks.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	notify chan struct{}
	done   chan struct{}
	logger *zap.Logger
}

// NewLoop creates an idle loop. Call Run to start executing tasks.
func NewLoop(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post enqueues fn. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks until ctx is cancelled or Close is called. Tasks still
// queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.exec(fn)
		}

		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.notify:
		}
	}
}

// RunPending executes queued tasks on the calling goroutine until the queue
// is empty, including tasks posted while draining. It must not be used
// concurrently with Run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		l.exec(fn)
		n++
	}
}

// Close stops the loop and rejects further posts
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
}

// Closed reports whether Close has been called
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Dispatch loop task panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
