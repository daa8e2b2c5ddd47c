package bridge

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reply is the completion handle for one request. The first Succeed or Fail
// settles it; later calls and any Progress after settlement are ignored.
// Emissions are queued in call order, so progress always precedes the
// completion it belongs to.
type Reply struct {
	eventID  string
	channel  Channel
	emitter  Emitter
	post     func(func()) bool
	observer Observer
	logger   *zap.Logger
	started  time.Time

	mu      sync.Mutex
	settled bool
}

// ReplyOption configures a standalone Reply
type ReplyOption func(*Reply)

// ReplyOnLoop queues emissions on loop instead of emitting inline
func ReplyOnLoop(loop *Loop) ReplyOption {
	return func(r *Reply) {
		if loop != nil {
			r.post = loop.Post
		}
	}
}

// ReplyLogger sets the logger used for emitter failures
func ReplyLogger(logger *zap.Logger) ReplyOption {
	return func(r *Reply) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReply builds a reply for eventID on ch. Without ReplyOnLoop emissions
// happen synchronously on the settling goroutine.
func NewReply(eventID string, ch Channel, emitter Emitter, opts ...ReplyOption) *Reply {
	r := &Reply{
		eventID:  eventID,
		channel:  ch,
		emitter:  emitter,
		post:     inline,
		observer: nopObserver{},
		logger:   zap.NewNop(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func inline(fn func()) bool {
	fn()
	return true
}

// EventID returns the request's correlation identifier
func (r *Reply) EventID() string { return r.eventID }

// Channel returns the channel the request arrived on
func (r *Reply) Channel() Channel { return r.channel }

// Succeed settles the request with isSuccess=true
func (r *Reply) Succeed(data Data) {
	r.settle(true, data)
}

// Fail settles the request with isSuccess=false and {"message": msg}
func (r *Reply) Fail(msg string) {
	r.settle(false, Message(msg))
}

// FailWith settles the request with isSuccess=false and an arbitrary payload
func (r *Reply) FailWith(data Data) {
	r.settle(false, data)
}

// Error settles the request as a failure carrying err's text
func (r *Reply) Error(err error) {
	r.Fail(err.Error())
}

// Progress reports a completion fraction, clamped to [0, 1]
func (r *Reply) Progress(fraction float64) {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return
	}
	r.post(func() {
		if err := r.emitter.EmitProgress(r.eventID, fraction); err != nil {
			r.logger.Warn("Failed to emit progress",
				zap.String("channel", r.channel.String()),
				zap.String("event_id", r.eventID),
				zap.Error(err))
			return
		}
		r.observer.ProgressEmitted(r.channel)
	})
}

// Settled reports whether a completion has been issued
func (r *Reply) Settled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settled
}

// Then queues fn behind everything already emitted for this request. It is
// how a handler acts after its completion has been delivered.
func (r *Reply) Then(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.post(fn)
}

func (r *Reply) settle(success bool, data Data) {
	if data == nil {
		data = Data{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		r.logger.Debug("Ignoring completion for settled request",
			zap.String("channel", r.channel.String()),
			zap.String("event_id", r.eventID))
		return
	}
	r.settled = true
	elapsed := time.Since(r.started)

	r.post(func() {
		if err := r.emitter.EmitDone(r.eventID, success, data); err != nil {
			r.logger.Warn("Failed to emit completion",
				zap.String("channel", r.channel.String()),
				zap.String("event_id", r.eventID),
				zap.Error(err))
		}
		r.observer.RequestSettled(r.channel, success, elapsed)
	})
}
