package client

import (
	"context"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

// Loopback posts requests straight into an in-process dispatcher. Pair it
// with a dispatcher whose emitter is the proxy's Table.
type Loopback struct {
	dispatcher *bridge.Dispatcher
	loop       *bridge.Loop
}

// NewLoopback creates a poster for d. With a loop, dispatch is queued on it;
// otherwise it runs on the caller's goroutine.
func NewLoopback(d *bridge.Dispatcher, loop *bridge.Loop) *Loopback {
	return &Loopback{dispatcher: d, loop: loop}
}

// Post dispatches body on ch. Synchronous dispatch reports drops as errors.
func (l *Loopback) Post(ctx context.Context, ch bridge.Channel, body []byte) error {
	msg := bridge.Inbound{Channel: ch.String(), Body: body}
	if l.loop == nil {
		return l.dispatcher.Dispatch(ctx, msg)
	}
	if !l.loop.Post(func() { _ = l.dispatcher.Dispatch(ctx, msg) }) {
		return bridge.ErrLoopClosed
	}
	return nil
}
