package client

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

const progressBuffer = 64

// Result is the terminal outcome of a call
type Result struct {
	Success bool
	Data    bridge.Data
}

// Message returns the conventional message field, if any
func (r Result) Message() string {
	if msg, ok := r.Data["message"].(string); ok {
		return msg
	}
	return ""
}

// Err converts a failed result into an error
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if msg := r.Message(); msg != "" {
		return errors.New(msg)
	}
	return errors.New("request failed")
}

// Call is a pending request: a stream of progress fractions followed by one
// result.
type Call struct {
	id       string
	channel  bridge.Channel
	progress chan float64
	done     chan struct{}

	mu     sync.Mutex
	closed bool
	result Result
}

func newCall(id string, ch bridge.Channel) *Call {
	return &Call{
		id:       id,
		channel:  ch,
		progress: make(chan float64, progressBuffer),
		done:     make(chan struct{}),
	}
}

// EventID returns the request identifier
func (c *Call) EventID() string { return c.id }

// Channel returns the capability channel
func (c *Call) Channel() bridge.Channel { return c.channel }

// Progress streams progress fractions. The channel is closed once the call
// settles. Updates are dropped if the reader falls behind.
func (c *Call) Progress() <-chan float64 { return c.progress }

// Done is closed when the call settles
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait blocks until the call settles or ctx ends
func (c *Call) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (c *Call) callbacks() Callbacks {
	return Callbacks{
		OnSuccess:  func(data bridge.Data) { c.settle(true, data) },
		OnFailure:  func(data bridge.Data) { c.settle(false, data) },
		OnProgress: c.notify,
	}
}

func (c *Call) notify(fraction float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.progress <- fraction:
	default:
	}
}

func (c *Call) settle(success bool, data bridge.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.result = Result{Success: success, Data: data}
	close(c.progress)
	close(c.done)
}
