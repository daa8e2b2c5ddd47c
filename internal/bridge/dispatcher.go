package bridge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Dispatcher routes inbound messages to registered plugins
type Dispatcher struct {
	registry *Registry
	emitter  Emitter
	loop     *Loop
	logger   *zap.Logger
	observer Observer
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLoop queues every emission on loop
func WithLoop(loop *Loop) Option {
	return func(d *Dispatcher) {
		d.loop = loop
	}
}

// WithLogger sets the dispatcher logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver reports dispatch events to o
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// NewDispatcher creates a dispatcher over reg that replies through emitter
func NewDispatcher(reg *Registry, emitter Emitter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		emitter:  emitter,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the plugin registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch routes msg to its plugin. Messages without an eventId, on
// unknown channels, or on channels without a plugin are dropped, checked in
// that order: nothing is sent to the page and the returned error says why.
// Every other outcome, including invalid payloads and handler panics,
// becomes a completion.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Inbound) error {
	eventID, err := msg.EventID()
	if err != nil {
		return d.drop(msg.Channel, DropMissingEventID, err)
	}

	ch, ok := ParseChannel(msg.Channel)
	if !ok {
		return d.drop(msg.Channel, DropUnknownChannel, fmt.Errorf("%w: %s", ErrUnknownChannel, msg.Channel))
	}

	plugin, ok := d.registry.Lookup(ch)
	if !ok {
		return d.drop(msg.Channel, DropNoHandler, fmt.Errorf("%w: %s", ErrNoHandler, ch))
	}

	reply := &Reply{
		eventID:  eventID,
		channel:  ch,
		emitter:  d.emitter,
		post:     inline,
		observer: d.observer,
		logger:   d.logger,
	}
	if d.loop != nil {
		reply.post = d.loop.Post
	}
	reply.started = time.Now()
	d.observer.RequestDispatched(ch)

	req, err := DecodeRequest(ch, msg.Body)
	if err != nil {
		d.logger.Debug("Rejected request",
			zap.String("channel", ch.String()),
			zap.String("event_id", eventID),
			zap.Error(err))
		reply.Fail(err.Error())
		return nil
	}

	d.invoke(ctx, plugin, req, reply)
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, plugin Plugin, req Request, reply *Reply) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Plugin panicked",
				zap.String("channel", reply.channel.String()),
				zap.String("event_id", reply.eventID),
				zap.Any("panic", r))
			reply.Fail(fmt.Sprintf("%s failed: %v", reply.channel, r))
		}
	}()
	plugin.Handle(ctx, req, reply)
}

func (d *Dispatcher) drop(channel, reason string, err error) error {
	d.logger.Warn("Dropped message",
		zap.String("channel", channel),
		zap.String("reason", reason),
		zap.Error(err))
	d.observer.MessageDropped(channel, reason)
	return err
}
