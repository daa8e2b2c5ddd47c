package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDuplicatePlugin is returned when a channel already has a plugin
var ErrDuplicatePlugin = errors.New("plugin already exists")

// Plugin handles every request posted on its channel. Handle must settle
// the reply exactly once, either before returning or later from a goroutine.
type Plugin interface {
	Channel() Channel
	Handle(ctx context.Context, req Request, reply *Reply)
}

// HandlerFunc adapts a function to the Handle signature
type HandlerFunc func(ctx context.Context, req Request, reply *Reply)

type funcPlugin struct {
	channel Channel
	handle  HandlerFunc
}

// NewPlugin builds a plugin for ch from a function
func NewPlugin(ch Channel, fn HandlerFunc) Plugin {
	return &funcPlugin{channel: ch, handle: fn}
}

func (p *funcPlugin) Channel() Channel { return p.channel }

func (p *funcPlugin) Handle(ctx context.Context, req Request, reply *Reply) {
	p.handle(ctx, req, reply)
}

// Registry holds plugins keyed by channel, in registration order
type Registry struct {
	mu      sync.RWMutex
	order   []Channel
	plugins map[Channel]Plugin
	logger  *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		plugins: make(map[Channel]Plugin),
		logger:  logger,
	}
}

// Register adds p. A second plugin for the same channel is rejected and the
// first one stays in place.
func (r *Registry) Register(p Plugin) error {
	ch := p.Channel()
	if !ch.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, ch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[ch]; exists {
		r.logger.Warn("Plugin already exists", zap.String("channel", ch.String()))
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, ch)
	}

	r.plugins[ch] = p
	r.order = append(r.order, ch)
	r.logger.Debug("Registered plugin", zap.String("channel", ch.String()))
	return nil
}

// RegisterAll registers each plugin, collecting every rejection
func (r *Registry) RegisterAll(plugins ...Plugin) error {
	var errs []error
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the plugin registered for ch
func (r *Registry) Lookup(ch Channel) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[ch]
	return p, ok
}

// Channels returns registered channels in registration order
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns registered channel names in registration order
func (r *Registry) Names() []string {
	channels := r.Channels()
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.String()
	}
	return names
}

// Len returns the number of registered plugins
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
