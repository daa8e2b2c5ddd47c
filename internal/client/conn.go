package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

var ErrConnClosed = errors.New("bridge connection closed")

// Conn is a websocket session with a bridge host. Completion and progress
// frames are fed into the table; ready and navigate frames are exposed to
// the caller.
type Conn struct {
	ws     *websocket.Conn
	table  *Table
	logger *zap.Logger

	writeMu sync.Mutex

	readyOnce sync.Once
	ready     chan struct{}
	hello     bridge.Frame

	navigations chan string
	done        chan struct{}

	mu  sync.Mutex
	err error
}

// Dial opens a bridge session at url (ws:// or wss://)
func Dial(ctx context.Context, url string, table *Table, logger *zap.Logger) (*Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge: %w", err)
	}

	c := &Conn{
		ws:          ws,
		table:       table,
		logger:      logger,
		ready:       make(chan struct{}),
		navigations: make(chan string, 8),
		done:        make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Ready waits for the host's ready frame
func (c *Conn) Ready(ctx context.Context) (bridge.Frame, error) {
	select {
	case <-c.ready:
		return c.hello, nil
	case <-c.done:
		return bridge.Frame{}, c.Err()
	case <-ctx.Done():
		return bridge.Frame{}, ctx.Err()
	}
}

// Navigations streams URLs the host asked the page to load
func (c *Conn) Navigations() <-chan string { return c.navigations }

// Done is closed when the read loop ends
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the session
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Post sends a post frame carrying body on ch
func (c *Conn) Post(_ context.Context, ch bridge.Channel, body []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	payload, err := bridge.Marshal(bridge.Frame{Type: bridge.FramePost, Channel: ch.String(), Body: body})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// Close ends the session
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer close(c.navigations)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setErr(err)
			} else {
				c.setErr(ErrConnClosed)
			}
			return
		}

		var frame bridge.Frame
		if err := bridge.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("Ignoring malformed frame", zap.Error(err))
			continue
		}
		c.handle(frame)
	}
}

func (c *Conn) handle(frame bridge.Frame) {
	switch frame.Type {
	case bridge.FrameDone:
		success := frame.IsSuccess != nil && *frame.IsSuccess
		c.table.Resolve(frame.EventID, success, frame.Data)
	case bridge.FrameProgress:
		c.table.NotifyProgress(frame.EventID, frame.Fraction())
	case bridge.FrameReady:
		c.readyOnce.Do(func() {
			c.hello = frame
			close(c.ready)
		})
	case bridge.FrameNavigate:
		select {
		case c.navigations <- frame.URL:
		default:
			c.logger.Debug("Dropping navigation", zap.String("url", frame.URL))
		}
	default:
		c.logger.Debug("Ignoring frame", zap.String("type", string(frame.Type)))
	}
}

func (c *Conn) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}
