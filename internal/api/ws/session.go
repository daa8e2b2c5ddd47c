package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcontainer/internal/providers/relaunch"
	"github.com/GriffinCanCode/webcontainer/internal/providers/sqlite"
	"github.com/GriffinCanCode/webcontainer/internal/shared/id"
)

// session is one browser view. It is the dispatcher's emitter and the
// reLaunch navigator.
type session struct {
	id         id.SessionID
	conn       *websocket.Conn
	slot       *sqlite.Slot
	loop       *bridge.Loop
	dispatcher *bridge.Dispatcher
	metrics    *monitoring.Metrics
	logger     *zap.Logger

	writeMu sync.Mutex
}

func (s *session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var frame bridge.Frame
		if err := bridge.Unmarshal(data, &frame); err != nil {
			s.logger.Warn("Ignoring malformed frame", zap.Error(err))
			s.metrics.RecordWSMessage("in", "malformed")
			continue
		}
		s.metrics.RecordWSMessage("in", string(frame.Type))

		if frame.Type != bridge.FramePost {
			s.logger.Debug("Ignoring frame", zap.String("type", string(frame.Type)))
			continue
		}

		msg := frame.Inbound()
		if !s.loop.Post(func() { _ = s.dispatcher.Dispatch(ctx, msg) }) {
			return
		}
	}
}

// EmitDone sends a completion frame
func (s *session) EmitDone(eventID string, success bool, data bridge.Data) error {
	return s.write(bridge.DoneFrame(eventID, success, data))
}

// EmitProgress sends a progress frame
func (s *session) EmitProgress(eventID string, fraction float64) error {
	return s.write(bridge.ProgressFrame(eventID, fraction))
}

// Navigate asks the page to load target
func (s *session) Navigate(_ context.Context, target relaunch.Target) error {
	return s.write(bridge.Frame{Type: bridge.FrameNavigate, URL: target.URL})
}

func (s *session) write(frame bridge.Frame) error {
	payload, err := bridge.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	s.metrics.RecordWSMessage("out", string(frame.Type))
	return nil
}

func (s *session) close() {
	s.loop.Close()
	if err := s.slot.Shutdown(); err != nil {
		s.logger.Warn("Failed to close database", zap.Error(err))
	}
}
