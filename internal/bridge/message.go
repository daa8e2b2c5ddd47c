package bridge

import (
	"encoding/json"
	"errors"
)

var (
	ErrMissingEventID = errors.New("message has no eventId")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrNoHandler      = errors.New("no plugin registered for channel")
)

// Data is the JSON object carried by a completion
type Data map[string]interface{}

// Message builds the conventional {"message": ...} payload
func Message(msg string) Data {
	return Data{"message": msg}
}

// Inbound is one postMessage call: the channel it was posted on and the raw
// JSON body ({...fields, eventId}).
type Inbound struct {
	Channel string
	Body    []byte
}

// EventID extracts the correlation identifier from the body. Only a
// non-empty JSON string counts.
func (m Inbound) EventID() (string, error) {
	var envelope struct {
		EventID interface{} `json:"eventId"`
	}
	if len(m.Body) == 0 {
		return "", ErrMissingEventID
	}
	if err := Unmarshal(m.Body, &envelope); err != nil {
		return "", ErrMissingEventID
	}
	id, ok := envelope.EventID.(string)
	if !ok || id == "" {
		return "", ErrMissingEventID
	}
	return id, nil
}

// FrameType discriminates websocket frames
type FrameType string

const (
	FramePost     FrameType = "post"
	FrameDone     FrameType = "done"
	FrameProgress FrameType = "progress"
	FrameReady    FrameType = "ready"
	FrameNavigate FrameType = "navigate"
)

// Frame is the websocket envelope used when the web view is a browser page
// (or a Go client) rather than an embedded script runtime.
type Frame struct {
	Type       FrameType       `json:"type"`
	Channel    string          `json:"channel,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	EventID    string          `json:"eventId,omitempty"`
	IsSuccess  *bool           `json:"isSuccess,omitempty"`
	Data       Data            `json:"data,omitempty"`
	Progress   *float64        `json:"progress,omitempty"`
	URL        string          `json:"url,omitempty"`
	Session    string          `json:"session,omitempty"`
	Channels   []string        `json:"channels,omitempty"`
	SystemInfo interface{}     `json:"systemInfo,omitempty"`
}

// Inbound converts a post frame into a dispatchable message
func (f Frame) Inbound() Inbound {
	return Inbound{Channel: f.Channel, Body: []byte(f.Body)}
}

// DoneFrame builds a completion frame
func DoneFrame(eventID string, success bool, data Data) Frame {
	if data == nil {
		data = Data{}
	}
	return Frame{Type: FrameDone, EventID: eventID, IsSuccess: &success, Data: data}
}

// ProgressFrame builds a progress frame. The fraction is always encoded,
// including zero.
func ProgressFrame(eventID string, fraction float64) Frame {
	return Frame{Type: FrameProgress, EventID: eventID, Progress: &fraction}
}

// Fraction returns the progress of a progress frame, zero when absent
func (f Frame) Fraction() float64 {
	if f.Progress == nil {
		return 0
	}
	return *f.Progress
}
