// Package bridgetest provides helpers for testing bridge plugins.
package bridgetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

// Kind of a recorded emission
type Kind string

const (
	KindDone     Kind = "done"
	KindProgress Kind = "progress"
)

// Event is one recorded emission
type Event struct {
	Kind     Kind
	EventID  string
	Success  bool
	Data     bridge.Data
	Progress float64
}

// Recorder is an in-memory bridge.Emitter
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) EmitDone(eventID string, success bool, data bridge.Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: KindDone, EventID: eventID, Success: success, Data: data})
	return nil
}

func (r *Recorder) EmitProgress(eventID string, fraction float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: KindProgress, EventID: eventID, Progress: fraction})
	return nil
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Done returns the completion recorded for eventID
func (r *Recorder) Done(eventID string) (Event, bool) {
	for _, e := range r.Events() {
		if e.Kind == KindDone && e.EventID == eventID {
			return e, true
		}
	}
	return Event{}, false
}

// DoneCount returns how many completions were recorded for eventID
func (r *Recorder) DoneCount(eventID string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == KindDone && e.EventID == eventID {
			n++
		}
	}
	return n
}

// Progress returns the progress fractions recorded for eventID, in order
func (r *Recorder) Progress(eventID string) []float64 {
	var out []float64
	for _, e := range r.Events() {
		if e.Kind == KindProgress && e.EventID == eventID {
			out = append(out, e.Progress)
		}
	}
	return out
}

// WaitDone blocks until eventID completes or the timeout expires
func (r *Recorder) WaitDone(t testing.TB, eventID string, timeout time.Duration) Event {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := r.Done(eventID)
		return ok
	}, timeout, 5*time.Millisecond, "no completion for %s", eventID)
	e, _ := r.Done(eventID)
	return e
}

// Invoke runs plugin against req with a synchronous reply and returns the
// recorder that captures its emissions.
func Invoke(ctx context.Context, plugin bridge.Plugin, eventID string, req bridge.Request) (*Recorder, *bridge.Reply) {
	rec := NewRecorder()
	reply := bridge.NewReply(eventID, plugin.Channel(), rec)
	plugin.Handle(ctx, req, reply)
	return rec, reply
}
