package bridge

import "time"

// Drop reasons reported to an Observer
const (
	DropMissingEventID = "missing_event_id"
	DropUnknownChannel = "unknown_channel"
	DropNoHandler      = "no_handler"
)

// Observer receives dispatch lifecycle events. The monitoring package
// implements it with Prometheus collectors.
type Observer interface {
	MessageDropped(channel, reason string)
	RequestDispatched(ch Channel)
	RequestSettled(ch Channel, success bool, elapsed time.Duration)
	ProgressEmitted(ch Channel)
}

type nopObserver struct{}

func (nopObserver) MessageDropped(string, string) {}
func (nopObserver) RequestDispatched(Channel) {}
func (nopObserver) RequestSettled(Channel, bool, time.Duration) {}
func (nopObserver) ProgressEmitted(Channel) {}
