package bridge

import (
	"fmt"
	"strconv"
)

// Emitter delivers results back to the web content view
type Emitter interface {
	EmitDone(eventID string, success bool, data Data) error
	EmitProgress(eventID string, fraction float64) error
}

// ScriptEmitter delivers results by evaluating script in the view, the way
// an embedded web view is driven.
type ScriptEmitter struct {
	Eval func(script string) error
}

// EmitDone evaluates native.done(...) for eventID
func (e ScriptEmitter) EmitDone(eventID string, success bool, data Data) error {
	script, err := DoneScript(eventID, success, data)
	if err != nil {
		return err
	}
	return e.Eval(script)
}

// EmitProgress evaluates native.progress(...) for eventID
func (e ScriptEmitter) EmitProgress(eventID string, fraction float64) error {
	script, err := ProgressScript(eventID, fraction)
	if err != nil {
		return err
	}
	return e.Eval(script)
}

// DoneScript renders the completion call for eventID
func DoneScript(eventID string, success bool, data Data) (string, error) {
	if data == nil {
		data = Data{}
	}
	id, err := Marshal(eventID)
	if err != nil {
		return "", fmt.Errorf("encode event id: %w", err)
	}
	payload, err := Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode completion data: %w", err)
	}
	return fmt.Sprintf("native.done(%s, %t, %s);", id, success, payload), nil
}

// ProgressScript renders the progress call for eventID
func ProgressScript(eventID string, fraction float64) (string, error) {
	id, err := Marshal(eventID)
	if err != nil {
		return "", fmt.Errorf("encode event id: %w", err)
	}
	return fmt.Sprintf("native.progress(%s, %s);", id, strconv.FormatFloat(fraction, 'f', -1, 64)), nil
}
