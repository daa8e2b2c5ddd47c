package client

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

var ErrDuplicateEventID = errors.New("event id already registered")

// ExpiredMessage is the failure message of entries settled by Sweep
const ExpiredMessage = "request expired"

// NewEventID returns a fresh request identifier: "_" followed by a random
// UUID with dashes replaced by underscores.
func NewEventID() string {
	return "_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// Callbacks are the web-side continuations of one request. Any may be nil.
type Callbacks struct {
	OnSuccess  func(data bridge.Data)
	OnFailure  func(data bridge.Data)
	OnSettled  func()
	OnProgress func(fraction float64)
}

type entry struct {
	callbacks Callbacks
	created   time.Time
	settling  bool
}

// Table correlates pending requests with their callbacks
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// TableOption configures a Table
type TableOption func(*Table)

// WithTTL lets Sweep expire entries older than ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) TableOption {
	return func(t *Table) {
		t.ttl = ttl
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) TableOption {
	return func(t *Table) {
		t.now = now
	}
}

// NewTable creates an empty table
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register records callbacks for id
func (t *Table) Register(id string, cb Callbacks) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[id]; exists {
		return ErrDuplicateEventID
	}
	t.entries[id] = &entry{callbacks: cb, created: t.now()}
	return nil
}

// Resolve runs the success or failure callback for id, then the settled
// callback, then removes the entry. Unknown or already-resolving ids are
// ignored. It reports whether callbacks ran.
func (t *Table) Resolve(id string, success bool, data bridge.Data) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.settling {
		t.mu.Unlock()
		return false
	}
	e.settling = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.entries, id)
		t.mu.Unlock()
	}()

	if data == nil {
		data = bridge.Data{}
	}
	cb := e.callbacks
	if success {
		if cb.OnSuccess != nil {
			cb.OnSuccess(data)
		}
	} else if cb.OnFailure != nil {
		cb.OnFailure(data)
	}
	if cb.OnSettled != nil {
		cb.OnSettled()
	}
	return true
}

// NotifyProgress forwards fraction to the progress callback of id. Unknown
// ids, resolving entries and entries without a progress callback are
// ignored.
func (t *Table) NotifyProgress(id string, fraction float64) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.settling || e.callbacks.OnProgress == nil {
		t.mu.Unlock()
		return false
	}
	fn := e.callbacks.OnProgress
	t.mu.Unlock()

	fn(fraction)
	return true
}

// Has reports whether id is pending
func (t *Table) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// Len returns the number of pending entries
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep fails every entry older than the configured TTL with
// ExpiredMessage and returns how many it settled. Without a TTL it does
// nothing.
func (t *Table) Sweep() int {
	if t.ttl <= 0 {
		return 0
	}

	cutoff := t.now().Add(-t.ttl)
	var expired []string
	t.mu.Lock()
	for id, e := range t.entries {
		if !e.settling && e.created.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	t.mu.Unlock()

	n := 0
	for _, id := range expired {
		if t.Resolve(id, false, bridge.Message(ExpiredMessage)) {
			n++
		}
	}
	return n
}

// EmitDone lets the table act as an in-process emitter
func (t *Table) EmitDone(eventID string, success bool, data bridge.Data) error {
	t.Resolve(eventID, success, data)
	return nil
}

// EmitProgress lets the table act as an in-process emitter
func (t *Table) EmitProgress(eventID string, fraction float64) error {
	t.NotifyProgress(eventID, fraction)
	return nil
}

func (t *Table) discard(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok && !e.settling {
		delete(t.entries, id)
	}
}
