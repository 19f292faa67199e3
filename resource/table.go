package resource

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrClosed    = errors.New("resource table closed")
	ErrNotFound  = errors.New("unknown handle")
	ErrWrongKind = errors.New("handle refers to a different resource kind")
)

type entry struct {
	value any
	kind  Kind
	valid bool
}

// Table is a concurrency-safe handle table with a free list.
type Table struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	live      int
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores value under a fresh handle.
func (t *Table) Insert(kind Kind, value any) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	e := entry{kind: kind, value: value, valid: true}
	var h Handle
	if n := len(t.freeList); n > 0 {
		h = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
	} else {
		t.entries = append(t.entries, e)
		h = Handle(len(t.entries))
	}
	t.live++
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Kind: kind, Value: value})
	return h, nil
}

// Get returns the value for h if it is live and of the given kind.
func (t *Table) Get(h Handle, kind Kind) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Remove frees h and returns its value. Dropper values are dropped.
func (t *Table) Remove(h Handle, kind Kind) (any, error) {
	t.mu.Lock()
	e, err := t.lookup(h, kind)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	value := e.value
	*e = entry{}
	t.freeList = append(t.freeList, h)
	t.live--
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDropped, Handle: h, Kind: kind, Value: value})
	return value, nil
}

// lookup must be called with mu held.
func (t *Table) lookup(h Handle, kind Kind) (*entry, error) {
	if t.closed {
		return nil, ErrClosed
	}
	if h == 0 || int(h) > len(t.entries) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, kind, h)
	}
	e := &t.entries[h-1]
	if !e.valid {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, kind, h)
	}
	if e.kind != kind {
		return nil, fmt.Errorf("%w: handle %d is %s, want %s", ErrWrongKind, h, e.kind, kind)
	}
	return e, nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Close drops every live value and rejects further use.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	entries := t.entries
	t.entries = nil
	t.freeList = nil
	t.live = 0
	t.mu.Unlock()

	for _, e := range entries {
		if !e.valid {
			continue
		}
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Lookup is Get with the value asserted to T.
func Lookup[T any](t *Table, h Handle, kind Kind) (T, error) {
	var zero T
	v, err := t.Get(h, kind)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: handle %d holds %T", ErrWrongKind, h, v)
	}
	return typed, nil
}
