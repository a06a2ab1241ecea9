package resource

import (
	"slices"
	"sync"
)

// Table maps handles to host objects of mixed kinds. It is safe for
// concurrent use. Droppers and observers run outside the table lock, so
// they may call back into the table.
type Table struct {
	mu        sync.Mutex
	slots     slots
	closed    bool
	observers []Observer
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Insert adds a value and returns its handle. It returns 0 after Close or
// when MaxLive entries are already held.
func (t *Table) Insert(kind Kind, value any) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}
	h, ok := t.slots.put(kind, value)
	obs := t.observers
	t.mu.Unlock()

	if !ok {
		return 0
	}
	notify(obs, Event{Type: EventCreated, Handle: h, Kind: kind, Value: value})
	return h
}

// Get resolves a handle of any kind.
func (t *Table) Get(h Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.slots.lookup(h); e != nil {
		return e.value, true
	}
	return nil, false
}

// GetTyped resolves a handle only if it was inserted with kind.
func (t *Table) GetTyped(h Handle, kind Kind) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.slots.lookup(h); e != nil && e.kind == kind {
		return e.value, true
	}
	return nil, false
}

// KindOf returns the kind of a live handle.
func (t *Table) KindOf(h Handle) (Kind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.slots.lookup(h); e != nil {
		return e.kind, true
	}
	return 0, false
}

// Remove releases an entry and runs its Dropper.
func (t *Table) Remove(h Handle) (any, bool) {
	return t.release(h, 0, true)
}

// Take moves an entry out of the table without running its Dropper.
func (t *Table) Take(h Handle) (any, bool) {
	return t.release(h, 0, false)
}

// release vacates h. A non-zero kind restricts the release to that kind.
func (t *Table) release(h Handle, kind Kind, drop bool) (any, bool) {
	t.mu.Lock()
	if e := t.slots.lookup(h); e == nil || (kind != 0 && e.kind != kind) {
		t.mu.Unlock()
		return nil, false
	}
	value, k, _ := t.slots.vacate(h)
	obs := t.observers
	t.mu.Unlock()

	ev := EventTaken
	if drop {
		if d, ok := value.(Dropper); ok {
			d.Drop()
		}
		ev = EventDropped
	}
	notify(obs, Event{Type: ev, Handle: h, Kind: k, Value: value})
	return value, true
}

// Subscribe adds an observer.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(slices.Clip(t.observers), o)
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots.live
}

// Each iterates over a snapshot of the live entries.
func (t *Table) Each(fn func(Handle, Kind, any) bool) {
	type item struct {
		h Handle
		k Kind
		v any
	}
	t.mu.Lock()
	items := make([]item, 0, t.slots.live)
	t.slots.each(func(h Handle, e *slot) bool {
		items = append(items, item{h, e.kind, e.value})
		return true
	})
	t.mu.Unlock()

	for _, it := range items {
		if !fn(it.h, it.k, it.v) {
			return
		}
	}
}

// Close stops accepting inserts and removes every live entry. Values that
// implement Dropper are finalized. Close is idempotent.
func (t *Table) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	var handles []Handle
	t.Each(func(h Handle, _ Kind, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Closed reports whether Close has been called.
func (t *Table) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func notify(obs []Observer, e Event) {
	for _, o := range obs {
		o.OnResourceEvent(e)
	}
}
