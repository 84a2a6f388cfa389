package resource

import (
	"reflect"
	"sync"
)

// UnifiedTable implements the Table interface using a LocalBackend for storage.
type UnifiedTable struct {
	backend   *LocalBackend
	observers map[uint64]Observer
	nextObs   uint64
	obsMu     sync.RWMutex
}

var _ Table = (*UnifiedTable)(nil)

// NewTable creates a new unified table with a LocalBackend.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		backend:   NewLocalBackend(),
		observers: make(map[uint64]Observer),
	}
}

// Insert adds a value and returns its handle.
func (t *UnifiedTable) Insert(tag string, value any) Handle {
	handle := t.backend.Create(tag, value)

	t.notify(Event{
		Type:   EventAnchored,
		Handle: handle,
		Tag:    tag,
		Value:  value,
	})

	return handle
}

// Remove drops an entry and returns (value, true) if found. When the removed
// entry was the last one holding value, a Dropper value is dropped.
func (t *UnifiedTable) Remove(handle Handle) (any, bool) {
	tag, _ := t.backend.Tag(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok && t.Count(value) == 0 {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventReleased,
		Handle: handle,
		Tag:    tag,
		Value:  value,
	})

	return value, true
}

// Count returns how many live entries hold value.
func (t *UnifiedTable) Count(value any) int {
	if value == nil || !reflect.TypeOf(value).Comparable() {
		return 0
	}
	n := 0
	t.backend.Each(func(_ Handle, _ string, v any) bool {
		if v != nil && reflect.TypeOf(v) == reflect.TypeOf(value) && v == value {
			n++
		}
		return true
	})
	return n
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) (cancel func()) {
	t.obsMu.Lock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = o
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		delete(t.observers, id)
		t.obsMu.Unlock()
	}
}

// Len returns the number of live entries.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
