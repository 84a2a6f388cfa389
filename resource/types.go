package resource

// Handle is an opaque reference to an entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for anchor lifecycle notifications.
type EventType uint8

const (
	EventAnchored EventType = iota
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventAnchored:
		return "anchored"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event represents an anchor lifecycle event.
type Event struct {
	Value  any
	Tag    string
	Handle Handle
	Type   EventType
}

// Observer receives notifications about anchor lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Table keeps values strongly reachable until they are removed.
type Table interface {
	// Insert adds a value and returns its handle.
	Insert(tag string, value any) Handle

	// Remove drops an entry and returns (value, true) if found.
	Remove(handle Handle) (any, bool)

	// Count returns how many live entries hold value.
	Count(value any) int

	// Subscribe adds an observer for lifecycle events and returns a function
	// that removes it again.
	Subscribe(o Observer) (cancel func())

	// Len returns the number of live entries.
	Len() int
}

// Dropper is optionally implemented by values that need cleanup when their
// last anchor is released.
type Dropper interface {
	Drop()
}
