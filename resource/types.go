package resource

import "fmt"

// Handle is an opaque reference to a host object in a table. The low bits
// select a slot and the high bits carry the slot generation, so a handle
// that outlived its entry never resolves to a later occupant of the slot.
// Handle 0 is reserved and always invalid.
type Handle uint32

const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
	// MaxLive is the number of entries a table can hold at once.
	MaxLive   = indexMask
)

func makeHandle(index uint32, gen uint8) Handle {
	return Handle(uint32(gen)<<indexBits | index)
}

func (h Handle) index() uint32 { return uint32(h) & indexMask }

func (h Handle) generation() uint8 { return uint8(uint32(h) >> indexBits) }

func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.index(), h.generation())
}

// Kind identifies what sort of object a handle refers to.
type Kind uint8

// Kinds of host objects that cross the engine boundary.
const (
	// KindPendingResponse is a response capability awaiting its reply.
	KindPendingResponse Kind = iota + 1
	// KindEngineContext is the engine instance behind a native callback's user data.
	KindEngineContext
)

func (k Kind) String() string {
	switch k {
	case KindPendingResponse:
		return "pending-response"
	case KindEngineContext:
		return "engine-context"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// EventType enumerates lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	// EventDropped means the entry was released and its Dropper ran.
	EventDropped
	// EventTaken means ownership left the table without running the Dropper.
	EventTaken
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives lifecycle events. Events are delivered after the table
// lock is released, in the order the operations completed.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is implemented by values that must be finalized when the table
// releases them instead of their owner taking them out.
type Dropper interface {
	Drop()
}

// TypedTable is a view of a Table restricted to one kind.
type TypedTable[T any] interface {
	// Insert adds a value and returns its handle, or 0 once the table is closed.
	Insert(value T) Handle

	// Get resolves a handle of this kind.
	Get(handle Handle) (T, bool)

	// Remove releases an entry of this kind, running its Dropper.
	Remove(handle Handle) (T, bool)

	// Take moves an entry of this kind out without running its Dropper.
	Take(handle Handle) (T, bool)

	// Len returns the number of live entries of this kind.
	Len() int

	// Each iterates over live entries of this kind.
	Each(func(Handle, T) bool)
}
