package resource

// Handle is an opaque reference to a value in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Kind identifies what a handle refers to.
type Kind uint8

const (
	KindFields Kind = iota + 1
	KindOutgoingRequest
	KindFutureResponse
	KindIncomingResponse
	KindInputStream
	KindOutputStream
	KindPollable
)

func (k Kind) String() string {
	switch k {
	case KindFields:
		return "fields"
	case KindOutgoingRequest:
		return "outgoing-request"
	case KindFutureResponse:
		return "future-incoming-response"
	case KindIncomingResponse:
		return "incoming-response"
	case KindInputStream:
		return "input-stream"
	case KindOutputStream:
		return "output-stream"
	case KindPollable:
		return "pollable"
	default:
		return "unknown"
	}
}

// EventType is the kind of lifecycle change an Event reports.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is optionally implemented by values that need cleanup.
type Dropper interface {
	Drop()
}
