package event

import "strconv"

// ConnID identifies one accepted transport connection. IDs come from a
// process-wide counter and are never reused.
type ConnID uint64

func (id ConnID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Kind tags an Event.
type Kind uint8

const (
	KindConnect Kind = iota + 1
	KindDisconnect
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	case KindInput:
		return "input"
	}
	return "unknown"
}

// Event is one lifecycle or input notification from the transport.
// Payload is set only for KindInput and is the raw frame body.
type Event struct {
	Kind    Kind
	Conn    ConnID
	Payload []byte
}

func Connect(id ConnID) Event    { return Event{Kind: KindConnect, Conn: id} }
func Disconnect(id ConnID) Event { return Event{Kind: KindDisconnect, Conn: id} }

func Input(id ConnID, payload []byte) Event {
	return Event{Kind: KindInput, Conn: id, Payload: payload}
}
