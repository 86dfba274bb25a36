package poker

// Transport delivers coordinator output. Implementations are called while the
// coordinator lock is held and must not block or call back into the
// coordinator.
type Transport interface {
	// Broadcast sends to every connection attached to roomID.
	Broadcast(roomID, event string, payload any)
	// Send sends to a single connection.
	Send(connID, event string, payload any)
	Attach(connID, roomID string)
	Detach(connID, roomID string)
}

type deliveryKind int

const (
	deliverBroadcast deliveryKind = iota
	deliverUnicast
	deliverAttach
	deliverDetach
)

type delivery struct {
	kind    deliveryKind
	target  string // room id for broadcasts, connection id otherwise
	roomID  string
	event   string
	payload any
}

// outbox collects the deliveries produced by one operation, in order.
type outbox []delivery

func (o *outbox) broadcast(roomID, event string, payload any) {
	*o = append(*o, delivery{kind: deliverBroadcast, target: roomID, event: event, payload: payload})
}

func (o *outbox) unicast(connID, event string, payload any) {
	*o = append(*o, delivery{kind: deliverUnicast, target: connID, event: event, payload: payload})
}

func (o *outbox) attach(connID, roomID string) {
	*o = append(*o, delivery{kind: deliverAttach, target: connID, roomID: roomID})
}

func (o *outbox) detach(connID, roomID string) {
	*o = append(*o, delivery{kind: deliverDetach, target: connID, roomID: roomID})
}

func (o outbox) flush(t Transport) {
	if t == nil {
		return
	}
	for _, d := range o {
		switch d.kind {
		case deliverBroadcast:
			t.Broadcast(d.target, d.event, d.payload)
		case deliverUnicast:
			t.Send(d.target, d.event, d.payload)
		case deliverAttach:
			t.Attach(d.target, d.roomID)
		case deliverDetach:
			t.Detach(d.target, d.roomID)
		}
	}
}
