package ws

import (
	"errors"
	"testing"
)

type subscriberMock struct {
	sent    [][]byte
	sendErr error
	closed  bool
}

func (m *subscriberMock) Send(payload []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, payload)
	return nil
}

func (m *subscriberMock) Close() { m.closed = true }

func TestBroadcastReachesOnlySubscribedChannel(t *testing.T) {
	hub := NewHub()
	events := &subscriberMock{}
	logsSub := &subscriberMock{}
	hub.Register("events", events)
	hub.Register("logs", logsSub)

	hub.Broadcast("events", []byte(`{"reason":"BackOff"}`))

	if len(events.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(events.sent))
	}
	if len(logsSub.sent) != 0 {
		t.Fatalf("logs subscriber should not receive event broadcasts")
	}
}

func TestBroadcastDropsFailedSubscriber(t *testing.T) {
	hub := NewHub()
	healthy := &subscriberMock{}
	broken := &subscriberMock{sendErr: errors.New("connection reset")}
	hub.Register("logs", healthy)
	hub.Register("logs", broken)

	hub.Broadcast("logs", []byte("line"))
	if !broken.closed {
		t.Fatalf("failed subscriber should be closed")
	}

	hub.Broadcast("logs", []byte("line2"))
	if len(healthy.sent) != 2 {
		t.Fatalf("healthy subscriber expected 2 deliveries, got %d", len(healthy.sent))
	}
}

func TestUnregisterUnknownChannelIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Unregister("events", &subscriberMock{})

	client := &subscriberMock{}
	hub.Register("events", client)
	hub.Unregister("events", client)
	hub.Broadcast("events", []byte("x"))
	if len(client.sent) != 0 {
		t.Fatalf("unregistered client must not receive broadcasts")
	}
}
