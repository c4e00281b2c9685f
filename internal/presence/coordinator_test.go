package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
	"github.com/MoadE2002/healthcare-sub000/internal/store"
)

type fakeConn struct {
	id string

	mu   sync.Mutex
	envs []protocol.Envelope
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envs = append(c.envs, env)
	return nil
}

func (c *fakeConn) received() []protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Envelope(nil), c.envs...)
}

type fakeNotifications struct {
	mu      sync.Mutex
	created []*store.Notification
	err     error
}

func (s *fakeNotifications) Create(ctx context.Context, n *store.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

func (s *fakeNotifications) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

func newTestCoordinator(st NotificationCreator) *Coordinator {
	if st == nil {
		st = &fakeNotifications{}
	}
	return NewCoordinator(zap.NewNop(), NewRegistry(), st)
}

func TestRegisterLastWriteWins(t *testing.T) {
	c := newTestCoordinator(nil)
	old := &fakeConn{id: "h1"}
	cur := &fakeConn{id: "h2"}

	c.Register("doctor-1", old)
	c.Register("doctor-1", cur)

	c.SendCall("apt-42", "patient-1", "doctor-1")

	if len(old.received()) != 0 {
		t.Fatalf("stale handle received %d messages, want 0", len(old.received()))
	}
	envs := cur.received()
	if len(envs) != 1 || envs[0].Type != protocol.TypeSendCall {
		t.Fatalf("current handle got %+v, want one send-call", envs)
	}

	var invite protocol.CallInvite
	if err := json.Unmarshal(envs[0].Payload, &invite); err != nil {
		t.Fatal(err)
	}
	if invite.RoomID != "apt-42" || invite.SenderID != "patient-1" {
		t.Fatalf("invite = %+v", invite)
	}
	if invite.ReceiverID != "" {
		t.Fatalf("receiver id leaked to callee: %q", invite.ReceiverID)
	}
}

func TestSendCallToUnregisteredUserIsSilent(t *testing.T) {
	c := newTestCoordinator(nil)
	c.SendCall("apt-42", "patient-1", "nobody")
	// No panic, no delivery: nothing to assert beyond survival.
}

func TestUnregisterIgnoresStaleHandle(t *testing.T) {
	c := newTestCoordinator(nil)
	old := &fakeConn{id: "h1"}
	cur := &fakeConn{id: "h2"}

	c.Register("doctor-1", old)
	c.Register("doctor-1", cur)
	c.Unregister("doctor-1", old) // delayed close of the replaced tab

	c.SendCall("apt-42", "patient-1", "doctor-1")
	if len(cur.received()) != 1 {
		t.Fatalf("current handle got %d messages, want 1", len(cur.received()))
	}
}

func TestUnregisterClearsCurrentHandle(t *testing.T) {
	c := newTestCoordinator(nil)
	conn := &fakeConn{id: "h1"}

	c.Register("doctor-1", conn)
	c.Unregister("doctor-1", conn)

	c.SendCall("apt-42", "patient-1", "doctor-1")
	if len(conn.received()) != 0 {
		t.Fatalf("unregistered handle got %d messages, want 0", len(conn.received()))
	}
}

func TestRejectEmitsBothEventsToCaller(t *testing.T) {
	c := newTestCoordinator(nil)
	caller := &fakeConn{id: "h1"}
	c.Register("patient-1", caller)

	c.Reject("apt-42", "patient-1", "doctor-1")

	envs := caller.received()
	if len(envs) != 2 {
		t.Fatalf("caller got %d messages, want 2", len(envs))
	}
	if envs[0].Type != protocol.TypeRejectedCall || envs[1].Type != protocol.TypeRejected {
		t.Fatalf("event types = %s, %s", envs[0].Type, envs[1].Type)
	}
	var reason protocol.Reason
	if err := json.Unmarshal(envs[0].Payload, &reason); err != nil {
		t.Fatal(err)
	}
	if reason.Message == "" {
		t.Fatal("rejection carries no human-readable reason")
	}
}

func TestRejectWithOfflineCallerIsSilent(t *testing.T) {
	c := newTestCoordinator(nil)
	c.Reject("apt-42", "patient-1", "doctor-1")
}

func TestEndCallNotifiesRecipient(t *testing.T) {
	c := newTestCoordinator(nil)
	conn := &fakeConn{id: "h1"}
	c.Register("doctor-1", conn)

	c.EndCall("doctor-1", "patient-1")

	envs := conn.received()
	if len(envs) != 1 || envs[0].Type != protocol.TypeCallEnded {
		t.Fatalf("recipient got %+v, want one call-ended", envs)
	}
	var ended protocol.CallEnded
	if err := json.Unmarshal(envs[0].Payload, &ended); err != nil {
		t.Fatal(err)
	}
	if ended.UserID != "patient-1" {
		t.Fatalf("ended by = %q, want patient-1", ended.UserID)
	}
}

func TestPushNotificationLiveDelivery(t *testing.T) {
	st := &fakeNotifications{}
	c := newTestCoordinator(st)
	conn := &fakeConn{id: "h1"}
	c.Register("patient-1", conn)

	n := &store.Notification{
		UserID:  "patient-1",
		Type:    store.NotificationPrescriptionReady,
		Message: "Your prescription is ready",
	}
	if err := c.PushNotification(context.Background(), n); err != nil {
		t.Fatal(err)
	}

	if st.count() != 1 {
		t.Fatalf("persisted %d notifications, want 1", st.count())
	}
	envs := conn.received()
	if len(envs) != 1 || envs[0].Type != protocol.TypeNotification {
		t.Fatalf("live delivery = %+v, want one notification", envs)
	}
}

func TestPushNotificationOfflineIsPersistedOnly(t *testing.T) {
	st := &fakeNotifications{}
	c := newTestCoordinator(st)

	n := &store.Notification{
		UserID: "patient-1",
		Type:   store.NotificationAppointmentReminder,
	}
	if err := c.PushNotification(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	if st.count() != 1 {
		t.Fatalf("persisted %d notifications, want 1", st.count())
	}
}

func TestPushNotificationStoreFailure(t *testing.T) {
	st := &fakeNotifications{err: errors.New("db down")}
	c := newTestCoordinator(st)

	err := c.PushNotification(context.Background(), &store.Notification{UserID: "patient-1"})
	if err == nil {
		t.Fatal("expected error when store fails")
	}
}
