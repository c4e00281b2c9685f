package presence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MoadE2002/healthcare-sub000/internal/metrics"
	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
	"github.com/MoadE2002/healthcare-sub000/internal/store"
)

// NotificationCreator persists notifications for offline retrieval.
type NotificationCreator interface {
	Create(ctx context.Context, n *store.Notification) error
}

// Coordinator brokers the call-ringing handshake and fans out notifications
// to specific users by identity, independent of any call room. It runs on the
// authenticated notification channel; the signaling broker is a separate,
// unauthenticated endpoint.
type Coordinator struct {
	logger        *zap.Logger
	registry      *Registry
	notifications NotificationCreator
}

func NewCoordinator(logger *zap.Logger, registry *Registry, notifications NotificationCreator) *Coordinator {
	return &Coordinator{
		logger:        logger,
		registry:      registry,
		notifications: notifications,
	}
}

// Register records the user's current connection handle.
func (c *Coordinator) Register(userID string, conn Conn) {
	c.registry.Register(userID, conn)
	c.logger.Info("user registered", zap.String("user", userID), zap.String("conn", conn.ID()))
}

// Unregister clears the user's handle on disconnect.
func (c *Coordinator) Unregister(userID string, conn Conn) {
	c.registry.Unregister(userID, conn)
}

// SendCall rings the callee with {roomId, senderId}. An offline callee is a
// normal outcome: the invitation is dropped without error and, unlike general
// notifications, is never queued.
func (c *Coordinator) SendCall(roomID, callerID, calleeID string) {
	conn, ok := c.registry.Lookup(calleeID)
	if !ok {
		metrics.CallInviteMissesTotal.Inc()
		c.logger.Info("callee offline, invitation dropped",
			zap.String("room", roomID),
			zap.String("callee", calleeID),
		)
		return
	}

	c.emit(conn, protocol.TypeSendCall, protocol.CallInvite{RoomID: roomID, SenderID: callerID})
	metrics.CallInvitesTotal.Inc()
	c.logger.Info("call invitation sent",
		zap.String("room", roomID),
		zap.String("caller", callerID),
		zap.String("callee", calleeID),
	)
}

// Reject informs the caller that the callee declined. Acceptance never goes
// through here; an accepting callee simply joins the signaling room.
func (c *Coordinator) Reject(roomID, callerID, deciderID string) {
	conn, ok := c.registry.Lookup(callerID)
	if !ok {
		return
	}

	reason := protocol.Reason{Message: "Your call was declined."}
	c.emit(conn, protocol.TypeRejectedCall, reason)
	c.emit(conn, protocol.TypeRejected, reason)
	c.logger.Info("call rejected",
		zap.String("room", roomID),
		zap.String("caller", callerID),
		zap.String("decliner", deciderID),
	)
}

// EndCall tells the recipient's client that the call is over so it can tear
// down and navigate away, even if the room broadcast did not reach it.
func (c *Coordinator) EndCall(recipientID, endedBy string) {
	conn, ok := c.registry.Lookup(recipientID)
	if !ok {
		return
	}
	c.emit(conn, protocol.TypeCallEnded, protocol.CallEnded{UserID: endedBy, Reason: "call ended"})
}

// PushNotification persists the notification and, when the user is currently
// registered, live-emits it. An offline user finds it later through the REST
// listing.
func (c *Coordinator) PushNotification(ctx context.Context, n *store.Notification) error {
	if err := c.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	conn, ok := c.registry.Lookup(n.UserID)
	if !ok {
		metrics.NotificationsTotal.WithLabelValues("stored").Inc()
		return nil
	}

	c.emit(conn, protocol.TypeNotification, n)
	metrics.NotificationsTotal.WithLabelValues("live").Inc()
	return nil
}

func (c *Coordinator) emit(conn Conn, outType string, payload any) {
	env, err := protocol.NewEnvelope(outType, payload)
	if err != nil {
		c.logger.Error("marshal outbound payload", zap.String("event", outType), zap.Error(err))
		return
	}
	if err := conn.Send(env); err != nil {
		c.logger.Warn("send failed", zap.String("conn", conn.ID()), zap.Error(err))
	}
}
