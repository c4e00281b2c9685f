package server

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/MoadE2002/healthcare-sub000/internal/presence"
	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
	"github.com/MoadE2002/healthcare-sub000/internal/signaling"
	"github.com/MoadE2002/healthcare-sub000/internal/store"
)

// bindCallChannel wires the room-signaling message set to the broker for one
// connection.
func bindCallChannel(c *Client, broker *signaling.Broker) {
	c.router.Register(protocol.TypeJoinRoom, func(payload json.RawMessage) error {
		var p protocol.JoinRoom
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.Join(p.RoomID, c)
		return nil
	})

	c.router.Register(protocol.TypeOffer, func(payload json.RawMessage) error {
		var p protocol.SessionDescription
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.Offer(p.RoomID, c, p.SDP)
		return nil
	})

	c.router.Register(protocol.TypeAnswer, func(payload json.RawMessage) error {
		var p protocol.SessionDescription
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.Answer(p.RoomID, c, p.SDP)
		return nil
	})

	c.router.Register(protocol.TypeIceCandidate, func(payload json.RawMessage) error {
		var p protocol.IceCandidate
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.IceCandidate(p.RoomID, c, p.Candidate)
		return nil
	})

	c.router.Register(protocol.TypeMessage, func(payload json.RawMessage) error {
		var p protocol.RoomMessage
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.Chat(p.RoomID, c, p.Message)
		return nil
	})

	c.router.Register(protocol.TypeSetTargetLang, func(payload json.RawMessage) error {
		var p protocol.RoomMessage
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.SetTargetLang(p.RoomID, c, p.Message)
		return nil
	})

	c.router.Register(protocol.TypeTranslation, func(payload json.RawMessage) error {
		var p protocol.Translation
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.Translate(context.Background(), p.RoomID, c, p.Message, p.TargetLang)
		return nil
	})

	c.router.Register(protocol.TypeEndCall, func(payload json.RawMessage) error {
		var p protocol.EndCall
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.EndCall(p.RoomID, c, p.Reason)
		return nil
	})

	c.router.Register(protocol.TypeResumeCall, func(payload json.RawMessage) error {
		var p protocol.JoinRoom
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		broker.Resume(p.RoomID, c)
		return nil
	})

	c.onClose = func() {
		broker.Disconnect(c)
	}
}

// bindNotificationChannel wires the call-lifecycle message set to the
// coordinator for one authenticated connection.
func bindNotificationChannel(c *Client, coordinator *presence.Coordinator, user *store.User) {
	c.router.Register(protocol.TypeRegisterUser, func(payload json.RawMessage) error {
		var p protocol.RegisterUser
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		// Identity comes from the verified token, not the payload.
		if p.UserID != "" && p.UserID != user.ID {
			c.logger.Warn("register-user id mismatch",
				zap.String("claimed", p.UserID),
				zap.String("authenticated", user.ID),
			)
		}
		coordinator.Register(user.ID, c)
		return nil
	})

	c.router.Register(protocol.TypeSendCall, func(payload json.RawMessage) error {
		var p protocol.CallInvite
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		coordinator.SendCall(p.RoomID, p.SenderID, p.ReceiverID)
		return nil
	})

	c.router.Register(protocol.TypeRejected, func(payload json.RawMessage) error {
		var p protocol.CallRejected
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		coordinator.Reject(p.RoomID, p.Caller, p.Decliner)
		return nil
	})

	c.router.Register(protocol.TypeEndCall, func(payload json.RawMessage) error {
		var p protocol.HangUp
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		coordinator.EndCall(p.RecipientID, user.ID)
		return nil
	})

	c.onClose = func() {
		coordinator.Unregister(user.ID, c)
	}
}
