package protocol

import "encoding/json"

// Call channel (room signaling), client to server.
const (
	TypeJoinRoom      = "join-room"
	TypeOffer         = "offer"
	TypeAnswer        = "answer"
	TypeIceCandidate  = "ice-candidate"
	TypeMessage       = "message"
	TypeSetTargetLang = "set-targetLang"
	TypeTranslation   = "translation"
	TypeEndCall       = "end-call"
	TypeResumeCall    = "resume-call"
)

// Call channel, server to client.
const (
	TypeRoomParticipants = "room-participants"
	TypeNewMessage       = "new-message"
	TypeNewTargetLang    = "new-targetLang"
	TypeNewTranslation   = "new-translation"
	TypeCallResumed      = "call-resumed"
)

// Notification channel, client to server.
const (
	TypeRegisterUser = "register-user"
	TypeSendCall     = "send-call"
	TypeRejected     = "rejected"
)

// Notification channel, server to client.
const (
	TypeRejectedCall = "rejected-call"
	TypeCallEnded    = "call-ended"
	TypeNotification = "notification"
)

// Envelope is the top-level wrapper for all websocket messages on both channels.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals v into an Envelope of the given type.
func NewEnvelope(msgType string, v any) (Envelope, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// JoinRoom is the payload for join-room and resume-call messages.
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// SessionDescription carries an SDP offer or answer.
type SessionDescription struct {
	SDP    string `json:"sdp"`
	RoomID string `json:"roomId,omitempty"`
}

// IceCandidate carries an ICE candidate. The candidate itself is opaque to the
// server and relayed byte for byte.
type IceCandidate struct {
	Candidate json.RawMessage `json:"candidate"`
	RoomID    string          `json:"roomId,omitempty"`
}

// RoomMessage is the payload for chat and target-language messages.
type RoomMessage struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId,omitempty"`
}

// Translation is the payload for live speech-translation messages.
type Translation struct {
	Message    string `json:"message"`
	RoomID     string `json:"roomId,omitempty"`
	TargetLang string `json:"targetLang,omitempty"`
}

// EndCall is the payload for end-call on the signaling channel.
type EndCall struct {
	RoomID string `json:"roomId,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// CallResumed tells room members that a participant re-joined.
type CallResumed struct {
	ResumedBy    string   `json:"resumedBy"`
	Participants []string `json:"participants"`
}

// RegisterUser binds the authenticated user to the current connection.
type RegisterUser struct {
	UserID      string `json:"userId"`
	DeviceToken string `json:"deviceToken,omitempty"`
}

// CallInvite is the payload for send-call in both directions. ReceiverID is
// only meaningful client to server.
type CallInvite struct {
	RoomID     string `json:"roomId"`
	ReceiverID string `json:"receivedId,omitempty"`
	SenderID   string `json:"senderId"`
}

// CallRejected is the client-to-server rejection of a ringing call.
type CallRejected struct {
	RoomID   string `json:"roomId"`
	Decliner string `json:"decliner"`
	Caller   string `json:"caller"`
}

// Reason is the payload for rejected-call and rejected server events.
type Reason struct {
	Message string `json:"message"`
}

// HangUp asks the coordinator to notify a user that the call is over.
type HangUp struct {
	RecipientID string `json:"recipientId"`
}

// CallEnded is the server-to-client termination notice.
type CallEnded struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}
