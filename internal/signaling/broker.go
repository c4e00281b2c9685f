package signaling

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MoadE2002/healthcare-sub000/internal/metrics"
	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
	"github.com/MoadE2002/healthcare-sub000/internal/translate"
)

// Peer is a live connection participating in a room.
type Peer interface {
	ID() string
	Send(env protocol.Envelope) error
}

// Broker relays WebRTC session negotiation and room-scoped side channels
// between the members of a call room. It keeps membership in memory only;
// rooms appear on first join and vanish when the last member leaves.
//
// The protocol assumes at most two media participants per room: offers,
// answers and candidates always target "the other participant", the first
// member that is not the sender. A third joiner is not rejected, but it will
// never be the relay target while an earlier member remains.
type Broker struct {
	logger     *zap.Logger
	translator translate.Translator

	mu    sync.RWMutex
	rooms map[string][]Peer
}

// New creates a Broker. The translator backs the live-translation side
// channel and may be a mock in tests.
func New(logger *zap.Logger, translator translate.Translator) *Broker {
	return &Broker{
		logger:     logger,
		translator: translator,
		rooms:      make(map[string][]Peer),
	}
}

// Join adds the peer to the room, creating it if needed, and replies to the
// joiner alone with the full membership list so the client can tell whether
// it is first or second to arrive. Joining twice is a no-op apart from the
// membership reply. Join never fails.
func (b *Broker) Join(roomID string, p Peer) {
	b.mu.Lock()
	members := b.rooms[roomID]
	if len(members) == 0 {
		metrics.ActiveRooms.Inc()
	}
	if indexOf(members, p.ID()) < 0 {
		b.rooms[roomID] = append(members, p)
		metrics.RoomParticipants.Inc()
	}
	ids := b.memberIDs(roomID)
	b.mu.Unlock()

	b.logger.Info("peer joined room",
		zap.String("room", roomID),
		zap.String("peer", p.ID()),
		zap.Int("members", len(ids)),
	)

	env, err := protocol.NewEnvelope(protocol.TypeRoomParticipants, ids)
	if err != nil {
		return
	}
	if err := p.Send(env); err != nil {
		b.logger.Warn("membership reply failed", zap.String("peer", p.ID()), zap.Error(err))
	}
}

// Offer relays a session-description offer to the other participant.
func (b *Broker) Offer(roomID string, from Peer, sdp string) {
	b.relayToOther(roomID, from, protocol.TypeOffer, protocol.SessionDescription{SDP: sdp})
}

// Answer relays a session-description answer to the other participant.
func (b *Broker) Answer(roomID string, from Peer, sdp string) {
	b.relayToOther(roomID, from, protocol.TypeAnswer, protocol.SessionDescription{SDP: sdp})
}

// IceCandidate relays an ICE candidate to the other participant.
func (b *Broker) IceCandidate(roomID string, from Peer, candidate json.RawMessage) {
	b.relayToOther(roomID, from, protocol.TypeIceCandidate, protocol.IceCandidate{Candidate: candidate})
}

// Chat relays a text chat message to the other participant.
func (b *Broker) Chat(roomID string, from Peer, text string) {
	b.relayToOther(roomID, from, protocol.TypeNewMessage, protocol.RoomMessage{Message: text})
}

// SetTargetLang relays the sender's target-language selection to the other
// participant.
func (b *Broker) SetTargetLang(roomID string, from Peer, lang string) {
	b.relayToOther(roomID, from, protocol.TypeNewTargetLang, protocol.RoomMessage{Message: lang})
}

// Translate runs the text through the translation collaborator and relays the
// result to the other participant. If translation fails the original text is
// relayed untranslated; the failure is never surfaced to either peer.
func (b *Broker) Translate(ctx context.Context, roomID string, from Peer, text, targetLang string) {
	target := b.other(roomID, from.ID())
	if target == nil {
		metrics.RelayMissesTotal.Inc()
		return
	}

	start := time.Now()
	translated, err := b.translator.Translate(ctx, text, targetLang)
	metrics.TranslateLatency.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		b.logger.Warn("translation failed, relaying original text",
			zap.String("room", roomID),
			zap.String("targetLang", targetLang),
			zap.Error(err),
		)
		metrics.TranslationFailuresTotal.Inc()
		translated = text
	}

	b.send(target, protocol.TypeNewTranslation, protocol.RoomMessage{Message: translated})
	metrics.RelaysTotal.WithLabelValues(protocol.TypeNewTranslation).Inc()
}

// EndCall broadcasts a termination notice to every other member of the room.
// Membership is untouched; cleanup happens on leave or disconnect.
func (b *Broker) EndCall(roomID string, from Peer, reason string) {
	b.mu.RLock()
	members := append([]Peer(nil), b.rooms[roomID]...)
	b.mu.RUnlock()

	for _, m := range members {
		if m.ID() == from.ID() {
			continue
		}
		b.send(m, protocol.TypeEndCall, protocol.EndCall{Reason: reason})
	}
	b.logger.Info("call ended", zap.String("room", roomID), zap.String("by", from.ID()))
}

// Resume re-adds a reconnecting peer to the room and broadcasts the updated
// membership to every current member.
func (b *Broker) Resume(roomID string, p Peer) {
	b.mu.Lock()
	members := b.rooms[roomID]
	if len(members) == 0 {
		metrics.ActiveRooms.Inc()
	}
	if indexOf(members, p.ID()) < 0 {
		b.rooms[roomID] = append(members, p)
		metrics.RoomParticipants.Inc()
	}
	members = append([]Peer(nil), b.rooms[roomID]...)
	ids := b.memberIDs(roomID)
	b.mu.Unlock()

	b.logger.Info("call resumed", zap.String("room", roomID), zap.String("by", p.ID()))

	for _, m := range members {
		b.send(m, protocol.TypeCallResumed, protocol.CallResumed{
			ResumedBy:    p.ID(),
			Participants: ids,
		})
	}
}

// Leave removes the peer from a single room, deleting the room when it
// becomes empty.
func (b *Broker) Leave(roomID string, p Peer) {
	b.mu.Lock()
	b.removeLocked(roomID, p.ID())
	b.mu.Unlock()
}

// Disconnect removes the connection from every room it belongs to. A handle
// only realistically belongs to one room, but the sweep keeps stale entries
// from accumulating.
func (b *Broker) Disconnect(p Peer) {
	b.mu.Lock()
	for roomID := range b.rooms {
		b.removeLocked(roomID, p.ID())
	}
	b.mu.Unlock()
}

// Participants returns the current membership of a room, in join order.
// A room that was never created or already emptied reports nil.
func (b *Broker) Participants(roomID string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.memberIDs(roomID)
}

// RoomCount returns the number of live rooms.
func (b *Broker) RoomCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms)
}

func (b *Broker) relayToOther(roomID string, from Peer, outType string, payload any) {
	target := b.other(roomID, from.ID())
	if target == nil {
		// Normal while the second peer has not joined yet.
		metrics.RelayMissesTotal.Inc()
		b.logger.Debug("relay dropped, no other participant",
			zap.String("room", roomID),
			zap.String("event", outType),
		)
		return
	}
	b.send(target, outType, payload)
	metrics.RelaysTotal.WithLabelValues(outType).Inc()
}

// other returns the first member of the room that is not the sender, or nil.
func (b *Broker) other(roomID, senderID string) Peer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, m := range b.rooms[roomID] {
		if m.ID() != senderID {
			return m
		}
	}
	return nil
}

func (b *Broker) send(p Peer, outType string, payload any) {
	env, err := protocol.NewEnvelope(outType, payload)
	if err != nil {
		b.logger.Error("marshal outbound payload", zap.String("event", outType), zap.Error(err))
		return
	}
	if err := p.Send(env); err != nil {
		b.logger.Warn("send failed", zap.String("peer", p.ID()), zap.Error(err))
	}
}

// memberIDs must be called with the mutex held.
func (b *Broker) memberIDs(roomID string) []string {
	members := b.rooms[roomID]
	if len(members) == 0 {
		return nil
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID()
	}
	return ids
}

// removeLocked must be called with the mutex held.
func (b *Broker) removeLocked(roomID, peerID string) {
	members := b.rooms[roomID]
	i := indexOf(members, peerID)
	if i < 0 {
		return
	}
	members = append(members[:i], members[i+1:]...)
	metrics.RoomParticipants.Dec()
	if len(members) == 0 {
		delete(b.rooms, roomID)
		metrics.ActiveRooms.Dec()
		b.logger.Info("room deleted", zap.String("room", roomID))
		return
	}
	b.rooms[roomID] = members
}

func indexOf(members []Peer, id string) int {
	for i, m := range members {
		if m.ID() == id {
			return i
		}
	}
	return -1
}
