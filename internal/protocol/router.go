package protocol

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Handler processes the payload of a specific message type.
type Handler func(payload json.RawMessage) error

// Router dispatches inbound envelopes to registered handlers. The set of
// types a connection understands is fixed at registration time, one router
// per connection.
type Router struct {
	logger   *zap.Logger
	handlers map[string]Handler
}

// NewRouter creates an empty message router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for a specific message type.
func (r *Router) Register(msgType string, h Handler) {
	r.handlers[msgType] = h
}

// Dispatch parses a raw frame and routes it to the appropriate handler.
// Unknown types are logged and ignored so a newer client cannot kill the
// connection.
func (r *Router) Dispatch(raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	h, ok := r.handlers[env.Type]
	if !ok {
		r.logger.Debug("unknown message type", zap.String("type", env.Type))
		return nil
	}

	return h(env.Payload)
}
