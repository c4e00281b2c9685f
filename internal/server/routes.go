package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MoadE2002/healthcare-sub000/internal/auth"
	"github.com/MoadE2002/healthcare-sub000/internal/metrics"
	"github.com/MoadE2002/healthcare-sub000/internal/presence"
	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
	"github.com/MoadE2002/healthcare-sub000/internal/signaling"
	"github.com/MoadE2002/healthcare-sub000/internal/store"
)

// NotificationStore is the persisted notification collaborator as consumed
// by the REST surface.
type NotificationStore interface {
	Create(ctx context.Context, n *store.Notification) error
	ListUnread(ctx context.Context, userID string) ([]store.Notification, error)
	ListRead(ctx context.Context, userID string) ([]store.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Clear(ctx context.Context, userID string) error
}

// Server exposes both real-time channels and the notification REST API.
type Server struct {
	logger        *zap.Logger
	broker        *signaling.Broker
	coordinator   *presence.Coordinator
	verifier      *auth.Verifier
	notifications NotificationStore
	upgrader      websocket.Upgrader
}

// New assembles the HTTP surface around the two real-time components.
func New(
	logger *zap.Logger,
	broker *signaling.Broker,
	coordinator *presence.Coordinator,
	verifier *auth.Verifier,
	notifications NotificationStore,
	allowedOrigins []string,
) *Server {
	return &Server{
		logger:        logger,
		broker:        broker,
		coordinator:   coordinator,
		verifier:      verifier,
		notifications: notifications,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/ws/call", s.handleCallSocket)
	r.Get("/ws/notifications", s.handleNotificationSocket)

	// Entry point for the booking/prescription/verification workflows.
	r.Post("/internal/notifications", s.handlePushNotification)

	r.Route("/v1/notifications", func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Get("/", s.handleListNotifications)
		r.Post("/read-all", s.handleMarkAllRead)
		r.Post("/{id}/read", s.handleMarkRead)
		r.Delete("/", s.handleClearNotifications)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleCallSocket upgrades a connection onto the room signaling channel.
// This endpoint is deliberately unauthenticated: access to a room is gated
// upstream by the invitation/accept flow on the notification channel.
func (s *Server) handleCallSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newClient(conn, protocol.NewRouter(s.logger), s.logger)
	bindCallChannel(client, s.broker)

	go client.writePump()
	go client.readPump()
}

// handleNotificationSocket verifies the bearer token, resolves the user and
// only then upgrades. No events are processed on a rejected connection.
func (s *Server) handleNotificationSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}

	user, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		s.rejectAuth(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newClient(conn, protocol.NewRouter(s.logger), s.logger)
	bindNotificationChannel(client, s.coordinator, user)

	go client.writePump()
	go client.readPump()
}

type pushNotificationRequest struct {
	UserID  string          `json:"userId"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (s *Server) handlePushNotification(w http.ResponseWriter, r *http.Request) {
	var req pushNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId and type required"})
		return
	}

	n := &store.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Message: req.Message,
		Data:    req.Data,
	}
	if err := s.coordinator.PushNotification(r.Context(), n); err != nil {
		s.logger.Error("push notification failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "push failed"})
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	var (
		list []store.Notification
		err  error
	)
	if r.URL.Query().Get("status") == "read" {
		list, err = s.notifications.ListRead(r.Context(), userID)
	} else {
		list, err = s.notifications.ListUnread(r.Context(), userID)
	}
	if err != nil {
		s.logger.Error("list notifications failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if list == nil {
		list = []store.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.notifications.MarkRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		s.logger.Error("mark read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkAllRead(r.Context(), userFrom(r.Context())); err != nil {
		s.logger.Error("mark all read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.Clear(r.Context(), userFrom(r.Context())); err != nil {
		s.logger.Error("clear notifications failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "clear failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ctxKey int

const userIDKey ctxKey = iota

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// bearerAuth guards the REST listing with the same verifier the websocket
// gate uses.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.verifier.Verify(r.Context(), bearerToken(r))
		if err != nil {
			s.rejectAuth(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, user.ID)))
	})
}

func (s *Server) rejectAuth(w http.ResponseWriter, err error) {
	code := auth.CodeInvalidToken
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		code = authErr.Code
	}
	metrics.AuthFailuresTotal.WithLabelValues(string(code)).Inc()
	s.logger.Info("connection refused", zap.String("reason", string(code)))
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": string(code)})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
