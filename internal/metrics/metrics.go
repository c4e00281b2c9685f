package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthcare_rtc_active_rooms",
		Help: "Number of call rooms with at least one participant",
	})
	RoomParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthcare_rtc_room_participants",
		Help: "Number of connections currently joined to any room",
	})
	RegisteredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthcare_rtc_registered_users",
		Help: "Number of users with a live notification-channel registration",
	})
)

// Counters
var (
	RelaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthcare_rtc_relays_total",
		Help: "Total room-scoped messages relayed by event type",
	}, []string{"event"})
	RelayMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthcare_rtc_relay_misses_total",
		Help: "Total relays dropped because no other participant was present",
	})
	CallInvitesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthcare_rtc_call_invites_total",
		Help: "Total call invitations delivered to a registered callee",
	})
	CallInviteMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthcare_rtc_call_invite_misses_total",
		Help: "Total call invitations dropped because the callee was offline",
	})
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthcare_rtc_notifications_total",
		Help: "Total notifications pushed by delivery outcome",
	}, []string{"delivery"})
	TranslationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthcare_rtc_translation_failures_total",
		Help: "Total translation collaborator failures (relayed untranslated)",
	})
	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthcare_rtc_auth_failures_total",
		Help: "Total notification-channel connections rejected by reason",
	}, []string{"reason"})
)

// Histograms
var (
	TranslateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthcare_rtc_translate_duration_ms",
		Help:    "Translation collaborator round-trip in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
)
