package store

import (
	"encoding/json"
	"time"
)

// Notification types pushed by the booking, prescription and verification
// workflows.
const (
	NotificationPrescriptionReady    = "prescription-ready"
	NotificationAppointmentReminder  = "appointment-reminder"
	NotificationCallInvitation       = "call-invitation"
	NotificationAppointmentConfirmed = "appointment-confirmed"
	NotificationAppointmentCanceled  = "appointment-canceled"
	NotificationVerificationDeclined = "verification-declined"
	NotificationVerified             = "verified"
)

// User is the subset of the account record the real-time core needs to
// resolve a session token to an identity.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Name      string    `json:"name" gorm:"type:text"`
	Email     string    `json:"email" gorm:"type:text;uniqueIndex"`
	Role      string    `json:"role" gorm:"type:text"` // patient, doctor, admin
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// Notification is a persisted user-facing event. Data carries type-specific
// references (appointment id, prescription id, verification id).
type Notification struct {
	ID        string          `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string          `json:"userId" gorm:"type:text;index"`
	Type      string          `json:"type" gorm:"type:text"`
	Message   string          `json:"message" gorm:"type:text"`
	Read      bool            `json:"read" gorm:"default:false"`
	Data      json.RawMessage `json:"data,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}
