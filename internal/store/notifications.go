package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifications is the persisted notification store.
type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

// Create persists a notification, assigning an id if absent.
func (s *Notifications) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListUnread returns a user's unread notifications, newest first.
func (s *Notifications) ListUnread(ctx context.Context, userID string) ([]Notification, error) {
	return s.list(ctx, userID, false)
}

// ListRead returns a user's read notifications, newest first.
func (s *Notifications) ListRead(ctx context.Context, userID string) ([]Notification, error) {
	return s.list(ctx, userID, true)
}

func (s *Notifications) list(ctx context.Context, userID string, read bool) ([]Notification, error) {
	var out []Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND read = ?", userID, read).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *Notifications) MarkRead(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *Notifications) MarkAllRead(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Clear deletes all of the user's notifications.
func (s *Notifications) Clear(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Notification{}).Error
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
