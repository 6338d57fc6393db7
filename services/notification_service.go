package services

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/models"
)

const (
	defaultPollPageSize  = 20
	maxNotificationRunes = 255

	// appendLockKey names the postgres advisory lock that serializes appends.
	appendLockKey = 7_340_001
)

// NotificationService is the append-only notification log. Rows are never
// rewritten except for the read flag, and ids are assigned by the database
// so they grow strictly with append order.
type NotificationService struct {
	db       *gorm.DB
	log      *zap.Logger
	pageSize int
}

func NewNotificationService(db *gorm.DB, log *zap.Logger, pageSize int) *NotificationService {
	if pageSize <= 0 {
		pageSize = defaultPollPageSize
	}
	return &NotificationService{db: db, log: log, pageSize: pageSize}
}

// PollResult is one page of the incremental feed. Cursor is the id the
// caller should send as since_id next time.
type PollResult struct {
	Notifications []models.Notification
	Cursor        uint
}

func (s *NotificationService) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// Notify appends one notification. Pass tx to make the append part of a
// lifecycle transition; nil uses the service's own connection.
//
// Appends hold a transaction-scoped lock until the enclosing transaction
// commits, so a row never becomes visible after a row with a greater id.
// Poll relies on that to advance its cursor without skipping.
func (s *NotificationService) Notify(ctx context.Context, tx *gorm.DB, kind models.RecipientKind, recipientID uint, bookingID *uint, message string) (*models.Notification, error) {
	n := &models.Notification{
		RecipientKind: kind,
		RecipientID:   recipientID,
		BookingID:     bookingID,
		Message:       truncateRunes(message, maxNotificationRunes),
	}
	err := s.conn(ctx, tx).Transaction(func(inner *gorm.DB) error {
		if err := lockAppends(inner); err != nil {
			return err
		}
		return inner.Create(n).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("notification appended",
		zap.Uint("notification_id", n.ID),
		zap.String("recipient_kind", string(kind)),
		zap.Uint("recipient_id", recipientID))
	return n, nil
}

// NotifyAdmins appends one notification per active admin and returns how
// many were written.
func (s *NotificationService) NotifyAdmins(ctx context.Context, tx *gorm.DB, bookingID *uint, message string) (int, error) {
	db := s.conn(ctx, tx)

	var adminIDs []uint
	if err := db.Model(&models.User{}).Where("role = ? AND is_active = ?", models.RoleAdmin, true).Order("id").Pluck("id", &adminIDs).Error; err != nil {
		return 0, err
	}
	for _, id := range adminIDs {
		if _, err := s.Notify(ctx, db, models.RecipientCustomer, id, bookingID, message); err != nil {
			return 0, err
		}
	}
	return len(adminIDs), nil
}

// UnreadCount counts unread rows addressed to the actor in either capacity.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *models.User) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", actor.ID, false).
		Count(&count).Error
	return count, err
}

// List returns the actor's notifications, newest first. limit <= 0 means
// no limit.
func (s *NotificationService) List(ctx context.Context, actor *models.User, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("recipient_id = ?", actor.ID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var notifications []models.Notification
	if err := q.Order("id DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks one notification read if actor is its addressee. It
// reports false, without error, for foreign or unknown ids.
func (s *NotificationService) MarkRead(ctx context.Context, actor *models.User, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, actor.ID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkAllRead marks every unread notification of the actor read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.User) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", actor.ID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkBookingRead clears the provider's unread notifications about one booking.
func (s *NotificationService) MarkBookingRead(ctx context.Context, tx *gorm.DB, providerID, bookingID uint) error {
	return s.conn(ctx, tx).Model(&models.Notification{}).
		Where("recipient_id = ? AND recipient_kind = ? AND booking_id = ? AND is_read = ?",
			providerID, models.RecipientProvider, bookingID, false).
		Update("is_read", true).Error
}

// Poll returns notifications with id greater than sinceID in ascending id
// order, at most one page. The cursor is the last id returned, or sinceID
// when nothing is new.
func (s *NotificationService) Poll(ctx context.Context, actor *models.User, sinceID uint) (*PollResult, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND id > ?", actor.ID, sinceID).
		Order("id ASC").
		Limit(s.pageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	cursor := sinceID
	if len(notifications) > 0 {
		cursor = notifications[len(notifications)-1].ID
	}
	return &PollResult{Notifications: notifications, Cursor: cursor}, nil
}

// LatestID returns the greatest notification id addressed to the actor, or 0.
func (s *NotificationService) LatestID(ctx context.Context, actor *models.User) (uint, error) {
	var latest struct{ ID uint }
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Select("COALESCE(MAX(id), 0) AS id").
		Where("recipient_id = ?", actor.ID).
		Scan(&latest).Error
	return latest.ID, err
}

// lockAppends takes the append lock for the rest of the transaction. SQLite
// already admits one writer at a time.
func lockAppends(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", appendLockKey).Error
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
