package models

import (
	"time"
)

type RecipientKind string

const (
	RecipientCustomer RecipientKind = "customer"
	RecipientProvider RecipientKind = "provider"
)

// Notification is an append-only event addressed to one user, either in
// their customer capacity or their provider capacity. ID order is the
// delivery order used by polling.
type Notification struct {
	ID            uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipientKind RecipientKind `json:"recipient_kind" gorm:"type:varchar(20);not null"`
	RecipientID   uint          `json:"recipient_id" gorm:"not null;index:idx_notifications_recipient_read,priority:1"`
	BookingID     *uint         `json:"booking_id" gorm:"index"`
	Message       string        `json:"message" gorm:"size:255;not null"`
	IsRead        bool          `json:"is_read" gorm:"default:false;index:idx_notifications_recipient_read,priority:2"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
