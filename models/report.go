package models

import (
	"time"
)

// Report is a customer complaint against the provider of one booking.
// At most one exists per (booking, customer).
type Report struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BookingID  uint      `json:"booking_id" gorm:"not null;uniqueIndex:idx_reports_booking_customer,priority:1"`
	CustomerID uint      `json:"customer_id" gorm:"not null;uniqueIndex:idx_reports_booking_customer,priority:2"`
	ProviderID uint      `json:"provider_id" gorm:"not null;index"`
	Reason     string    `json:"reason" gorm:"size:120;not null"`
	Details    string    `json:"details" gorm:"type:text"`
	IsReviewed bool      `json:"is_reviewed" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Booking  *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	Customer *User    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Provider *User    `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

func (Report) TableName() string {
	return "reports"
}
