package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusRejected   BookingStatus = "rejected"
)

// IsTerminal reports whether no further status change is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusRejected
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusRejected:
		return true
	}
	return false
}

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeOnline PaymentMode = "online"
)

func (m PaymentMode) IsValid() bool {
	return m == PaymentModeCash || m == PaymentModeOnline
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Booking struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	CustomerID uint `json:"customer_id" gorm:"not null;index"`
	ProviderID uint `json:"provider_id" gorm:"not null;index"`
	ServiceID  uint `json:"service_id" gorm:"not null"`

	// Captured at creation, never re-derived from the service.
	ServiceName string    `json:"service_name" gorm:"type:varchar(200);not null"`
	Amount      float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	RequestedAt time.Time `json:"requested_at" gorm:"not null"`

	ServiceAddress  string   `json:"service_address" gorm:"size:255"`
	UseLiveLocation bool     `json:"use_live_location" gorm:"default:false"`
	CustomerLat     *float64 `json:"customer_lat" gorm:"type:decimal(10,7)"`
	CustomerLng     *float64 `json:"customer_lng" gorm:"type:decimal(10,7)"`
	ProviderLat     *float64 `json:"provider_lat" gorm:"type:decimal(10,7)"`
	ProviderLng     *float64 `json:"provider_lng" gorm:"type:decimal(10,7)"`

	Status             BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	OTP                *string       `json:"-" gorm:"column:otp;size:4"`
	ProviderMarkedDone bool          `json:"provider_marked_done" gorm:"default:false"`
	PaymentMode        *PaymentMode  `json:"payment_mode" gorm:"type:varchar(20)"`
	PaymentStatus      PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	FeedbackRating     *int          `json:"feedback_rating"`
	FeedbackText       string        `json:"feedback_text" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Customer *User    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Provider *User    `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
	Service  *Service `json:"-" gorm:"foreignKey:ServiceID"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsParty reports whether the user is the booking's customer or provider.
func (b *Booking) IsParty(userID uint) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}

// Code returns the stored confirmation code or "".
func (b *Booking) Code() string {
	if b.OTP == nil {
		return ""
	}
	return *b.OTP
}
