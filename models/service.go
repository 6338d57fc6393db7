package models

import (
	"strings"
	"time"
)

// Service is a catalog entry offered by one provider. Only the fields the
// booking engine snapshots or validates against are modeled here.
type Service struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ProviderID    uint      `json:"provider_id" gorm:"not null;index"`
	Name          string    `json:"name" gorm:"type:varchar(200);not null"`
	Price         float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	AvailableTime string    `json:"available_time" gorm:"type:varchar(100)"` // e.g. "09:00-18:00", "10 AM to 6 PM"
	AvailableDays string    `json:"available_days" gorm:"type:varchar(100)"` // e.g. "mon,tue,wed"; empty means every day
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Provider *User `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

func (Service) TableName() string {
	return "services"
}

// Days returns the normalized weekday abbreviations of AvailableDays.
func (s *Service) Days() []string {
	var days []string
	for _, d := range strings.Split(s.AvailableDays, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if len(d) >= 3 {
			days = append(days, d[:3])
		}
	}
	return days
}
