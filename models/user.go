package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleProvider UserRole = "provider"
	RoleAdmin    UserRole = "admin"
)

type ProviderStatus string

const (
	ProviderStatusPending  ProviderStatus = "pending"
	ProviderStatusApproved ProviderStatus = "approved"
	ProviderStatusRejected ProviderStatus = "rejected"
)

type User struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	FullName       string         `json:"full_name" gorm:"size:255;not null"`
	PhoneNumber    string         `json:"phone_number" gorm:"size:20;uniqueIndex;not null"`
	PasswordHash   string         `json:"-" gorm:"size:255;not null"`
	Role           UserRole       `json:"role" gorm:"type:varchar(20);not null;default:'customer';check:role IN ('customer','provider','admin')"`
	IsActive       bool           `json:"is_active" gorm:"not null"`
	ProviderStatus ProviderStatus `json:"provider_status" gorm:"type:varchar(20);not null;default:'pending'"`
	SessionVersion int            `json:"-" gorm:"not null;default:0"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.ProviderStatus == "" {
		u.ProviderStatus = ProviderStatusPending
	}
	return nil
}

func (u *User) IsValidRole() bool {
	switch u.Role {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	default:
		return false
	}
}

func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// DisplayName is the name shown in notification messages.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.PhoneNumber
}
