package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/models"
)

const providerDetailBookings = 100

// AdminService moderates provider accounts.
type AdminService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAdminService(db *gorm.DB, log *zap.Logger) *AdminService {
	return &AdminService{db: db, log: log}
}

type ProviderListFilter struct {
	Status models.ProviderStatus // empty lists every provider
	Page   int
	Limit  int
}

type ProviderDetail struct {
	Provider *models.User      `json:"provider"`
	Services []models.Service  `json:"services"`
	Bookings []*models.Booking `json:"bookings"`
}

// ApproveProvider admits a provider: approved and active.
func (s *AdminService) ApproveProvider(ctx context.Context, providerID uint) (*models.User, error) {
	return s.setStanding(ctx, providerID, map[string]interface{}{
		"provider_status": models.ProviderStatusApproved,
		"is_active":       true,
	})
}

// RemoveProvider deactivates and rejects a provider and ends its sessions.
// Removing an already removed provider changes nothing.
func (s *AdminService) RemoveProvider(ctx context.Context, providerID uint) (*models.User, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !provider.IsActive && provider.ProviderStatus == models.ProviderStatusRejected {
		return provider, nil
	}
	return s.setStanding(ctx, providerID, map[string]interface{}{
		"provider_status": models.ProviderStatusRejected,
		"is_active":       false,
		"session_version": gorm.Expr("session_version + 1"),
	})
}

func (s *AdminService) setStanding(ctx context.Context, providerID uint, values map[string]interface{}) (*models.User, error) {
	if _, err := s.loadProvider(ctx, providerID); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", providerID, models.RoleProvider).
		Updates(values).Error
	if err != nil {
		return nil, err
	}
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	s.log.Info("provider standing changed",
		zap.Uint("provider_id", providerID),
		zap.String("provider_status", string(provider.ProviderStatus)),
		zap.Bool("is_active", provider.IsActive))
	return provider, nil
}

// ListProviders returns one page of providers, newest first, and the total.
func (s *AdminService) ListProviders(ctx context.Context, f ProviderListFilter) ([]models.User, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 50
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleProvider)
	if f.Status != "" {
		q = q.Where("provider_status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var providers []models.User
	err := q.Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&providers).Error
	if err != nil {
		return nil, 0, err
	}
	return providers, total, nil
}

// ProviderDetail loads a provider with its services and latest bookings.
func (s *AdminService) ProviderDetail(ctx context.Context, providerID uint) (*ProviderDetail, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	d := &ProviderDetail{Provider: provider}
	if err := db.Where("provider_id = ?", providerID).Order("created_at DESC").Find(&d.Services).Error; err != nil {
		return nil, err
	}
	err = db.Preload("Customer").
		Where("provider_id = ?", providerID).
		Order("created_at DESC, id DESC").
		Limit(providerDetailBookings).
		Find(&d.Bookings).Error
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *AdminService) loadProvider(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", id, models.RoleProvider).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
