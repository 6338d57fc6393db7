package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/models"
	"service-booking-server/utils"
)

// LocationService tracks the last known coordinates of both parties of a
// booking. Each party writes only its own columns, so updates never touch
// lifecycle state.
type LocationService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLocationService(db *gorm.DB, log *zap.Logger) *LocationService {
	return &LocationService{db: db, log: log}
}

// LocationView is what one viewer may see of a booking's coordinates.
type LocationView struct {
	BookingID          uint                 `json:"booking_id"`
	Status             models.BookingStatus `json:"status"`
	ProviderMarkedDone bool                 `json:"provider_marked_done"`
	UseLiveLocation    bool                 `json:"use_live_location"`
	CustomerLat        *float64             `json:"latitude"`
	CustomerLng        *float64             `json:"longitude"`
	ProviderLat        *float64             `json:"provider_latitude"`
	ProviderLng        *float64             `json:"provider_longitude"`
	CustomerHidden     bool                 `json:"customer_hidden"`
	DistanceKm         *float64             `json:"distance_km,omitempty"`
}

// CustomerLocationHidden reports whether the customer's coordinates are
// concealed from viewerID: only the provider is ever restricted, once the
// job is marked done or the booking is completed.
func CustomerLocationHidden(b *models.Booking, viewerID uint) bool {
	return viewerID == b.ProviderID && viewerID != b.CustomerID &&
		(b.ProviderMarkedDone || b.Status == models.BookingStatusCompleted)
}

// buildLocationView derives the view from a single booking snapshot.
func buildLocationView(b *models.Booking, viewerID uint) *LocationView {
	v := &LocationView{
		BookingID:          b.ID,
		Status:             b.Status,
		ProviderMarkedDone: b.ProviderMarkedDone,
		UseLiveLocation:    b.UseLiveLocation,
		ProviderLat:        b.ProviderLat,
		ProviderLng:        b.ProviderLng,
	}
	if CustomerLocationHidden(b, viewerID) {
		v.CustomerHidden = true
	} else {
		v.CustomerLat = b.CustomerLat
		v.CustomerLng = b.CustomerLng
	}
	if v.CustomerLat != nil && v.CustomerLng != nil && v.ProviderLat != nil && v.ProviderLng != nil {
		d := utils.HaversineDistance(*v.ProviderLat, *v.ProviderLng, *v.CustomerLat, *v.CustomerLng)
		v.DistanceKm = &d
	}
	return v
}

// MaskBooking returns a copy of b with the fields viewerID may not see cleared.
func MaskBooking(b *models.Booking, viewerID uint) *models.Booking {
	out := *b
	if CustomerLocationHidden(b, viewerID) {
		out.CustomerLat = nil
		out.CustomerLng = nil
	}
	return &out
}

// UpdateCustomerLocation stores the customer's live position. Malformed
// coordinates are rejected without writing anything.
func (s *LocationService) UpdateCustomerLocation(ctx context.Context, actor *models.User, id uint, latRaw, lngRaw string) (*LocationView, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireCustomer(actor, b); err != nil {
		return nil, err
	}
	lat, lng, ok := utils.ParseCoordinates(latRaw, lngRaw)
	if !ok {
		return nil, ErrInvalidCoordinates
	}

	err = s.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"customer_lat":      utils.RoundCoordinate(lat),
			"customer_lng":      utils.RoundCoordinate(lng),
			"use_live_location": true,
		}).Error
	if err != nil {
		return nil, err
	}
	s.log.Debug("customer location updated", zap.Uint("booking_id", id))
	return s.View(ctx, actor, id)
}

// UpdateProviderLocation stores the provider's live position.
func (s *LocationService) UpdateProviderLocation(ctx context.Context, actor *models.User, id uint, latRaw, lngRaw string) (*LocationView, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireProvider(actor, b); err != nil {
		return nil, err
	}
	lat, lng, ok := utils.ParseCoordinates(latRaw, lngRaw)
	if !ok {
		return nil, ErrInvalidCoordinates
	}

	err = s.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_lat": utils.RoundCoordinate(lat),
			"provider_lng": utils.RoundCoordinate(lng),
		}).Error
	if err != nil {
		return nil, err
	}
	s.log.Debug("provider location updated", zap.Uint("booking_id", id))
	return s.View(ctx, actor, id)
}

// View returns the coordinates viewer may see. Status, the done flag and
// the coordinates all come from the same row read.
func (s *LocationService) View(ctx context.Context, viewer *models.User, id uint) (*LocationView, error) {
	if err := CheckProviderAdmission(viewer); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(viewer.ID) {
		return nil, ErrForbidden
	}
	return buildLocationView(b, viewer.ID), nil
}

func (s *LocationService) load(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}
