package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/models"
)

const (
	defaultReasonMax       = 120
	reportProviderBookings = 50
)

type ReportService struct {
	db        *gorm.DB
	notifier  *NotificationService
	log       *zap.Logger
	reasonMax int
}

func NewReportService(db *gorm.DB, notifier *NotificationService, log *zap.Logger, reasonMax int) *ReportService {
	if reasonMax <= 0 {
		reasonMax = defaultReasonMax
	}
	return &ReportService{db: db, notifier: notifier, log: log, reasonMax: reasonMax}
}

type ReportFilter struct {
	UnreviewedOnly bool
	Limit          int
}

// ReportDetail is the moderation view of one report.
type ReportDetail struct {
	Report           *models.Report    `json:"report"`
	Provider         *models.User      `json:"provider"`
	ProviderBookings []*models.Booking `json:"provider_bookings"`
}

// File creates or replaces the customer's report on a booking. The second
// return value is true when a new report row was inserted. Resubmitting
// resets the reviewed flag so the report re-enters the admin queue.
func (s *ReportService) File(ctx context.Context, customer *models.User, bookingID uint, reason, details string) (*models.Report, bool, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).Preload("Provider").First(&b, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrBookingNotFound
		}
		return nil, false, err
	}
	if err := requireCustomer(customer, &b); err != nil {
		return nil, false, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, false, ErrReasonRequired
	}
	reason = truncateRunes(reason, s.reasonMax)
	details = strings.TrimSpace(details)

	created, err := s.upsert(ctx, &b, customer.ID, reason, details)
	if err != nil {
		return nil, false, fmt.Errorf("file report for booking %d: %w", b.ID, err)
	}

	var report models.Report
	if err := s.db.WithContext(ctx).
		Where("booking_id = ? AND customer_id = ?", b.ID, customer.ID).
		First(&report).Error; err != nil {
		return nil, false, err
	}

	providerName := ""
	if b.Provider != nil {
		providerName = b.Provider.DisplayName()
	}
	msg := fmt.Sprintf("Report received for provider %s on booking #%d by %s.", providerName, b.ID, customer.DisplayName())
	notified, err := s.notifier.NotifyAdmins(ctx, nil, &b.ID, msg)
	if err != nil {
		return nil, false, err
	}

	s.log.Info("report filed",
		zap.Uint("report_id", report.ID),
		zap.Uint("booking_id", b.ID),
		zap.Uint("customer_id", customer.ID),
		zap.Bool("created", created),
		zap.Int("admins_notified", notified))
	return &report, created, nil
}

// upsert updates the existing (booking, customer) row or inserts one. An
// insert that loses a race against a concurrent filing hits the unique
// index and falls back to the update.
func (s *ReportService) upsert(ctx context.Context, b *models.Booking, customerID uint, reason, details string) (bool, error) {
	db := s.db.WithContext(ctx)
	update := func() (int64, error) {
		res := db.Model(&models.Report{}).
			Where("booking_id = ? AND customer_id = ?", b.ID, customerID).
			Updates(map[string]interface{}{
				"reason":      reason,
				"details":     details,
				"is_reviewed": false,
			})
		return res.RowsAffected, res.Error
	}

	n, err := update()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	err = db.Create(&models.Report{
		BookingID:  b.ID,
		CustomerID: customerID,
		ProviderID: b.ProviderID,
		Reason:     reason,
		Details:    details,
	}).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}
	if _, err := update(); err != nil {
		return false, err
	}
	return false, nil
}

// List returns the admin queue, newest first.
func (s *ReportService) List(ctx context.Context, f ReportFilter) ([]models.Report, error) {
	q := s.db.WithContext(ctx).Preload("Customer").Preload("Provider")
	if f.UnreviewedOnly {
		q = q.Where("is_reviewed = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var reports []models.Report
	if err := q.Order("created_at DESC, id DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// Detail loads a report with the reported provider's recent bookings and
// marks the report reviewed.
func (s *ReportService) Detail(ctx context.Context, id uint) (*ReportDetail, error) {
	if _, err := s.MarkReviewed(ctx, id); err != nil {
		return nil, err
	}

	var report models.Report
	err := s.db.WithContext(ctx).
		Preload("Booking").Preload("Customer").Preload("Provider").
		First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	var bookings []*models.Booking
	err = s.db.WithContext(ctx).Preload("Customer").
		Where("provider_id = ?", report.ProviderID).
		Order("created_at DESC, id DESC").
		Limit(reportProviderBookings).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return &ReportDetail{Report: &report, Provider: report.Provider, ProviderBookings: bookings}, nil
}

// MarkReviewed flips is_reviewed to true. It reports whether the row
// changed; an already reviewed report is not an error.
func (s *ReportService) MarkReviewed(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND is_reviewed = ?", id, false).
		Update("is_reviewed", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrReportNotFound
	}
	return false, nil
}
