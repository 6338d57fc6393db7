package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"service-booking-server/models"
	"service-booking-server/utils"
)

type HistoryRange string

const (
	RangeAll   HistoryRange = "all"
	RangeToday HistoryRange = "today"
	RangeWeek  HistoryRange = "week"
	RangeMonth HistoryRange = "month"
)

// ParseHistoryRange maps unknown values to RangeAll.
func ParseHistoryRange(raw string) HistoryRange {
	switch r := HistoryRange(raw); r {
	case RangeToday, RangeWeek, RangeMonth:
		return r
	}
	return RangeAll
}

type HistoryFilter struct {
	As     models.RecipientKind // customer or provider; defaults from the actor's role
	Range  HistoryRange
	Status models.BookingStatus // optional
}

type HistorySummary struct {
	Total     int64   `json:"total"`
	Active    int64   `json:"active"`
	Completed int64   `json:"completed"`
	Earnings  float64 `json:"earnings,omitempty"`
}

type HistoryResult struct {
	Bookings []*models.Booking `json:"bookings"`
	Summary  HistorySummary    `json:"summary"`
}

// BookingDetail is everything a party needs to render one booking.
type BookingDetail struct {
	Booking              *models.Booking `json:"booking"`
	ViewerRole           string          `json:"viewer_role"`
	Location             *LocationView   `json:"location"`
	CustomerMapURL       string          `json:"customer_map_url,omitempty"`
	ProviderMapURL       string          `json:"provider_map_url,omitempty"`
	CodePrompt           bool            `json:"code_prompt"`
	Code                 string          `json:"code,omitempty"`
	ReportExists         bool            `json:"report_exists"`
	LatestNotificationID uint            `json:"latest_notification_id"`
}

// Get returns a booking the viewer is party to. Admins may read any booking.
func (s *BookingService) Get(ctx context.Context, viewer *models.User, id uint) (*models.Booking, error) {
	if err := CheckProviderAdmission(viewer); err != nil {
		return nil, err
	}
	var b models.Booking
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Provider").First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !b.IsParty(viewer.ID) && !viewer.IsAdmin() {
		return nil, ErrForbidden
	}
	return MaskBooking(&b, viewer.ID), nil
}

// Detail builds the booking page for one of its parties.
func (s *BookingService) Detail(ctx context.Context, viewer *models.User, id uint) (*BookingDetail, error) {
	b, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	d := &BookingDetail{Booking: b, Location: buildLocationView(b, viewer.ID)}
	switch viewer.ID {
	case b.CustomerID:
		d.ViewerRole = string(models.RecipientCustomer)
		if b.Status == models.BookingStatusAccepted {
			d.Code = b.Code()
		}
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Report{}).
			Where("booking_id = ? AND customer_id = ?", b.ID, viewer.ID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		d.ReportExists = n > 0
	case b.ProviderID:
		d.ViewerRole = string(models.RecipientProvider)
		d.CodePrompt = b.Status == models.BookingStatusAccepted
	default:
		d.ViewerRole = string(models.RoleAdmin)
	}

	d.CustomerMapURL = utils.MapURL(d.Location.CustomerLat, d.Location.CustomerLng)
	d.ProviderMapURL = utils.MapURL(d.Location.ProviderLat, d.Location.ProviderLng)

	latest, err := s.notifier.LatestID(ctx, viewer)
	if err != nil {
		return nil, err
	}
	d.LatestNotificationID = latest
	return d, nil
}

// History lists the actor's bookings newest first, filtered by range and
// status, together with counters over all of the actor's bookings.
func (s *BookingService) History(ctx context.Context, actor *models.User, f HistoryFilter) (*HistoryResult, error) {
	as := f.As
	if as == "" {
		as = models.RecipientCustomer
		if actor.IsProvider() {
			as = models.RecipientProvider
		}
	}
	column := "customer_id"
	if as == models.RecipientProvider {
		if err := CheckProviderAdmission(actor); err != nil {
			return nil, err
		}
		if !actor.IsProvider() {
			return nil, ErrForbidden
		}
		column = "provider_id"
	}

	db := s.db.WithContext(ctx)
	base := func() *gorm.DB {
		return db.Model(&models.Booking{}).Where(column+" = ?", actor.ID)
	}

	q := s.applyRange(base(), ParseHistoryRange(string(f.Range)))
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var bookings []*models.Booking
	err := q.Preload("Customer").Preload("Provider").
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	for i, b := range bookings {
		bookings[i] = MaskBooking(b, actor.ID)
	}

	res := &HistoryResult{Bookings: bookings}
	if err := base().Count(&res.Summary.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status NOT IN ?", []models.BookingStatus{
		models.BookingStatusCompleted, models.BookingStatusRejected,
	}).Count(&res.Summary.Active).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.BookingStatusCompleted).
		Count(&res.Summary.Completed).Error; err != nil {
		return nil, err
	}
	if as == models.RecipientProvider {
		var earnings struct{ Total float64 }
		err := base().Select("COALESCE(SUM(amount), 0) AS total").
			Where("status = ? AND payment_status = ?", models.BookingStatusCompleted, models.PaymentStatusPaid).
			Scan(&earnings).Error
		if err != nil {
			return nil, err
		}
		res.Summary.Earnings = earnings.Total
	}
	return res, nil
}

// applyRange filters on the requested service time. "today" is the
// calendar day in the booking timezone.
func (s *BookingService) applyRange(q *gorm.DB, r HistoryRange) *gorm.DB {
	now := s.now().In(s.loc)
	switch r {
	case RangeToday:
		start := dateOnly(now)
		return q.Where("requested_at >= ? AND requested_at < ?", start.UTC(), start.AddDate(0, 0, 1).UTC())
	case RangeWeek:
		return q.Where("requested_at >= ?", now.Add(-7*24*time.Hour).UTC())
	case RangeMonth:
		return q.Where("requested_at >= ?", now.Add(-30*24*time.Hour).UTC())
	}
	return q
}
