package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/models"
	"service-booking-server/utils"
)

const requestedAtLayout = "2006-01-02 15:04"

// BookingService owns the booking lifecycle. Every status change is a
// conditional UPDATE whose WHERE clause carries the source state and the
// guard, so concurrent actions on the same booking cannot both apply.
type BookingService struct {
	db       *gorm.DB
	notifier *NotificationService
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	newCode  func() (string, error)
}

type BookingOption func(*BookingService)

// WithClock overrides the time source used for date checks and expiry.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// WithCodeGenerator overrides confirmation code generation.
func WithCodeGenerator(gen func() (string, error)) BookingOption {
	return func(s *BookingService) { s.newCode = gen }
}

func NewBookingService(db *gorm.DB, notifier *NotificationService, log *zap.Logger, loc *time.Location, opts ...BookingOption) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	s := &BookingService{
		db:       db,
		notifier: notifier,
		log:      log,
		loc:      loc,
		now:      time.Now,
		newCode:  GenerateConfirmationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Outcome is the result of a lifecycle action. Applied is false when the
// booking was not in a state that accepts the action; that is not an error.
type Outcome struct {
	Booking *models.Booking
	Applied bool
}

type CreateBookingInput struct {
	ServiceID       uint
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	Address         string
	UseLiveLocation bool
	Latitude        string
	Longitude       string
}

// GenerateConfirmationCode returns a uniformly random code in 1000-9999.
func GenerateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}

// Create validates a booking request against the service and stores a
// pending booking. The provider is notified in the same transaction.
func (s *BookingService) Create(ctx context.Context, customer *models.User, in CreateBookingInput) (*models.Booking, error) {
	var svc models.Service
	if err := s.db.WithContext(ctx).Preload("Provider").First(&svc, in.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if svc.Provider == nil {
		return nil, ErrServiceNotFound
	}
	if !ProviderAllowed(svc.Provider) {
		return nil, ErrProviderUnavailable
	}
	if customer.ID == svc.ProviderID {
		return nil, ErrSelfBooking
	}

	requested, err := time.ParseInLocation(requestedAtLayout,
		strings.TrimSpace(in.Date)+" "+strings.TrimSpace(in.Time), s.loc)
	if err != nil {
		return nil, ErrInvalidDateTime
	}
	if dateOnly(requested).Before(dateOnly(s.now().In(s.loc))) {
		return nil, ErrPastDate
	}
	if err := checkAvailability(svc.AvailableTime, svc.Days(), requested); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		CustomerID:      customer.ID,
		ProviderID:      svc.ProviderID,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		Amount:          svc.Price,
		RequestedAt:     requested.UTC(),
		ServiceAddress:  strings.TrimSpace(in.Address),
		UseLiveLocation: in.UseLiveLocation,
		Status:          models.BookingStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
	}
	if lat, lng, ok := bookingCoordinates(in.Latitude, in.Longitude); ok {
		booking.CustomerLat = &lat
		booking.CustomerLng = &lng
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		locationText := booking.ServiceAddress
		if locationText == "" {
			locationText = "No address provided"
		}
		if booking.CustomerLat != nil {
			locationText += fmt.Sprintf(" (live: %v, %v)", *booking.CustomerLat, *booking.CustomerLng)
		}
		msg := fmt.Sprintf("New booking from %s for %s. Location: %s", customer.DisplayName(), svc.Name, locationText)
		_, err := s.notifier.Notify(ctx, tx, models.RecipientProvider, booking.ProviderID, &booking.ID, msg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("customer_id", customer.ID),
		zap.Uint("provider_id", booking.ProviderID))
	return booking, nil
}

// bookingCoordinates keeps creation-time coordinates only when both parse
// and fall inside the national bounding box.
func bookingCoordinates(latRaw, lngRaw string) (float64, float64, bool) {
	if strings.TrimSpace(latRaw) == "" || strings.TrimSpace(lngRaw) == "" {
		return 0, 0, false
	}
	lat, lng, ok := utils.ParseCoordinates(latRaw, lngRaw)
	if !ok || !utils.InIndia(lat, lng) {
		return 0, 0, false
	}
	return utils.RoundCoordinate(lat), utils.RoundCoordinate(lng), true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Accept moves a pending booking to accepted with a fresh confirmation code.
func (s *BookingService) Accept(ctx context.Context, provider *models.User, id uint) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireProvider(provider, b); err != nil {
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}

	return s.apply(ctx, id, acceptEdge, nil, map[string]interface{}{"otp": code},
		func(tx *gorm.DB, b *models.Booking) error {
			if err := s.notifier.MarkBookingRead(ctx, tx, provider.ID, b.ID); err != nil {
				return err
			}
			msg := fmt.Sprintf("Your booking #%d was accepted by %s. OTP: %s", b.ID, provider.DisplayName(), code)
			_, err := s.notifier.Notify(ctx, tx, models.RecipientCustomer, b.CustomerID, &b.ID, msg)
			return err
		})
}

// RejectByProvider declines a pending booking.
func (s *BookingService) RejectByProvider(ctx context.Context, provider *models.User, id uint) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireProvider(provider, b); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, rejectByProviderEdge, nil, nil,
		func(tx *gorm.DB, b *models.Booking) error {
			if err := s.notifier.MarkBookingRead(ctx, tx, provider.ID, b.ID); err != nil {
				return err
			}
			msg := fmt.Sprintf("Your booking #%d was rejected by %s.", b.ID, provider.DisplayName())
			_, err := s.notifier.Notify(ctx, tx, models.RecipientCustomer, b.CustomerID, &b.ID, msg)
			return err
		})
}

// CancelByCustomer withdraws a booking the provider has not accepted yet.
func (s *BookingService) CancelByCustomer(ctx context.Context, customer *models.User, id uint) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireCustomer(customer, b); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, cancelByCustomerEdge, nil, nil,
		func(tx *gorm.DB, b *models.Booking) error {
			msg := fmt.Sprintf("User cancelled booking #%d before provider acceptance.", b.ID)
			_, err := s.notifier.Notify(ctx, tx, models.RecipientProvider, b.ProviderID, &b.ID, msg)
			return err
		})
}

// Start begins the job when the submitted code matches. A mismatch on an
// accepted booking returns ErrInvalidCode together with the unchanged booking.
func (s *BookingService) Start(ctx context.Context, provider *models.User, id uint, code string) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireProvider(provider, b); err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	out, err := s.apply(ctx, id, startEdge,
		func(q *gorm.DB) *gorm.DB { return q.Where("otp = ?", code) },
		nil,
		func(tx *gorm.DB, b *models.Booking) error {
			msg := fmt.Sprintf("Provider accepted OTP for booking #%d. Work in progress.", b.ID)
			_, err := s.notifier.Notify(ctx, tx, models.RecipientCustomer, b.CustomerID, &b.ID, msg)
			return err
		})
	if err != nil {
		return nil, err
	}
	if !out.Applied && out.Booking.Status == models.BookingStatusAccepted {
		s.log.Info("confirmation code mismatch", zap.Uint("booking_id", id), zap.Uint("provider_id", provider.ID))
		return out, ErrInvalidCode
	}
	return out, nil
}

// MarkDone records that the provider finished the work. It can be set once.
func (s *BookingService) MarkDone(ctx context.Context, provider *models.User, id uint) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireProvider(provider, b); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, markDoneEdge,
		func(q *gorm.DB) *gorm.DB { return q.Where("provider_marked_done = ?", false) },
		map[string]interface{}{"provider_marked_done": true},
		func(tx *gorm.DB, b *models.Booking) error {
			msg := fmt.Sprintf("Provider marked booking #%d as done. Please complete payment.", b.ID)
			_, err := s.notifier.Notify(ctx, tx, models.RecipientCustomer, b.CustomerID, &b.ID, msg)
			return err
		})
}

// ConfirmPayment completes a booking the provider has marked done.
func (s *BookingService) ConfirmPayment(ctx context.Context, customer *models.User, id uint, mode models.PaymentMode) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireCustomer(customer, b); err != nil {
		return nil, err
	}
	if !mode.IsValid() {
		return nil, ErrInvalidPaymentMode
	}

	return s.apply(ctx, id, confirmPaymentEdge,
		func(q *gorm.DB) *gorm.DB { return q.Where("provider_marked_done = ?", true) },
		map[string]interface{}{
			"payment_mode":   mode,
			"payment_status": models.PaymentStatusPaid,
		},
		func(tx *gorm.DB, b *models.Booking) error {
			msg := fmt.Sprintf("User completed %s payment for booking #%d.", mode, b.ID)
			_, err := s.notifier.Notify(ctx, tx, models.RecipientProvider, b.ProviderID, &b.ID, msg)
			return err
		})
}

// SubmitFeedback stores the customer's rating once, after payment.
func (s *BookingService) SubmitFeedback(ctx context.Context, customer *models.User, id uint, rating int, text string) (*Outcome, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireCustomer(customer, b); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	return s.apply(ctx, id, submitFeedbackEdge,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("payment_status = ? AND feedback_rating IS NULL", models.PaymentStatusPaid)
		},
		map[string]interface{}{
			"feedback_rating": rating,
			"feedback_text":   strings.TrimSpace(text),
		},
		func(tx *gorm.DB, b *models.Booking) error {
			msg := fmt.Sprintf("You received %d/5 feedback for booking #%d.", rating, b.ID)
			_, err := s.notifier.Notify(ctx, tx, models.RecipientProvider, b.ProviderID, &b.ID, msg)
			return err
		})
}

// ExpireStale rejects pending bookings whose requested time is before
// cutoff and notifies both parties. It returns how many were expired.
func (s *BookingService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	cutoff = cutoff.UTC()

	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND requested_at < ?", models.BookingStatusPending, cutoff).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		out, err := s.apply(ctx, id, expireEdge,
			func(q *gorm.DB) *gorm.DB { return q.Where("requested_at < ?", cutoff) },
			nil,
			func(tx *gorm.DB, b *models.Booking) error {
				msg := fmt.Sprintf("Booking #%d expired without a response from the provider.", b.ID)
				if _, err := s.notifier.Notify(ctx, tx, models.RecipientCustomer, b.CustomerID, &b.ID, msg); err != nil {
					return err
				}
				msg = fmt.Sprintf("Booking #%d expired before you responded.", b.ID)
				_, err := s.notifier.Notify(ctx, tx, models.RecipientProvider, b.ProviderID, &b.ID, msg)
				return err
			})
		if err != nil {
			return expired, err
		}
		if out.Applied {
			expired++
		}
	}
	return expired, nil
}

// apply runs one lifecycle edge as a compare-and-swap. The UPDATE matches
// only while the row is still in edge.from and satisfies guard; when it
// matches, after runs in the same transaction with the updated row.
func (s *BookingService) apply(
	ctx context.Context,
	id uint,
	edge transition,
	guard func(*gorm.DB) *gorm.DB,
	updates map[string]interface{},
	after func(tx *gorm.DB, b *models.Booking) error,
) (*Outcome, error) {
	values := map[string]interface{}{"status": edge.to}
	for k, v := range updates {
		values[k] = v
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", id, edge.from)
		if guard != nil {
			q = guard(q)
		}
		res := q.Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if after == nil {
			return nil
		}
		var b models.Booking
		if err := tx.First(&b, id).Error; err != nil {
			return err
		}
		return after(tx, &b)
	})
	if err != nil {
		return nil, fmt.Errorf("booking %d %s: %w", id, edge.event, err)
	}

	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if applied {
		s.log.Info("booking transition",
			zap.Uint("booking_id", id),
			zap.String("event", string(edge.event)),
			zap.String("from", string(edge.from)),
			zap.String("to", string(edge.to)))
	} else {
		s.log.Debug("booking transition skipped",
			zap.Uint("booking_id", id),
			zap.String("event", string(edge.event)),
			zap.String("status", string(b.Status)))
	}
	return &Outcome{Booking: b, Applied: applied}, nil
}

func (s *BookingService) find(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}
