package services_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/database/dbtest"
	"service-booking-server/models"
	"service-booking-server/services"
)

const testCode = "4321"

var (
	ist     = time.FixedZone("IST", 5*3600+1800)
	testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, ist) // a Monday
)

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	notifier  *services.NotificationService
	bookings  *services.BookingService
	locations *services.LocationService
	reports   *services.ReportService
	admin     *services.AdminService
	auth      *services.AuthService

	customer *models.User
	provider *models.User
	staff    *models.User
	service  *models.Service

	phone int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := zap.NewNop()
	notifier := services.NewNotificationService(db, log, 20)

	f := &fixture{
		ctx:      context.Background(),
		db:       db,
		notifier: notifier,
		bookings: services.NewBookingService(db, notifier, log, ist,
			services.WithClock(func() time.Time { return testNow }),
			services.WithCodeGenerator(func() (string, error) { return testCode, nil })),
		locations: services.NewLocationService(db, log),
		reports:   services.NewReportService(db, notifier, log, 120),
		admin:     services.NewAdminService(db, log),
		auth:      services.NewAuthService(db, log, "test-secret", time.Hour),
	}
	f.customer = f.user(t, "Asha", models.RoleCustomer, models.ProviderStatusPending, true)
	f.provider = f.user(t, "Ravi", models.RoleProvider, models.ProviderStatusApproved, true)
	f.staff = f.user(t, "Admin", models.RoleAdmin, models.ProviderStatusApproved, true)
	f.service = f.offer(t, f.provider, "Pipe repair", 500, "09:00-18:00", "")
	return f
}

func (f *fixture) user(t *testing.T, name string, role models.UserRole, status models.ProviderStatus, active bool) *models.User {
	t.Helper()
	f.phone++
	u := &models.User{
		FullName:       name,
		PhoneNumber:    fmt.Sprintf("98765%05d", f.phone),
		PasswordHash:   "x",
		Role:           role,
		IsActive:       active,
		ProviderStatus: status,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) offer(t *testing.T, provider *models.User, name string, price float64, window, days string) *models.Service {
	t.Helper()
	s := &models.Service{
		ProviderID:    provider.ID,
		Name:          name,
		Price:         price,
		AvailableTime: window,
		AvailableDays: days,
	}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

// book creates a pending booking for tomorrow at 10:30.
func (f *fixture) book(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.bookings.Create(f.ctx, f.customer, services.CreateBookingInput{
		ServiceID: f.service.ID,
		Date:      "2026-03-03",
		Time:      "10:30",
		Address:   "12 MG Road",
		Latitude:  "12.9716",
		Longitude: "77.5946",
	})
	require.NoError(t, err)
	return b
}

type stage int

const (
	stageAccepted stage = iota + 1
	stageStarted
	stageMarkedDone
	stageCompleted
)

// advance drives b through the lifecycle until it reaches target.
func (f *fixture) advance(t *testing.T, b *models.Booking, target stage) {
	t.Helper()
	steps := []func() (*services.Outcome, error){
		func() (*services.Outcome, error) { return f.bookings.Accept(f.ctx, f.provider, b.ID) },
		func() (*services.Outcome, error) { return f.bookings.Start(f.ctx, f.provider, b.ID, testCode) },
		func() (*services.Outcome, error) { return f.bookings.MarkDone(f.ctx, f.provider, b.ID) },
		func() (*services.Outcome, error) {
			return f.bookings.ConfirmPayment(f.ctx, f.customer, b.ID, models.PaymentModeCash)
		},
	}
	for _, step := range steps[:target] {
		out, err := step()
		require.NoError(t, err)
		require.True(t, out.Applied)
	}
}

func (f *fixture) reload(t *testing.T, id uint) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.First(&b, id).Error)
	return &b
}

func (f *fixture) notificationsFor(t *testing.T, u *models.User) []models.Notification {
	t.Helper()
	var ns []models.Notification
	require.NoError(t, f.db.Where("recipient_id = ?", u.ID).Order("id").Find(&ns).Error)
	return ns
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
