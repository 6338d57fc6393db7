package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-booking-server/models"
	"service-booking-server/services"
)

func TestHistory(t *testing.T) {
	f := newFixture(t)
	today, err := f.bookings.Create(f.ctx, f.customer, services.CreateBookingInput{
		ServiceID: f.service.ID, Date: "2026-03-02", Time: "17:00",
	})
	require.NoError(t, err)
	done := f.book(t)
	f.advance(t, done, stageCompleted)
	f.book(t)

	res, err := f.bookings.History(f.ctx, f.customer, services.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 3)
	assert.EqualValues(t, 3, res.Summary.Total)
	assert.EqualValues(t, 2, res.Summary.Active)
	assert.EqualValues(t, 1, res.Summary.Completed)
	assert.Zero(t, res.Summary.Earnings)

	res, err = f.bookings.History(f.ctx, f.customer, services.HistoryFilter{Range: services.RangeToday})
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, today.ID, res.Bookings[0].ID)
	assert.EqualValues(t, 3, res.Summary.Total, "counters ignore the filters")

	res, err = f.bookings.History(f.ctx, f.customer, services.HistoryFilter{Status: models.BookingStatusCompleted})
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, done.ID, res.Bookings[0].ID)

	res, err = f.bookings.History(f.ctx, f.provider, services.HistoryFilter{Range: services.RangeWeek})
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 3)
	assert.Equal(t, 500.0, res.Summary.Earnings)
	for _, b := range res.Bookings {
		if b.ID == done.ID {
			assert.Nil(t, b.CustomerLat, "completed bookings hide the customer's position")
		}
	}

	_, err = f.bookings.History(f.ctx, f.customer, services.HistoryFilter{As: models.RecipientProvider})
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestParseHistoryRange(t *testing.T) {
	assert.Equal(t, services.RangeToday, services.ParseHistoryRange("today"))
	assert.Equal(t, services.RangeMonth, services.ParseHistoryRange("month"))
	assert.Equal(t, services.RangeAll, services.ParseHistoryRange("year"))
	assert.Equal(t, services.RangeAll, services.ParseHistoryRange(""))
}

func TestDetailPerViewer(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)
	f.advance(t, b, stageAccepted)

	customerView, err := f.bookings.Detail(f.ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "customer", customerView.ViewerRole)
	assert.Equal(t, testCode, customerView.Code)
	assert.False(t, customerView.CodePrompt)
	assert.False(t, customerView.ReportExists)
	assert.NotEmpty(t, customerView.CustomerMapURL)
	assert.Empty(t, customerView.ProviderMapURL)
	assert.NotZero(t, customerView.LatestNotificationID)

	providerView, err := f.bookings.Detail(f.ctx, f.provider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "provider", providerView.ViewerRole)
	assert.Empty(t, providerView.Code)
	assert.True(t, providerView.CodePrompt)

	adminView, err := f.bookings.Detail(f.ctx, f.staff, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", adminView.ViewerRole)
	assert.Empty(t, adminView.Code)

	_, _, err = f.reports.File(f.ctx, f.customer, b.ID, "late", "")
	require.NoError(t, err)
	customerView, err = f.bookings.Detail(f.ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.True(t, customerView.ReportExists)

	stranger := f.user(t, "Stranger", models.RoleCustomer, models.ProviderStatusPending, true)
	_, err = f.bookings.Detail(f.ctx, stranger, b.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestDetailHidesCodeOnceStarted(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)
	f.advance(t, b, stageStarted)

	d, err := f.bookings.Detail(f.ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Code)

	d, err = f.bookings.Detail(f.ctx, f.provider, b.ID)
	require.NoError(t, err)
	assert.False(t, d.CodePrompt)
}
