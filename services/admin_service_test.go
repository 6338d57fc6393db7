package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-booking-server/models"
	"service-booking-server/services"
)

func TestApproveAndRemoveProvider(t *testing.T) {
	f := newFixture(t)
	pending := f.user(t, "Kiran", models.RoleProvider, models.ProviderStatusPending, true)
	assert.ErrorIs(t, services.CheckProviderAdmission(pending), services.ErrProviderNotAdmitted)

	approved, err := f.admin.ApproveProvider(f.ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStatusApproved, approved.ProviderStatus)
	assert.True(t, approved.IsActive)
	assert.NoError(t, services.CheckProviderAdmission(approved))

	token, err := f.auth.IssueToken(approved)
	require.NoError(t, err)

	removed, err := f.admin.RemoveProvider(f.ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStatusRejected, removed.ProviderStatus)
	assert.False(t, removed.IsActive)
	assert.Equal(t, approved.SessionVersion+1, removed.SessionVersion)

	_, err = f.auth.Authenticate(f.ctx, token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	again, err := f.admin.RemoveProvider(f.ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, removed.SessionVersion, again.SessionVersion, "removal is idempotent")

	_, err = f.admin.ApproveProvider(f.ctx, f.customer.ID)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	_, err = f.admin.RemoveProvider(f.ctx, 9999)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestRemovedProviderIsLockedOut(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)

	removed, err := f.admin.RemoveProvider(f.ctx, f.provider.ID)
	require.NoError(t, err)

	_, err = f.bookings.Accept(f.ctx, removed, b.ID)
	assert.ErrorIs(t, err, services.ErrProviderNotAdmitted)

	_, err = f.bookings.Create(f.ctx, f.customer, services.CreateBookingInput{
		ServiceID: f.service.ID, Date: "2026-03-03", Time: "10:00",
	})
	assert.ErrorIs(t, err, services.ErrProviderUnavailable)
}

func TestListProviders(t *testing.T) {
	f := newFixture(t)
	f.user(t, "P2", models.RoleProvider, models.ProviderStatusPending, true)
	f.user(t, "P3", models.RoleProvider, models.ProviderStatusPending, true)

	all, total, err := f.admin.ListProviders(f.ctx, services.ProviderListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	pending, total, err := f.admin.ListProviders(f.ctx, services.ProviderListFilter{Status: models.ProviderStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range pending {
		assert.Equal(t, models.ProviderStatusPending, p.ProviderStatus)
	}

	page, total, err := f.admin.ListProviders(f.ctx, services.ProviderListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}

func TestProviderDetail(t *testing.T) {
	f := newFixture(t)
	f.book(t)
	f.book(t)

	d, err := f.admin.ProviderDetail(f.ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, f.provider.ID, d.Provider.ID)
	require.Len(t, d.Services, 1)
	assert.Equal(t, "Pipe repair", d.Services[0].Name)
	require.Len(t, d.Bookings, 2)
	require.NotNil(t, d.Bookings[0].Customer)
	assert.Equal(t, "Asha", d.Bookings[0].Customer.FullName)
}

func TestAdmissionGate(t *testing.T) {
	tests := []struct {
		name   string
		user   *models.User
		want   error
		allows bool
	}{
		{"nil actor", nil, services.ErrForbidden, false},
		{"customer", &models.User{Role: models.RoleCustomer}, nil, false},
		{"admin", &models.User{Role: models.RoleAdmin}, nil, false},
		{"approved active provider", &models.User{Role: models.RoleProvider, IsActive: true, ProviderStatus: models.ProviderStatusApproved}, nil, true},
		{"approved inactive provider", &models.User{Role: models.RoleProvider, ProviderStatus: models.ProviderStatusApproved}, services.ErrProviderNotAdmitted, false},
		{"pending provider", &models.User{Role: models.RoleProvider, IsActive: true, ProviderStatus: models.ProviderStatusPending}, services.ErrProviderNotAdmitted, false},
		{"rejected provider", &models.User{Role: models.RoleProvider, IsActive: true, ProviderStatus: models.ProviderStatusRejected}, services.ErrProviderNotAdmitted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := services.CheckProviderAdmission(tt.user)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.allows, services.ProviderAllowed(tt.user))
		})
	}
}
