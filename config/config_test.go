package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgresql://localhost/booking_test")

	cfg := Load()

	assert.Same(t, cfg, AppConfig)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Booking.PollPageSize)
	assert.Equal(t, 120, cfg.Booking.ReportReasonMax)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.ExpiryGrace)
	assert.True(t, cfg.Jobs.ExpiryEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_URL", "postgresql://localhost/booking_test")
	t.Setenv("PORT", "9090")
	t.Setenv("POLL_PAGE_SIZE", "5")
	t.Setenv("EXPIRY_JOB_INTERVAL", "90s")
	t.Setenv("EXPIRY_JOB_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Booking.PollPageSize)
	assert.Equal(t, 90*time.Second, cfg.Jobs.ExpiryInterval)
	assert.False(t, cfg.Jobs.ExpiryEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Env: "production", JWT: JWTConfig{Secret: "change-this-secret-in-production"}, Booking: BookingConfig{Timezone: "Nowhere/Invalid"}}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "BOOKING_TIMEZONE")
}
