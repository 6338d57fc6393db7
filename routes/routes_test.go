package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"service-booking-server/config"
	"service-booking-server/database/dbtest"
	"service-booking-server/models"
	"service-booking-server/routes"
)

type testServer struct {
	t      *testing.T
	h      *routes.Handler
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env: "test",
		JWT: config.JWTConfig{Secret: "routes-test-secret", ExpiryHours: 1},
		Security: config.SecurityConfig{
			AllowedOrigins:     "http://localhost:3000",
			RateLimitPerMinute: 6000,
			RateLimitBurst:     1000,
		},
		Booking: config.BookingConfig{Timezone: "UTC", PollPageSize: 20, ReportReasonMax: 120},
	}
	h := routes.NewHandler(cfg, dbtest.New(t), zap.NewNop())
	return &testServer{t: t, h: h, router: routes.Setup(cfg, h)}
}

func (s *testServer) user(name, phone string, role models.UserRole, status models.ProviderStatus) (*models.User, string) {
	s.t.Helper()
	u := &models.User{
		FullName:       name,
		PhoneNumber:    phone,
		PasswordHash:   "x",
		Role:           role,
		IsActive:       true,
		ProviderStatus: status,
	}
	require.NoError(s.t, s.h.DB.Create(u).Error)
	token, err := s.h.Auth.IssueToken(u)
	require.NoError(s.t, err)
	return u, token
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"phone_number": "98450 12345",
		"password":     "secret123",
		"full_name":    "Asha",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"phone_number": "9845012345",
		"password":     "secret123",
		"full_name":    "Asha again",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"phone_number": "9845012345",
		"password":     "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"phone_number": "9845012345",
		"password":     "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := body["access_token"].(string)

	w, body = s.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Asha", user["full_name"])

	w, _ = s.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, customerToken := s.user("Asha", "9000000002", models.RoleCustomer, models.ProviderStatusPending)
	provider, providerToken := s.user("Ravi", "9000000003", models.RoleProvider, models.ProviderStatusApproved)
	svc := &models.Service{ProviderID: provider.ID, Name: "Pipe repair", Price: 500}
	require.NoError(t, s.h.DB.Create(svc).Error)

	w, body := s.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]interface{}{
		"service_id":      svc.ID,
		"date":            tomorrow(),
		"time":            "10:30",
		"service_address": "12 MG Road",
		"latitude":        12.9716,
		"longitude":       "77.5946",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := body["booking"].(map[string]interface{})
	id := uint(booking["id"].(float64))
	assert.Equal(t, "pending", booking["status"])
	assert.Equal(t, 12.9716, booking["customer_lat"])

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", id), customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", body["error"])

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", id), customerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, "a wrong-party action keeps the session")

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", id), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["applied"])

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", id), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["applied"], "a repeated action is a no-op")

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/start", id), providerToken, map[string]string{"code": "0000"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_code", body["error"])
	assert.Equal(t, "accepted", body["booking"].(map[string]interface{})["status"])

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/start", id), providerToken, map[string]string{"code": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "an empty code is a wrong code")
	assert.Equal(t, "invalid_code", body["error"])
	assert.Equal(t, "accepted", body["booking"].(map[string]interface{})["status"])

	w, body = s.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", id), customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := body["detail"].(map[string]interface{})
	code := detail["code"].(string)
	require.Len(t, code, 4)

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/start", id), providerToken, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["applied"])

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/payment", id), customerToken, map[string]string{"payment_mode": "card"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/done", id), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = s.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d/location", id), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	loc := body["location"].(map[string]interface{})
	assert.Equal(t, true, loc["customer_hidden"])
	assert.Nil(t, loc["latitude"])

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/payment", id), customerToken, map[string]string{"payment_mode": "Cash"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", body["booking"].(map[string]interface{})["status"])

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/feedback", id), customerToken, map[string]interface{}{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_rating", body["reason"])

	w, body = s.do(http.MethodGet, "/api/v1/bookings?as=provider", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(500), summary["earnings"])
}

func TestCreateBookingValidation(t *testing.T) {
	s := newTestServer(t)
	_, customerToken := s.user("Asha", "9000000002", models.RoleCustomer, models.ProviderStatusPending)
	provider, _ := s.user("Ravi", "9000000003", models.RoleProvider, models.ProviderStatusApproved)
	svc := &models.Service{ProviderID: provider.ID, Name: "Pipe repair", Price: 500, AvailableTime: "09:00-18:00"}
	require.NoError(t, s.h.DB.Create(svc).Error)

	w, body := s.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]interface{}{
		"service_id": svc.ID, "date": tomorrow(), "time": "20:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unavailable_time", body["reason"])

	w, _ = s.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]interface{}{
		"service_id": svc.ID, "date": "tomorrow", "time": "10:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]interface{}{
		"service_id": svc.ID, "date": tomorrow(), "time": "10:00", "latitude": true, "longitude": "abc",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Nil(t, body["booking"].(map[string]interface{})["customer_lat"])

	var count int64
	require.NoError(t, s.h.DB.Model(&models.Booking{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPollOverHTTP(t *testing.T) {
	s := newTestServer(t)
	customer, token := s.user("Asha", "9000000002", models.RoleCustomer, models.ProviderStatusPending)

	var ids []uint
	for i := 0; i < 3; i++ {
		n, err := s.h.Notifications.Notify(context.Background(), nil, models.RecipientCustomer, customer.ID, nil, fmt.Sprintf("note %d", i))
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	w, body := s.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/poll?since_id=%d", ids[0]), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["notifications"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, float64(ids[1]), first["id"])
	assert.Equal(t, "note 1", first["message"])
	_, err := time.Parse("02 Jan 2006 03:04 PM", first["created_at"].(string))
	assert.NoError(t, err)
	assert.Equal(t, float64(ids[2]), body["latest_id"])

	w, body = s.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/poll?since_id=%d", ids[2]), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["notifications"])
	assert.Equal(t, float64(ids[2]), body["latest_id"])

	w, body = s.do(http.MethodGet, "/api/v1/notifications/poll?since_id=-4", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["notifications"], 3)

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/read", ids[0]), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["updated"])

	w, body = s.do(http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["unread_count"])
}

func TestUnadmittedProviderSessionIsTerminated(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user("Kiran", "9000000005", models.RoleProvider, models.ProviderStatusPending)

	w, body := s.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["provider_admitted"])

	w, body = s.do(http.MethodPost, "/api/v1/bookings/1/accept", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, true, body["session_terminated"])
	assert.Equal(t, "/", body["redirect"])

	w, _ = s.do(http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "the old token no longer works")
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("Admin", "9000000001", models.RoleAdmin, models.ProviderStatusApproved)
	_, customerToken := s.user("Asha", "9000000002", models.RoleCustomer, models.ProviderStatusPending)
	pending, _ := s.user("Kiran", "9000000005", models.RoleProvider, models.ProviderStatusPending)

	w, _ := s.do(http.MethodGet, "/api/v1/admin/providers", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(http.MethodGet, "/api/v1/admin/providers?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	w, _ = s.do(http.MethodGet, "/api/v1/admin/providers?status=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/providers/%d/approve", pending.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", body["data"].(map[string]interface{})["provider_status"])

	w, _ = s.do(http.MethodPost, "/api/v1/admin/providers/9999/remove", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/admin/reports/abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
