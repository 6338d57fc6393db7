package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"service-booking-server/middleware"
	"service-booking-server/models"
	"service-booking-server/services"
)

// errorCodes gives each known service error a stable machine-readable code.
var errorCodes = map[error]string{
	services.ErrInvalidDateTime:     "invalid_datetime",
	services.ErrPastDate:            "past_date",
	services.ErrUnavailableTime:     "unavailable_time",
	services.ErrUnavailableDay:      "unavailable_day",
	services.ErrInvalidCoordinates:  "invalid_coordinates",
	services.ErrInvalidPaymentMode:  "invalid_payment_mode",
	services.ErrInvalidRating:       "invalid_rating",
	services.ErrReasonRequired:      "reason_required",
	services.ErrSelfBooking:         "self_booking",
	services.ErrProviderUnavailable: "provider_unavailable",
	services.ErrInvalidRole:         "invalid_role",
	services.ErrForbidden:           "forbidden",
	services.ErrInvalidCode:         "invalid_code",
	services.ErrBookingNotFound:     "booking_not_found",
	services.ErrServiceNotFound:     "service_not_found",
	services.ErrReportNotFound:      "report_not_found",
	services.ErrUserNotFound:        "user_not_found",
	services.ErrInvalidCredentials:  "invalid_credentials",
	services.ErrPhoneTaken:          "phone_taken",
	services.ErrInvalidToken:        "unauthorized",
}

func errorCode(err error) string {
	for target, code := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return "internal_error"
}

// respondError maps a service error to its HTTP response. A provider
// admission denial also ends the actor's sessions.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrProviderNotAdmitted) {
		if user, ok := middleware.CurrentUser(c); ok {
			middleware.AbortSessionTerminated(c, h.Auth, h.Log, user)
			return
		}
	}

	status := http.StatusInternalServerError
	switch {
	case services.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrProviderNotAdmitted):
		status = http.StatusForbidden
	case services.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrPhoneTaken):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{
			"error":   "internal_error",
			"message": "Internal server error",
		})
		return
	}

	body := gin.H{"error": errorCode(err), "message": err.Error()}
	if status == http.StatusBadRequest {
		body["reason"] = errorCode(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError answers a request whose body or query failed binding.
func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": err.Error(),
	})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// currentUser fetches the authenticated user or aborts with 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Authentication required",
		})
		return nil, false
	}
	return user, true
}
