package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"service-booking-server/middleware"
	"service-booking-server/models"
	"service-booking-server/services"
)

// coordinate accepts a JSON number or string and keeps its text. Anything
// else decodes to "" so creation can drop it instead of failing the request.
type coordinate string

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = coordinate(s)
		return nil
	}
	if len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		*c = coordinate(data)
		return nil
	}
	*c = ""
	return nil
}

type CreateBookingRequest struct {
	ServiceID       uint       `json:"service_id" binding:"required"`
	Date            string     `json:"date" binding:"required,ymd"`
	Time            string     `json:"time" binding:"required,hhmm"`
	ServiceAddress  string     `json:"service_address" binding:"max=255"`
	UseLiveLocation bool       `json:"use_live_location"`
	Latitude        coordinate `json:"latitude"`
	Longitude       coordinate `json:"longitude"`
}

type StartRequest struct {
	Code string `json:"code"`
}

type PaymentRequest struct {
	PaymentMode string `json:"payment_mode" binding:"required,payment_mode"`
}

type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback" binding:"max=2000"`
}

type ReportRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details" binding:"max=5000"`
}

// RegisterBookingRoutes registers booking lifecycle, tracking and report routes
func RegisterBookingRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("", h.createBooking)
	router.GET("", h.bookingHistory)
	router.GET("/:id", h.bookingDetail)

	provider := router.Group("/:id")
	provider.Use(middleware.ProviderAdmission(h.Auth, h.Log))
	{
		provider.POST("/accept", h.acceptBooking)
		provider.POST("/reject", h.rejectBooking)
		provider.POST("/start", h.startBooking)
		provider.POST("/done", h.markBookingDone)
		provider.POST("/location/provider", h.updateProviderLocation)
	}

	router.POST("/:id/cancel", h.cancelBooking)
	router.POST("/:id/payment", h.confirmPayment)
	router.POST("/:id/feedback", h.submitFeedback)
	router.POST("/:id/location/customer", h.updateCustomerLocation)
	router.GET("/:id/location", h.bookingLocation)
	router.POST("/:id/report", h.fileReport)
}

func (h *Handler) createBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booking, err := h.Bookings.Create(c.Request.Context(), user, services.CreateBookingInput{
		ServiceID:       req.ServiceID,
		Date:            req.Date,
		Time:            req.Time,
		Address:         req.ServiceAddress,
		UseLiveLocation: req.UseLiveLocation,
		Latitude:        string(req.Latitude),
		Longitude:       string(req.Longitude),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": booking})
}

func (h *Handler) bookingHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	f := services.HistoryFilter{
		Range: services.ParseHistoryRange(strings.TrimSpace(c.Query("range"))),
	}
	switch as := c.Query("as"); as {
	case "":
	case string(models.RecipientCustomer), string(models.RecipientProvider):
		f.As = models.RecipientKind(as)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "as must be customer or provider"})
		return
	}
	if status := c.Query("status"); status != "" {
		f.Status = models.BookingStatus(status)
		if !f.Status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "unknown status"})
			return
		}
	}

	res, err := h.Bookings.History(c.Request.Context(), user, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"range":    f.Range,
		"bookings": res.Bookings,
		"summary":  res.Summary,
	})
}

func (h *Handler) bookingDetail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.Bookings.Detail(c.Request.Context(), user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "detail": detail})
}

type lifecycleAction func(ctx context.Context, user *models.User, id uint) (*services.Outcome, error)

// runLifecycle executes one lifecycle action and writes the common response.
// A state guard that did not hold is still a 200 with applied=false.
func (h *Handler) runLifecycle(c *gin.Context, action lifecycleAction) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	out, err := action(c.Request.Context(), user, id)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCode) && out != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "invalid_code",
				"message": err.Error(),
				"booking": services.MaskBooking(out.Booking, user.ID),
			})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"applied": out.Applied,
		"booking": services.MaskBooking(out.Booking, user.ID),
	})
}

func (h *Handler) acceptBooking(c *gin.Context) {
	h.runLifecycle(c, h.Bookings.Accept)
}

func (h *Handler) rejectBooking(c *gin.Context) {
	h.runLifecycle(c, h.Bookings.RejectByProvider)
}

func (h *Handler) cancelBooking(c *gin.Context) {
	h.runLifecycle(c, h.Bookings.CancelByCustomer)
}

func (h *Handler) markBookingDone(c *gin.Context) {
	h.runLifecycle(c, h.Bookings.MarkDone)
}

func (h *Handler) startBooking(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.runLifecycle(c, func(ctx context.Context, user *models.User, id uint) (*services.Outcome, error) {
		return h.Bookings.Start(ctx, user, id, req.Code)
	})
}

func (h *Handler) confirmPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	mode := models.PaymentMode(strings.ToLower(strings.TrimSpace(req.PaymentMode)))
	h.runLifecycle(c, func(ctx context.Context, user *models.User, id uint) (*services.Outcome, error) {
		return h.Bookings.ConfirmPayment(ctx, user, id, mode)
	})
}

func (h *Handler) submitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.runLifecycle(c, func(ctx context.Context, user *models.User, id uint) (*services.Outcome, error) {
		return h.Bookings.SubmitFeedback(ctx, user, id, req.Rating, req.Feedback)
	})
}

func (h *Handler) fileReport(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	report, created, err := h.Reports.File(c.Request.Context(), user, id, req.Reason, req.Details)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "created": created, "report": report})
}
