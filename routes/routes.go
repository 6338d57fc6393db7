package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/config"
	"service-booking-server/database"
	"service-booking-server/middleware"
	"service-booking-server/services"
	"service-booking-server/utils"
)

// Handler carries the services the HTTP handlers delegate to.
type Handler struct {
	DB            *gorm.DB
	Log           *zap.Logger
	Loc           *time.Location
	Auth          *services.AuthService
	Bookings      *services.BookingService
	Locations     *services.LocationService
	Notifications *services.NotificationService
	Reports       *services.ReportService
	Admin         *services.AdminService
	Limiter       *middleware.RateLimiter
}

// NewHandler wires every service over db.
func NewHandler(cfg *config.Config, db *gorm.DB, log *zap.Logger) *Handler {
	loc := cfg.Location()
	notifier := services.NewNotificationService(db, log, cfg.Booking.PollPageSize)
	return &Handler{
		DB:            db,
		Log:           log,
		Loc:           loc,
		Auth:          services.NewAuthService(db, log, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
		Bookings:      services.NewBookingService(db, notifier, log, loc),
		Locations:     services.NewLocationService(db, log),
		Notifications: notifier,
		Reports:       services.NewReportService(db, notifier, log, cfg.Booking.ReportReasonMax),
		Admin:         services.NewAdminService(db, log),
		Limiter:       middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute, cfg.Security.RateLimitBurst),
	}
}

// Setup builds the gin engine with the middleware stack and every route.
func Setup(cfg *config.Config, h *Handler) *gin.Engine {
	if err := utils.RegisterValidators(); err != nil {
		h.Log.Fatal("register validators", zap.Error(err))
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	limiter := h.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute, cfg.Security.RateLimitBurst)
	}

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.Recovery(h.Log))
	router.Use(middleware.AuditLogMiddleware(h.Log))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware(limiter, h.Log))

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware(limiter, h.Log))
		RegisterAuthRoutes(authRoutes, h)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(h.Auth, h.Log))
		{
			protected.GET("/me", h.me)
			RegisterBookingRoutes(protected.Group("/bookings"), h)
			RegisterNotificationRoutes(protected.Group("/notifications"), h)

			adminRoutes := protected.Group("/admin")
			adminRoutes.Use(middleware.AdminOnly())
			RegisterAdminRoutes(adminRoutes, h)
		}
	}

	return router
}

func (h *Handler) health(c *gin.Context) {
	if err := database.Ping(h.DB); err != nil {
		h.Log.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": "unreachable",
			"time":     time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
		"time":     time.Now().UTC(),
	})
}
