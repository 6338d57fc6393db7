package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"service-booking-server/models"
	"service-booking-server/services"
	"service-booking-server/utils"
)

// AuthRequest represents the registration request
type AuthRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	FullName    string `json:"full_name" binding:"required"`
	Role        string `json:"role" binding:"omitempty,oneof=customer provider"`
}

// SignInRequest represents the sign in request
type SignInRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("/register", h.signUp)
	router.POST("/login", h.signIn)
}

func (h *Handler) signUp(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !utils.ValidatePhoneNumber(req.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_phone_number",
			"message": "Phone number must have 10 to 15 digits",
		})
		return
	}

	res, err := h.Auth.Register(c.Request.Context(), services.RegisterInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        models.UserRole(req.Role),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// me returns the current actor and, for providers, whether the admission
// gate would let them act.
func (h *Handler) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	body := gin.H{"user": user}
	if user.IsProvider() {
		body["provider_admitted"] = services.ProviderAllowed(user)
	}
	c.JSON(http.StatusOK, body)
}
