package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"service-booking-server/models"
	"service-booking-server/services"
)

// LocationUpdateRequest carries one live position. Values are decimal
// strings; numbers are accepted too.
type LocationUpdateRequest struct {
	Latitude  coordinate `json:"latitude" binding:"required,decimal_coord"`
	Longitude coordinate `json:"longitude" binding:"required,decimal_coord"`
}

type locationUpdate func(ctx context.Context, user *models.User, id uint, lat, lng string) (*services.LocationView, error)

func (h *Handler) updateLocation(c *gin.Context, update locationUpdate) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, services.ErrInvalidCoordinates)
		return
	}

	view, err := update(c.Request.Context(), user, id, string(req.Latitude), string(req.Longitude))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "location": view})
}

func (h *Handler) updateCustomerLocation(c *gin.Context) {
	h.updateLocation(c, h.Locations.UpdateCustomerLocation)
}

func (h *Handler) updateProviderLocation(c *gin.Context) {
	h.updateLocation(c, h.Locations.UpdateProviderLocation)
}

func (h *Handler) bookingLocation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	view, err := h.Locations.View(c.Request.Context(), user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "location": view})
}
