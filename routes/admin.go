package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"service-booking-server/models"
	"service-booking-server/services"
)

// RegisterAdminRoutes registers the moderation routes. The group must be
// guarded by middleware.AdminOnly.
func RegisterAdminRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/reports", h.listReports)
	router.GET("/reports/:id", h.reportDetail)

	router.GET("/providers", h.listProviders)
	router.GET("/providers/:id", h.providerDetail)
	router.POST("/providers/:id/approve", h.approveProvider)
	router.POST("/providers/:id/remove", h.removeProvider)
}

func (h *Handler) listReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	reports, err := h.Reports.List(c.Request.Context(), services.ReportFilter{
		UnreviewedOnly: c.Query("unreviewed") == "true",
		Limit:          limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reports})
}

// reportDetail shows one report and marks it reviewed.
func (h *Handler) reportDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Reports.Detail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

func (h *Handler) listProviders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	status := models.ProviderStatus(c.Query("status"))
	switch status {
	case "", models.ProviderStatusPending, models.ProviderStatusApproved, models.ProviderStatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "unknown provider status"})
		return
	}

	providers, total, err := h.Admin.ListProviders(c.Request.Context(), services.ProviderListFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    providers,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *Handler) providerDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Admin.ProviderDetail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

func (h *Handler) approveProvider(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	provider, err := h.Admin.ApproveProvider(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": provider})
}

func (h *Handler) removeProvider(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	provider, err := h.Admin.RemoveProvider(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": provider})
}
