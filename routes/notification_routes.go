package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const pollTimeLayout = "02 Jan 2006 03:04 PM"

// pollItem is the compact shape the client-side poller renders.
type pollItem struct {
	ID        uint   `json:"id"`
	Message   string `json:"message"`
	BookingID *uint  `json:"booking_id"`
	CreatedAt string `json:"created_at"`
}

// RegisterNotificationRoutes registers the notification center and poll routes
func RegisterNotificationRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("", h.listNotifications)
	router.GET("/unread-count", h.unreadCount)
	router.GET("/poll", h.pollNotifications)
	router.POST("/read-all", h.markAllNotificationsRead)
	router.POST("/:id/read", h.markNotificationRead)
}

func (h *Handler) listNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("tab") == "unread"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	notifications, err := h.Notifications.List(c.Request.Context(), user, unreadOnly, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	tab := "all"
	if unreadOnly {
		tab = "unread"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tab": tab, "notifications": notifications})
}

func (h *Handler) unreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := h.Notifications.UnreadCount(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "unread_count": count})
}

// pollNotifications returns what arrived after since_id. A missing,
// malformed or negative since_id starts from the beginning.
func (h *Handler) pollNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var since uint
	if v, err := strconv.ParseUint(c.Query("since_id"), 10, 64); err == nil {
		since = uint(v)
	}

	res, err := h.Notifications.Poll(c.Request.Context(), user, since)
	if err != nil {
		h.respondError(c, err)
		return
	}
	items := make([]pollItem, 0, len(res.Notifications))
	for _, n := range res.Notifications {
		items = append(items, pollItem{
			ID:        n.ID,
			Message:   n.Message,
			BookingID: n.BookingID,
			CreatedAt: h.localTime(n.CreatedAt).Format(pollTimeLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"notifications": items,
		"latest_id":     res.Cursor,
	})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	updated, err := h.Notifications.MarkRead(c.Request.Context(), user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

func (h *Handler) localTime(t time.Time) time.Time {
	if h.Loc == nil {
		return t
	}
	return t.In(h.Loc)
}
