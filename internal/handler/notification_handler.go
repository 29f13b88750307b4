package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
)

// NotificationHandler serves the caller's notification feed.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// GET /api/v1/notifications?unread=true&page=1&per_page=20
// Returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	unread := c.Query("unread") == "true"

	items, pagination, err := h.notificationService.List(c.Request.Context(), claims.UserID, unread, page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, items, pagination)
}

// MarkRead godoc
// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), claims.UserID, id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// MarkAllRead godoc
// POST /api/v1/notifications/read-all
// Marks every unread notification as read and returns how many changed.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), claims.UserID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": n})
}
