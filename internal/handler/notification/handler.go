package notification

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// Handler serves the caller's notification inbox. Every route expects an
// identity placed on the context by the auth middleware.
type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", h.CreateNotification)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
	r.POST("/device-tokens", h.RegisterDeviceToken)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var page model.Pagination
	if !handler.BindQuery(c, &page) {
		return
	}

	result, err := h.service.List(c.Request.Context(), identity, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateNotification only targets the caller's own inbox. Notifications
// for other users are raised by the appointment lifecycle.
func (h *Handler) CreateNotification(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.CreateNotificationRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if req.UserID != identity.UserID || req.UserType != identity.UserType {
		httputil.RespondWithError(c, apperrors.Forbidden("Notifications can only be created for the caller"))
		return
	}

	n, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) MarkRead(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), identity, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := h.service.MarkAllRead(c.Request.Context(), identity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated": updated,
		"message": fmt.Sprintf("%d notifications marked as read", updated),
	})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), identity, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RegisterDeviceToken(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.RegisterDeviceTokenRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	token, err := h.service.RegisterDeviceToken(c.Request.Context(), identity, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, token)
}
