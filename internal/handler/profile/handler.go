package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/profile"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	service *profile.Service
}

func NewHandler(service *profile.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profiles := r.Group("/profile")
	{
		profiles.PUT("/doctor/:id", h.UpdateDoctor)
		profiles.PUT("/patient/:id", h.UpdatePatient)
	}
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := h.self(c, model.UserTypeDoctor)
	if !ok {
		return
	}
	var req model.UpdateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.service.UpdateDoctor(c.Request.Context(), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := h.self(c, model.UserTypePatient)
	if !ok {
		return
	}
	var req model.UpdatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	patient, err := h.service.UpdatePatient(c.Request.Context(), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// self resolves the path id and requires it to name the caller
func (h *Handler) self(c *gin.Context, userType model.UserType) (int64, bool) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return 0, false
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return 0, false
	}
	if identity.UserType != userType || identity.UserID != id {
		httputil.RespondWithError(c, apperrors.Forbidden("Profiles can only be updated by their owner"))
		return 0, false
	}
	return id, true
}
