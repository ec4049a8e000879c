package doctor

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/reference"
	"github.com/jwalitptl/booking-api/internal/service/slot"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// Handler exposes the public directory: doctors, their open slots and the
// reference data shown next to them
type Handler struct {
	reference *reference.Service
	slots     *slot.Allocator
}

func NewHandler(reference *reference.Service, slots *slot.Allocator) *Handler {
	return &Handler{reference: reference, slots: slots}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("/:id", h.GetDoctor)
		doctors.GET("/:id/slots", h.ListSlots)
	}
	r.GET("/specialties", h.ListSpecialties)
	r.GET("/health-institutions/:id", h.GetInstitution)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	profile, err := h.reference.Doctor(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type slotsQuery struct {
	Date string `form:"date"`
}

func (h *Handler) ListSlots(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var q slotsQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	var date *time.Time
	if q.Date != "" {
		d, err := time.Parse(model.DateLayout, q.Date)
		if err != nil {
			httputil.RespondWithError(c, &apperrors.AppError{
				Code:    apperrors.ErrBadRequest,
				Message: "Invalid date, expected " + model.DateLayout,
				Details: map[string]interface{}{"date": q.Date},
				Err:     err,
			})
			return
		}
		date = &d
	}

	ctx := c.Request.Context()
	if _, err := h.reference.Doctor(ctx, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	slots, err := h.slots.ListAvailable(ctx, id, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *Handler) ListSpecialties(c *gin.Context) {
	specialties, err := h.reference.Specialties(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, specialties)
}

func (h *Handler) GetInstitution(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	institution, err := h.reference.Institution(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, institution)
}
