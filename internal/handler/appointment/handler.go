package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/appointment"
	"github.com/jwalitptl/booking-api/internal/service/projection"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// Handler serves appointment reads
type Handler struct {
	service *appointment.Service
	views   *projection.Service
}

func NewHandler(service *appointment.Service, views *projection.Service) *Handler {
	return &Handler{service: service, views: views}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.GET("/details", h.ListDetails)
		appointments.GET("/patient/:id/details", h.ListPatientDetails)
		appointments.GET("/doctor/:id/details", h.ListDoctorDetails)
		appointments.GET("/:id", h.GetAppointment)
		appointments.GET("/:id/details", h.GetDetail)
		appointments.GET("/:id/doctor-view", h.GetDoctorView)
	}
}

type listQuery struct {
	PatientID *int64  `form:"patient_id" binding:"omitempty,gt=0"`
	DoctorID  *int64  `form:"doctor_id" binding:"omitempty,gt=0"`
	Status    *string `form:"status" binding:"omitempty,oneof=pending confirmed completed declined"`
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var q listQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	filter := model.AppointmentFilter{PatientID: q.PatientID, DoctorID: q.DoctorID}
	if q.Status != nil {
		status, err := model.ParseAppointmentStatus(*q.Status)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
			return
		}
		filter.Status = &status
	}

	appts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	appt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListDetails(c *gin.Context) {
	views, err := h.views.AllDetails(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) ListPatientDetails(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	views, err := h.views.PatientDetails(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) ListDoctorDetails(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	views, err := h.views.DoctorDetails(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetDetail(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.views.Detail(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetDoctorView(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.views.DoctorViewDetail(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CommandHandler serves appointment writes. Its routes expect an
// identity on the context.
type CommandHandler struct {
	service *appointment.Service
}

func NewCommandHandler(service *appointment.Service) *CommandHandler {
	return &CommandHandler{service: service}
}

func (h *CommandHandler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.PATCH("/:id/confirm", h.ConfirmAppointment)
		appointments.PATCH("/:id/decline", h.DeclineAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

func (h *CommandHandler) CreateAppointment(c *gin.Context) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if err := appointment.AuthorizeBooking(identity, req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appt, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *CommandHandler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

func (h *CommandHandler) DeclineAppointment(c *gin.Context) {
	h.transition(c, h.service.Decline)
}

func (h *CommandHandler) transition(c *gin.Context, op func(ctx context.Context, id int64) (*model.PatientAppointmentView, error)) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.AuthorizeDoctor(c.Request.Context(), identity, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	view, err := op(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CommandHandler) DeleteAppointment(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.AuthorizeParticipant(c.Request.Context(), identity, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommandHandler) target(c *gin.Context) (int64, model.Identity, bool) {
	identity, err := middleware.IdentityFromContext(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return 0, model.Identity{}, false
	}
	id, ok := handler.ParamID(c, "id")
	return id, identity, ok
}
