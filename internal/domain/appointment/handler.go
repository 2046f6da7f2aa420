package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// result is the envelope for single-appointment responses.
type result struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

type availabilityResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*Availability
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := auth.RequireRole(auth.RolePatient)
	doctor := auth.RequireRole(auth.RoleDoctor)

	api.POST("/appointments", h.Create, patient)
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.PATCH("/appointments/:id/status", h.UpdateStatus, doctor)
	api.PUT("/appointments/:id/reschedule", h.Reschedule, doctor)
	api.DELETE("/appointments/:id", h.Cancel, auth.RequireRole(auth.RolePatient, auth.RoleAdmin))

	api.GET("/doctors/:id/appointments", h.ListByDoctor, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	api.GET("/doctors/:id/availability", h.Availability)
	api.GET("/patients/:id/appointments", h.ListByPatient, auth.RequireRole(auth.RolePatient, auth.RoleAdmin))
}

func (h *Handler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Create(c.Request().Context(), caller, in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, result{Success: true, Message: "appointment booked", Appointment: a})
}

func (h *Handler) Get(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, result{Success: true, Message: "appointment retrieved", Appointment: a})
}

func (h *Handler) List(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var f Filter
	if v := c.QueryParam("doctor_id"); v != "" {
		if f.DoctorID, err = uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is invalid")
		}
	}
	f.PatientID = c.QueryParam("patient_id")

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForCaller(c.Request().Context(), caller, f, pg.Limit, pg.Offset)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse(items, total, pg))
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByDoctor(c.Request().Context(), caller, doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse(items, total, pg))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), caller, c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse(items, total, pg))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), caller, id, req.Status)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, result{Success: true, Message: "appointment " + string(a.Status), Appointment: a})
}

func (h *Handler) Reschedule(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in RescheduleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), caller, id, in)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, result{Success: true, Message: "appointment rescheduled", Appointment: a})
}

func (h *Handler) Cancel(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), caller, id); err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, result{Success: true, Message: "appointment cancelled"})
}

func (h *Handler) Availability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	av, err := h.svc.Availability(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, availabilityResult{Success: true, Message: "availability retrieved", Availability: av})
}

func callerFrom(c echo.Context) (auth.User, error) {
	u, ok := auth.UserFromContext(c.Request().Context())
	if !ok {
		return auth.User{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return u, nil
}

func listResponse(items []*Appointment, total int, pg pagination.Params) *pagination.Response {
	if items == nil {
		items = []*Appointment{}
	}
	return pagination.NewResponse("appointments retrieved", items, total, pg)
}

// toHTTP maps service errors onto status codes. Anything unrecognised is
// reported as transient; the underlying error is kept for the error handler
// to log.
func toHTTP(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrDoctorNotFound.Error())
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, ErrSlotTaken.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "something went wrong, please try again").SetInternal(err)
}
