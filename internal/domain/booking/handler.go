package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apierror"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointment/create", h.CreateAppointment)
	api.POST("/appointment/createWithPatient", h.CreateWithPatient)
	api.GET("/appointment/get/:id", h.GetAppointment)
	api.GET("/appointment/getAllWithNames", h.ListAppointmentsWithNames)
	api.GET("/user/getAllPatients", h.ListPatients)
}

// IDResponse is the success body of both booking endpoints.
type IDResponse struct {
	ID int64 `json:"id"`
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	id, err := h.svc.BookForExistingPatient(c.Request().Context(), req)
	if err != nil {
		return h.bookingError(c, err)
	}
	return c.JSON(http.StatusOK, IDResponse{ID: id})
}

func (h *Handler) CreateWithPatient(c echo.Context) error {
	var req CreateWithPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	id, err := h.svc.BookWithNewPatient(c.Request().Context(), req.User, req.Appointment)
	if err != nil {
		return h.bookingError(c, err)
	}
	return c.JSON(http.StatusOK, IDResponse{ID: id})
}

// bookingError renders every booking failure as a 500 carrying the kind
// code. Only validation errors list the offending fields; storage detail
// stays in the server log.
func (h *Handler) bookingError(c echo.Context, err error) error {
	var be *Error
	if !errors.As(err, &be) {
		return err
	}
	if be.Kind == KindValidation {
		return c.JSON(http.StatusInternalServerError, apierror.Response{
			Error:   string(KindValidation),
			Message: "invalid or missing fields",
			Fields:  be.Fields,
		})
	}
	rid, _ := c.Get("request_id").(string)
	h.logger.Error().Err(err).Str("request_id", rid).Str("kind", string(be.Kind)).Msg("booking request failed")
	return c.JSON(http.StatusInternalServerError, apierror.Response{
		Error:   string(be.Kind),
		Message: "the booking could not be completed",
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointmentsWithNames(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointmentsWithNames(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
