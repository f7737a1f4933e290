package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// AppointmentEngine is the appointment service as seen by the HTTP layer.
type AppointmentEngine interface {
	Create(ctx context.Context, actor model.Actor, hospitalID uint64, at *time.Time) (*model.Appointment, error)
	Update(ctx context.Context, actor model.Actor, id uint64, at *time.Time) (*model.Appointment, error)
	Delete(ctx context.Context, actor model.Actor, id uint64) error
	Get(ctx context.Context, actor model.Actor, id uint64) (*model.AppointmentDetail, error)
	List(ctx context.Context, actor model.Actor, hospitalID uint64) ([]*model.AppointmentDetail, error)
}

type AppointmentHandler struct {
	Engine AppointmentEngine
}

func NewAppointmentHandler(engine AppointmentEngine) *AppointmentHandler {
	return &AppointmentHandler{Engine: engine}
}

type appointmentReq struct {
	ApptDate time.Time `json:"apptDate"`
}

func (r appointmentReq) date() *time.Time {
	if r.ApptDate.IsZero() {
		return nil
	}
	return &r.ApptDate
}

func (h *AppointmentHandler) List(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	var hospitalID uint64
	if c.Param("hospitalId") != "" {
		id, ok := pathID(c, "hospitalId")
		if !ok {
			return badID(c, "hospital id")
		}
		hospitalID = id
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rows, err := h.Engine.List(ctx, a, hospitalID)
	if err != nil {
		return serviceError(c, err)
	}
	return list(c, rows)
}

func (h *AppointmentHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "appointment id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ap, err := h.Engine.Get(ctx, a, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ap})
}

// Create handles POST /v1/hospitals/:hospitalId/appointments.
func (h *AppointmentHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	hospitalID, ok := pathID(c, "hospitalId")
	if !ok {
		return badID(c, "hospital id")
	}
	var req appointmentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ap, err := h.Engine.Create(ctx, a, hospitalID, req.date())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": ap})
}

func (h *AppointmentHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "appointment id")
	}
	var req appointmentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ap, err := h.Engine.Update(ctx, a, id, req.date())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ap})
}

func (h *AppointmentHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "appointment id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Engine.Delete(ctx, a, id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{}})
}
