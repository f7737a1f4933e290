package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/service"
)

// BookingEngine is the booking service as seen by the HTTP layer.
type BookingEngine interface {
	Create(ctx context.Context, actor model.Actor, in service.CreateBookingInput) (*model.Booking, error)
	Update(ctx context.Context, actor model.Actor, id uint64, patch service.BookingPatch) (*model.Booking, error)
	Delete(ctx context.Context, actor model.Actor, id uint64) error
	Get(ctx context.Context, actor model.Actor, id uint64) (*model.BookingDetail, error)
	List(ctx context.Context, actor model.Actor, hotelID uint64) ([]*model.BookingDetail, error)
}

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Engine BookingEngine
}

func NewBookingHandler(engine BookingEngine) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine}
}

type createBookingReq struct {
	RoomID       uint64 `json:"room" validate:"required"`
	CheckInDate  string `json:"checkInDate" validate:"omitempty,date"`
	CheckOutDate string `json:"checkOutDate" validate:"omitempty,date"`
}

type updateBookingReq struct {
	CheckInDate  string `json:"checkInDate" validate:"omitempty,date"`
	CheckOutDate string `json:"checkOutDate" validate:"omitempty,date"`
}

// List handles GET /v1/bookings and GET /v1/hotels/:hotelId/bookings.
// Users only ever see their own bookings.
func (h *BookingHandler) List(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	// Zero means every hotel.  The engine ignores it for non-admins.
	var hotelID uint64
	if c.Param("hotelId") != "" {
		id, ok := pathID(c, "hotelId")
		if !ok {
			return badID(c, "hotel id")
		}
		hotelID = id
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rows, err := h.Engine.List(ctx, a, hotelID)
	if err != nil {
		return serviceError(c, err)
	}
	return list(c, rows)
}

func (h *BookingHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Engine.Get(ctx, a, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// Create handles POST /v1/hotels/:hotelId/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	// JWTAuth put the caller on the context; without it there is nobody to
	// book for.
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	// The hotel comes from the path, the room from the body.
	hotelID, ok := pathID(c, "hotelId")
	if !ok {
		return badID(c, "hotel id")
	}
	var req createBookingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	// the validator has already accepted both dates
	in, _ := optionalDate(req.CheckInDate)
	out, _ := optionalDate(req.CheckOutDate)

	// Conflict, quota and range checks all happen in the engine.  Missing
	// dates travel as nil and come back as invalid_range.
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Engine.Create(ctx, a, service.CreateBookingInput{HotelID: hotelID, RoomID: req.RoomID, CheckIn: in, CheckOut: out})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": b})
}

// Update handles PUT /v1/bookings/:id.  Either date may be omitted.
func (h *BookingHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "booking id")
	}
	var req updateBookingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	// nil leaves the stored date as is
	in, _ := optionalDate(req.CheckInDate)
	out, _ := optionalDate(req.CheckOutDate)

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Engine.Update(ctx, a, id, service.BookingPatch{CheckIn: in, CheckOut: out})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

func (h *BookingHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if a.ID == 0 {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Engine.Delete(ctx, a, id); err != nil {
		return serviceError(c, err)
	}
	// Empty data object, not 204, so clients can parse every response.
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{}})
}
