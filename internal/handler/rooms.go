package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// AvailabilityChecker reports per-room availability of a hotel.
type AvailabilityChecker interface {
	Availability(ctx context.Context, hotelID uint64, checkIn, checkOut *time.Time) ([]model.RoomAvailability, error)
}

// RoomHandler serves room listing, availability and admin room CRUD under
// /v1/hotels/:hotelId/rooms.
type RoomHandler struct {
	Rooms  *repository.RoomRepo
	Hotels *repository.HotelRepo
	Engine AvailabilityChecker
}

func NewRoomHandler(rooms *repository.RoomRepo, hotels *repository.HotelRepo, engine AvailabilityChecker) *RoomHandler {
	if rooms == nil || hotels == nil || engine == nil {
		panic("nil dependency passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Hotels: hotels, Engine: engine}
}

type roomReq struct {
	RoomNumber  string  `json:"roomNumber" validate:"required,max=20"`
	Type        string  `json:"type" validate:"required,roomtype"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description *string `json:"description"`
}

func (h *RoomHandler) hotel(c echo.Context) (uint64, error) {
	hotelID, ok := pathID(c, "hotelId")
	if !ok {
		return 0, badID(c, "hotel id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Hotels.GetByID(ctx, hotelID); err != nil {
		return 0, repoError(c, err, "hotel")
	}
	return hotelID, nil
}

// List handles GET /v1/hotels/:hotelId/rooms.
func (h *RoomHandler) List(c echo.Context) error {
	hotelID, err := h.hotel(c)
	if hotelID == 0 {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rooms, err := h.Rooms.ListByHotel(ctx, hotelID)
	if err != nil {
		return repoError(c, err, "room")
	}
	return list(c, rooms)
}

// Availability handles GET /v1/hotels/:hotelId/rooms/availability.
func (h *RoomHandler) Availability(c echo.Context) error {
	hotelID, ok := pathID(c, "hotelId")
	if !ok {
		return badID(c, "hotel id")
	}
	in, err1 := optionalDate(c.QueryParam("checkInDate"))
	out, err2 := optionalDate(c.QueryParam("checkOutDate"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_range", "message": "dates must be YYYY-MM-DD"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rooms, err := h.Engine.Availability(ctx, hotelID, in, out)
	if err != nil {
		return serviceError(c, err)
	}
	return list(c, rooms)
}

func (h *RoomHandler) Create(c echo.Context) error {
	hotelID, err := h.hotel(c)
	if hotelID == 0 {
		return err
	}
	var req roomReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	room := &model.Room{HotelID: hotelID, RoomNumber: req.RoomNumber, Type: req.Type, Price: req.Price, Description: req.Description}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Rooms.Create(ctx, room); err != nil {
		return repoError(c, err, "room")
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": room})
}

func (h *RoomHandler) Update(c echo.Context) error {
	hotelID, ok := pathID(c, "hotelId")
	if !ok {
		return badID(c, "hotel id")
	}
	roomID, ok := pathID(c, "roomId")
	if !ok {
		return badID(c, "room id")
	}
	var req roomReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	existing, err := h.Rooms.GetByID(ctx, roomID)
	if err != nil {
		return repoError(c, err, "room")
	}
	if existing.HotelID != hotelID {
		return repoError(c, repository.ErrRoomNotFound, "room")
	}
	room := &model.Room{ID: roomID, HotelID: hotelID, RoomNumber: req.RoomNumber, Type: req.Type, Price: req.Price, Description: req.Description}
	if err := h.Rooms.Update(ctx, room); err != nil {
		return repoError(c, err, "room")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": room})
}

// Delete refuses with 409 while bookings still reference the room.
func (h *RoomHandler) Delete(c echo.Context) error {
	hotelID, ok := pathID(c, "hotelId")
	if !ok {
		return badID(c, "hotel id")
	}
	roomID, ok := pathID(c, "roomId")
	if !ok {
		return badID(c, "room id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Rooms.Delete(ctx, hotelID, roomID); err != nil {
		return repoError(c, err, "room")
	}
	return c.NoContent(http.StatusNoContent)
}
