package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// Admin bundles the handlers for catalogue management.
type Admin struct {
	Hotels    *handler.HotelHandler
	Rooms     *handler.RoomHandler
	Hospitals *handler.HospitalHandler
}

// RegisterAdmin registers hotel, room and hospital writes.  cache sees each
// successful write and purges the public browse cache.
func RegisterAdmin(e *echo.Echo, h Admin, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		limit,
		cache,
	)

	// Hotels.  Deleting one removes its rooms and bookings.
	g.POST("/hotels", h.Hotels.Create)
	g.PUT("/hotels/:id", h.Hotels.Update)
	g.DELETE("/hotels/:id", h.Hotels.Delete)

	// Rooms are addressed through their hotel.
	g.POST("/hotels/:hotelId/rooms", h.Rooms.Create)
	g.PUT("/hotels/:hotelId/rooms/:roomId", h.Rooms.Update)
	g.DELETE("/hotels/:hotelId/rooms/:roomId", h.Rooms.Delete)

	// Hospitals.  Deleting one removes its appointments.
	g.POST("/hospitals", h.Hospitals.Create)
	g.PUT("/hospitals/:id", h.Hospitals.Update)
	g.DELETE("/hospitals/:id", h.Hospitals.Delete)
}
