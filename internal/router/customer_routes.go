package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// Customer bundles the handlers reachable by any signed-in user.
type Customer struct {
	Rooms        *handler.RoomHandler
	Bookings     *handler.BookingHandler
	Appointments *handler.AppointmentHandler
}

// RegisterCustomer registers endpoints open to both the user and admin
// roles.  Ownership of individual bookings and appointments is enforced by
// the services.
func RegisterCustomer(e *echo.Echo, h Customer, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		// after JWTAuth, so each user gets their own bucket
		limit,
	)

	// Rooms of a hotel, plus which of them are free for a date range.
	g.GET("/hotels/:hotelId/rooms", h.Rooms.List)
	g.GET("/hotels/:hotelId/rooms/availability", h.Rooms.Availability)

	// Bookings.  Users only ever see their own; admins see all of them or
	// all of one hotel.
	g.GET("/bookings", h.Bookings.List)
	g.GET("/hotels/:hotelId/bookings", h.Bookings.List)
	g.GET("/bookings/:id", h.Bookings.Get)
	g.POST("/hotels/:hotelId/bookings", h.Bookings.Create)
	g.PUT("/bookings/:id", h.Bookings.Update)
	g.DELETE("/bookings/:id", h.Bookings.Delete)

	// Appointments follow the same visibility rules.
	g.GET("/appointments", h.Appointments.List)
	g.GET("/hospitals/:hospitalId/appointments", h.Appointments.List)
	g.GET("/appointments/:id", h.Appointments.Get)
	g.POST("/hospitals/:hospitalId/appointments", h.Appointments.Create)
	g.PUT("/appointments/:id", h.Appointments.Update)
	g.DELETE("/appointments/:id", h.Appointments.Delete)
}
