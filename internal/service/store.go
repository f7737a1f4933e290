package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// ErrNotFound is returned by store writes whose target row no longer
// exists, for example because a concurrent request deleted it.
var ErrNotFound = errors.New("record not found")

// OverlapQuery selects bookings of a room whose stay intersects
// [CheckIn, CheckOut).  ExcludeID, when non-zero, skips one booking.  A
// non-zero ActiveOn keeps only bookings whose check-out is on or after
// that day.
type OverlapQuery struct {
	RoomID    uint64
	CheckIn   time.Time
	CheckOut  time.Time
	ExcludeID uint64
	ActiveOn  time.Time
}

// BookingFilter narrows a booking listing.  Zero fields are ignored.
type BookingFilter struct {
	ID      uint64
	UserID  uint64
	HotelID uint64
}

// BookingStore is the persistence port of the booking engine.  Getters
// return (nil, nil) when the record does not exist; writes return
// ErrNotFound.
type BookingStore interface {
	GetHotel(ctx context.Context, id uint64) (*model.Hotel, error)
	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	ListRoomsByHotel(ctx context.Context, hotelID uint64) ([]*model.Room, error)

	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	HasOverlap(ctx context.Context, q OverlapQuery) (bool, error)
	ListBookingsByUser(ctx context.Context, userID, excludeID uint64) ([]*model.Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]*model.BookingDetail, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	UpdateBookingDates(ctx context.Context, id uint64, in, out time.Time) error
	DeleteBooking(ctx context.Context, id uint64) error

	// LockRoom and LockUser serialise concurrent writers touching the same
	// room or user until the surrounding transaction ends.
	LockRoom(ctx context.Context, id uint64) error
	LockUser(ctx context.Context, id uint64) error
	// InTx runs fn against a store bound to a single transaction.  The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(BookingStore) error) error
}

// AppointmentFilter narrows an appointment listing.
type AppointmentFilter struct {
	ID         uint64
	UserID     uint64
	HospitalID uint64
}

// AppointmentStore is the persistence port of the appointment service.
type AppointmentStore interface {
	GetHospital(ctx context.Context, id uint64) (*model.Hospital, error)
	GetAppointment(ctx context.Context, id uint64) (*model.Appointment, error)
	CountAppointmentsByUser(ctx context.Context, userID uint64) (int, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]*model.AppointmentDetail, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointmentDate(ctx context.Context, id uint64, at time.Time) error
	DeleteAppointment(ctx context.Context, id uint64) error
	LockUser(ctx context.Context, id uint64) error
	InTx(ctx context.Context, fn func(AppointmentStore) error) error
}
