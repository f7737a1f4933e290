package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/service"
)

// Store adapts the MySQL repositories to the persistence ports of the
// service layer.  A Store obtained from InTx is bound to one transaction.
type Store struct {
	db *sql.DB
	tx *sql.Tx

	hotels       *HotelRepo
	rooms        *RoomRepo
	users        *UserRepo
	bookings     *BookingRepo
	hospitals    *HospitalRepo
	appointments *AppointmentRepo
}

// NewStore builds a Store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		hotels:       NewHotelRepo(db),
		rooms:        NewRoomRepo(db),
		users:        NewUserRepo(db),
		bookings:     NewBookingRepo(db),
		hospitals:    NewHospitalRepo(db),
		appointments: NewAppointmentRepo(db),
	}
}

func (s *Store) withTx(tx *sql.Tx) *Store {
	return &Store{
		db:           s.db,
		tx:           tx,
		hotels:       s.hotels.WithTx(tx),
		rooms:        s.rooms.WithTx(tx),
		users:        s.users.WithTx(tx),
		bookings:     s.bookings.WithTx(tx),
		hospitals:    s.hospitals.WithTx(tx),
		appointments: s.appointments.WithTx(tx),
	}
}

// runTx begins a transaction, runs fn and commits on success.  A Store
// already inside a transaction runs fn directly.
func (s *Store) runTx(ctx context.Context, fn func(*Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(s.withTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// missing turns a not-found sentinel into the (nil, nil) contract of the
// service ports.
func missing[T any](v *T, err error, sentinel error) (*T, error) {
	if errors.Is(err, sentinel) {
		return nil, nil
	}
	return v, err
}

func (s *Store) GetHotel(ctx context.Context, id uint64) (*model.Hotel, error) {
	h, err := s.hotels.GetByID(ctx, id)
	return missing(h, err, ErrHotelNotFound)
}

func (s *Store) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	r, err := s.rooms.GetByID(ctx, id)
	return missing(r, err, ErrRoomNotFound)
}

func (s *Store) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	return missing(u, err, ErrUserNotFound)
}

func (s *Store) ListRoomsByHotel(ctx context.Context, hotelID uint64) ([]*model.Room, error) {
	return s.rooms.ListByHotel(ctx, hotelID)
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	return missing(b, err, ErrBookingNotFound)
}

func (s *Store) HasOverlap(ctx context.Context, q service.OverlapQuery) (bool, error) {
	return s.bookings.ExistsOverlap(ctx, q.RoomID, q.CheckIn, q.CheckOut, q.ExcludeID, q.ActiveOn)
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID, excludeID uint64) ([]*model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, excludeID)
}

func (s *Store) ListBookings(ctx context.Context, f service.BookingFilter) ([]*model.BookingDetail, error) {
	return s.bookings.ListDetailed(ctx, BookingQuery{ID: f.ID, UserID: f.UserID, HotelID: f.HotelID})
}

func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	return s.bookings.Create(ctx, b)
}

func (s *Store) UpdateBookingDates(ctx context.Context, id uint64, in, out time.Time) error {
	return gone(s.bookings.UpdateDates(ctx, id, in, out), ErrBookingNotFound)
}

func (s *Store) DeleteBooking(ctx context.Context, id uint64) error {
	return gone(s.bookings.Delete(ctx, id), ErrBookingNotFound)
}

func (s *Store) LockRoom(ctx context.Context, id uint64) error { return s.rooms.Lock(ctx, id) }
func (s *Store) LockUser(ctx context.Context, id uint64) error { return s.users.Lock(ctx, id) }

// InTx implements service.BookingStore.
func (s *Store) InTx(ctx context.Context, fn func(service.BookingStore) error) error {
	return s.runTx(ctx, func(tx *Store) error { return fn(tx) })
}

// Appointments returns the appointment-side view of the same store.
func (s *Store) Appointments() *AppointmentStore { return &AppointmentStore{s: s} }

// AppointmentStore implements service.AppointmentStore.  It is a separate
// type only because both ports declare an InTx with different signatures.
type AppointmentStore struct{ s *Store }

func (a *AppointmentStore) GetHospital(ctx context.Context, id uint64) (*model.Hospital, error) {
	h, err := a.s.hospitals.GetByID(ctx, id)
	return missing(h, err, ErrHospitalNotFound)
}

func (a *AppointmentStore) GetAppointment(ctx context.Context, id uint64) (*model.Appointment, error) {
	ap, err := a.s.appointments.GetByID(ctx, id)
	return missing(ap, err, ErrAppointmentNotFound)
}

func (a *AppointmentStore) CountAppointmentsByUser(ctx context.Context, userID uint64) (int, error) {
	return a.s.appointments.CountByUser(ctx, userID)
}

func (a *AppointmentStore) ListAppointments(ctx context.Context, f service.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	return a.s.appointments.ListDetailed(ctx, AppointmentQuery{ID: f.ID, UserID: f.UserID, HospitalID: f.HospitalID})
}

func (a *AppointmentStore) CreateAppointment(ctx context.Context, ap *model.Appointment) error {
	return a.s.appointments.Create(ctx, ap)
}

func (a *AppointmentStore) UpdateAppointmentDate(ctx context.Context, id uint64, at time.Time) error {
	return gone(a.s.appointments.UpdateDate(ctx, id, at), ErrAppointmentNotFound)
}

func (a *AppointmentStore) DeleteAppointment(ctx context.Context, id uint64) error {
	return gone(a.s.appointments.Delete(ctx, id), ErrAppointmentNotFound)
}

func (a *AppointmentStore) LockUser(ctx context.Context, id uint64) error { return a.s.users.Lock(ctx, id) }

func (a *AppointmentStore) InTx(ctx context.Context, fn func(service.AppointmentStore) error) error {
	return a.s.runTx(ctx, func(tx *Store) error { return fn(tx.Appointments()) })
}

// gone translates a repository not-found sentinel into the port's
// ErrNotFound.
func gone(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return service.ErrNotFound
	}
	return err
}

var (
	_ service.BookingStore     = (*Store)(nil)
	_ service.AppointmentStore = (*AppointmentStore)(nil)
)
