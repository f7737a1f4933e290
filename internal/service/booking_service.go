// Package service holds the booking availability and quota engine and the
// appointment service.  Both sit between the HTTP handlers and the
// persistence ports declared in store.go.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/queue"
)

// MaxNights is the cumulative number of nights a non-admin user may hold
// across all of their bookings.
const MaxNights = 3

// availabilityWorkers bounds the concurrent per-room conflict queries of
// an availability listing.
const availabilityWorkers = 8

// notifyTimeout bounds one background notification dispatch.
const notifyTimeout = 10 * time.Second

// BookingService implements the booking lifecycle: conflict detection,
// the nights quota, the owner-or-admin gate and availability listings.
type BookingService struct {
	store    BookingStore
	notifier Notifier
	now      func() time.Time

	// in-flight notification dispatches
	pending sync.WaitGroup
}

// NewBookingService wires the engine to its store and notifier.  A nil
// notifier disables notifications.
func NewBookingService(store BookingStore, notifier Notifier) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{store: store, notifier: notifier, now: time.Now}
}

// WithClock replaces the time source used to decide which bookings have
// already ended.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) today() time.Time { return model.Day(s.now().UTC()) }

// CreateBookingInput carries the fields of a new booking.  Nil dates are
// reported as an invalid range.
type CreateBookingInput struct {
	HotelID  uint64
	RoomID   uint64
	CheckIn  *time.Time
	CheckOut *time.Time
}

// BookingPatch carries optional new dates for an existing booking.
type BookingPatch struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

// CanMutate reports whether actor may update or delete b.
func CanMutate(b *model.Booking, actor model.Actor) bool {
	return b.UserID == actor.ID || actor.Privileged()
}

// HasConflict reports whether a current or future booking of roomID, other
// than excludeID, overlaps [in, out).
func (s *BookingService) HasConflict(ctx context.Context, roomID uint64, in, out time.Time, excludeID uint64) (bool, error) {
	return hasConflict(ctx, s.store, roomID, in, out, excludeID, s.today())
}

func hasConflict(ctx context.Context, st BookingStore, roomID uint64, in, out time.Time, excludeID uint64, activeOn time.Time) (bool, error) {
	return st.HasOverlap(ctx, OverlapQuery{
		RoomID:    roomID,
		CheckIn:   model.Day(in),
		CheckOut:  model.Day(out),
		ExcludeID: excludeID,
		ActiveOn:  activeOn,
	})
}

// TotalNights sums the nights of every booking owned by userID, skipping
// excludeID when it is non-zero.
func (s *BookingService) TotalNights(ctx context.Context, userID, excludeID uint64) (int, error) {
	return totalNights(ctx, s.store, userID, excludeID)
}

func totalNights(ctx context.Context, st BookingStore, userID, excludeID uint64) (int, error) {
	bookings, err := st.ListBookingsByUser(ctx, userID, excludeID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, b := range bookings {
		total += b.Nights()
	}
	return total, nil
}

// CheckQuota decides whether userID may add candidate nights.  It returns
// the nights already held so callers can describe a rejection.
func (s *BookingService) CheckQuota(ctx context.Context, userID uint64, candidate int, privileged bool, excludeID uint64) (int, bool, error) {
	return checkQuota(ctx, s.store, userID, candidate, privileged, excludeID)
}

func checkQuota(ctx context.Context, st BookingStore, userID uint64, candidate int, privileged bool, excludeID uint64) (int, bool, error) {
	if privileged {
		return 0, true, nil
	}
	total, err := totalNights(ctx, st, userID, excludeID)
	if err != nil {
		return 0, false, err
	}
	return total, total+candidate <= MaxNights, nil
}

// Create books a room for the acting user.  Checks run in order and the
// first failure short-circuits: hotel/room existence, date range, room
// conflict, nights quota.  The conflict and quota checks and the insert
// share one transaction holding the room and user locks.
func (s *BookingService) Create(ctx context.Context, actor model.Actor, in CreateBookingInput) (*model.Booking, error) {
	hotel, err := s.store.GetHotel(ctx, in.HotelID)
	if err != nil {
		return nil, internal(err, "Cannot create Booking")
	}
	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, internal(err, "Cannot create Booking")
	}
	if hotel == nil || room == nil || room.HotelID != hotel.ID {
		return nil, notFound(in.HotelID, "Hotel or Room not found or mismatch")
	}
	if in.CheckIn == nil || in.CheckOut == nil {
		return nil, invalidRange("Please specify both check-in and check-out dates")
	}
	checkIn, checkOut := model.Day(*in.CheckIn), model.Day(*in.CheckOut)
	nights := model.Nights(checkIn, checkOut)
	if nights <= 0 {
		return nil, invalidRange("Invalid date range")
	}
	// Ended bookings are ignored by the conflict check, so a stay may not
	// start before today.
	today := s.today()
	if checkIn.Before(today) {
		return nil, invalidRange("Check-in date cannot be in the past")
	}

	b := &model.Booking{
		UserID:       actor.ID,
		HotelID:      hotel.ID,
		RoomID:       room.ID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
	}
	err = s.store.InTx(ctx, func(tx BookingStore) error {
		if err := tx.LockRoom(ctx, room.ID); err != nil {
			return err
		}
		if err := tx.LockUser(ctx, actor.ID); err != nil {
			return err
		}
		conflict, err := hasConflict(ctx, tx, room.ID, checkIn, checkOut, 0, today)
		if err != nil {
			return err
		}
		if conflict {
			return &Error{Kind: KindConflict, ID: room.ID, Message: "Room already booked during this period"}
		}
		total, ok, err := checkQuota(ctx, tx, actor.ID, nights, actor.Privileged(), 0)
		if err != nil {
			return err
		}
		if !ok {
			return &Error{
				Kind:        KindQuotaExceeded,
				ID:          actor.ID,
				TotalNights: total,
				Message:     quotaMessage("Booking", total),
			}
		}
		return tx.CreateBooking(ctx, b)
	})
	if err != nil {
		return nil, passThrough(err, "Cannot create Booking")
	}
	s.notify(ctx, queue.EventBookingCreated, b, hotel, room)
	return b, nil
}

// Update changes the dates of a booking.  Only the owner or an admin may
// update.  When a date changes, the resulting range must be positive, must
// not overlap another current booking of the room, and for non-admins must
// keep the owner within the nights quota (the booking's own prior nights
// are excluded from the total).
func (s *BookingService) Update(ctx context.Context, actor model.Actor, id uint64, patch BookingPatch) (*model.Booking, error) {
	today := s.today()
	var out *model.Booking
	err := s.store.InTx(ctx, func(tx BookingStore) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound(id, "No booking with the id of %d", id)
		}
		if !CanMutate(b, actor) {
			return unauthorized(id, "User %d is not authorized to update this booking", actor.ID)
		}
		if patch.CheckIn == nil && patch.CheckOut == nil {
			out = b
			return nil
		}

		if b.CheckOutDate.Before(today) {
			return invalidRange("Cannot change a stay that has already ended")
		}
		checkIn, checkOut := b.CheckInDate, b.CheckOutDate
		if patch.CheckIn != nil {
			checkIn = model.Day(*patch.CheckIn)
			if checkIn.Before(today) {
				return invalidRange("Check-in date cannot be in the past")
			}
		}
		if patch.CheckOut != nil {
			checkOut = model.Day(*patch.CheckOut)
		}
		nights := model.Nights(checkIn, checkOut)
		if nights <= 0 {
			return invalidRange("Invalid date range")
		}
		if err := tx.LockRoom(ctx, b.RoomID); err != nil {
			return err
		}
		if err := tx.LockUser(ctx, b.UserID); err != nil {
			return err
		}
		conflict, err := hasConflict(ctx, tx, b.RoomID, checkIn, checkOut, b.ID, today)
		if err != nil {
			return err
		}
		if conflict {
			return &Error{Kind: KindConflict, ID: b.RoomID, Message: "Room already booked during this period"}
		}
		total, ok, err := checkQuota(ctx, tx, b.UserID, nights, actor.Privileged(), b.ID)
		if err != nil {
			return err
		}
		if !ok {
			return &Error{
				Kind:        KindQuotaExceeded,
				ID:          b.UserID,
				TotalNights: total,
				Message:     quotaMessage("Updating this booking", total),
			}
		}
		if err := tx.UpdateBookingDates(ctx, b.ID, checkIn, checkOut); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound(id, "No booking with the id of %d", id)
			}
			return err
		}
		b.CheckInDate, b.CheckOutDate = checkIn, checkOut
		out = b
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "Cannot update Booking")
	}
	return out, nil
}

// Delete removes a booking owned by the actor, or any booking when the
// actor is an admin.
func (s *BookingService) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return internal(err, "Cannot delete Booking")
	}
	if b == nil {
		return notFound(id, "No booking with the id of %d", id)
	}
	if !CanMutate(b, actor) {
		return unauthorized(id, "User %d is not authorized to delete this booking", actor.ID)
	}
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(id, "No booking with the id of %d", id)
		}
		return internal(err, "Cannot delete Booking")
	}
	hotel, _ := s.store.GetHotel(ctx, b.HotelID)
	room, _ := s.store.GetRoom(ctx, b.RoomID)
	s.notify(ctx, queue.EventBookingCancelled, b, hotel, room)
	return nil
}

// Get returns one booking with its hotel and room columns.
func (s *BookingService) Get(ctx context.Context, actor model.Actor, id uint64) (*model.BookingDetail, error) {
	rows, err := s.store.ListBookings(ctx, BookingFilter{ID: id})
	if err != nil {
		return nil, internal(err, "Cannot find Booking")
	}
	if len(rows) == 0 {
		return nil, notFound(id, "No booking with the id of %d", id)
	}
	if !CanMutate(&rows[0].Booking, actor) {
		return nil, unauthorized(id, "User %d is not authorized to view this booking", actor.ID)
	}
	return rows[0], nil
}

// List returns the actor's own bookings.  Admins see every booking, or
// every booking of hotelID when it is non-zero.
func (s *BookingService) List(ctx context.Context, actor model.Actor, hotelID uint64) ([]*model.BookingDetail, error) {
	f := BookingFilter{UserID: actor.ID}
	if actor.Privileged() {
		f = BookingFilter{HotelID: hotelID}
	}
	rows, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, internal(err, "Cannot find Booking")
	}
	return rows, nil
}

// Availability marks every room of hotelID as available or not for
// [checkIn, checkOut).  Rooms are checked concurrently; the result keeps
// the store's room order.
func (s *BookingService) Availability(ctx context.Context, hotelID uint64, checkIn, checkOut *time.Time) ([]model.RoomAvailability, error) {
	if checkIn == nil || checkOut == nil {
		return nil, invalidRange("Missing check-in or check-out date")
	}
	in, out := model.Day(*checkIn), model.Day(*checkOut)
	if model.Nights(in, out) <= 0 {
		return nil, invalidRange("Invalid date range")
	}
	hotel, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return nil, internal(err, "Server error")
	}
	if hotel == nil {
		return nil, notFound(hotelID, "Hotel not found with id of %d", hotelID)
	}
	rooms, err := s.store.ListRoomsByHotel(ctx, hotelID)
	if err != nil {
		return nil, internal(err, "Server error")
	}

	today := s.today()
	result := make([]model.RoomAvailability, len(rooms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(availabilityWorkers)
	for i, room := range rooms {
		i, room := i, room
		g.Go(func() error {
			conflict, err := hasConflict(gctx, s.store, room.ID, in, out, 0, today)
			if err != nil {
				return err
			}
			result[i] = model.RoomAvailability{Room: *room, Available: !conflict}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, internal(err, "Server error")
	}
	return result, nil
}

func quotaMessage(prefix string, total int) string {
	return fmt.Sprintf("%s exceeds %d nights limit. You have already booked %d nights.", prefix, MaxNights, total)
}

// Wait blocks until every notification dispatched so far has finished.
// Call it on shutdown after the HTTP server stopped taking requests.
func (s *BookingService) Wait() { s.pending.Wait() }

// notify builds a lifecycle event on the request path and dispatches it in
// the background under its own deadline.  Failures are logged and never
// affect the booking write that preceded them.
func (s *BookingService) notify(ctx context.Context, typ string, b *model.Booking, hotel *model.Hotel, room *model.Room) {
	user, err := s.store.GetUser(ctx, b.UserID)
	if err != nil || user == nil || hotel == nil || room == nil {
		log.Printf("booking-service: skip %s notification for booking %d: missing details (err=%v)", typ, b.ID, err)
		return
	}
	ev := queue.BookingEvent{
		Type:         typ,
		BookingID:    b.ID,
		UserID:       user.ID,
		UserName:     user.Name,
		UserEmail:    user.Email,
		HotelID:      hotel.ID,
		HotelName:    hotel.Name,
		HotelEmail:   hotel.Email,
		RoomNumber:   room.RoomNumber,
		RoomType:     room.Type,
		RoomPrice:    room.Price,
		CheckInDate:  b.CheckInDate.Format(model.DateLayout),
		CheckOutDate: b.CheckOutDate.Format(model.DateLayout),
		OccurredAt:   s.now().UTC().Format(time.RFC3339),
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, ev); err != nil {
			log.Printf("booking-service: %s notification for booking %d failed: %v", typ, ev.BookingID, err)
		}
	}()
}
