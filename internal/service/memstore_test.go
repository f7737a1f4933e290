package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/queue"
)

// memStore is an in-memory BookingStore and AppointmentStore.  InTx
// serialises callers so that the check-then-write sequences behave as they
// do under MySQL row locks.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID       uint64
	hotels       map[uint64]*model.Hotel
	rooms        map[uint64]*model.Room
	users        map[uint64]*model.User
	bookings     map[uint64]*model.Booking
	hospitals    map[uint64]*model.Hospital
	appointments map[uint64]*model.Appointment

	overlapErr error
}

func newMemStore() *memStore {
	return &memStore{
		nextID:       1000,
		hotels:       map[uint64]*model.Hotel{},
		rooms:        map[uint64]*model.Room{},
		users:        map[uint64]*model.User{},
		bookings:     map[uint64]*model.Booking{},
		hospitals:    map[uint64]*model.Hospital{},
		appointments: map[uint64]*model.Appointment{},
	}
}

func (m *memStore) addHotel(id uint64) *model.Hotel {
	h := &model.Hotel{ID: id, Name: "Hotel " + string(rune('A'+id%26)), Email: "desk@example.com"}
	m.hotels[id] = h
	return h
}

func (m *memStore) addRoom(id, hotelID uint64) *model.Room {
	r := &model.Room{ID: id, HotelID: hotelID, RoomNumber: "R" + string(rune('0'+id%10)), Type: model.RoomDouble, Price: 1200}
	m.rooms[id] = r
	return r
}

func (m *memStore) addUser(id uint64, role string) model.Actor {
	m.users[id] = &model.User{ID: id, Name: "guest", Email: "guest@example.com", Role: role}
	return model.Actor{ID: id, Role: role}
}

func (m *memStore) addBooking(id, userID, hotelID, roomID uint64, in, out string) *model.Booking {
	b := &model.Booking{ID: id, UserID: userID, HotelID: hotelID, RoomID: roomID, CheckInDate: day(in), CheckOutDate: day(out)}
	m.bookings[id] = b
	return b
}

func (m *memStore) GetHotel(_ context.Context, id uint64) (*model.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hotels[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetRoom(_ context.Context, id uint64) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetUser(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListRoomsByHotel(_ context.Context, hotelID uint64) ([]*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Room
	for _, r := range m.rooms {
		if r.HotelID == hotelID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) HasOverlap(_ context.Context, q OverlapQuery) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlapErr != nil {
		return false, m.overlapErr
	}
	for _, b := range m.bookings {
		if b.RoomID != q.RoomID || b.ID == q.ExcludeID {
			continue
		}
		if !q.ActiveOn.IsZero() && b.CheckOutDate.Before(q.ActiveOn) {
			continue
		}
		if b.Overlaps(q.CheckIn, q.CheckOut) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListBookingsByUser(_ context.Context, userID, excludeID uint64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID && b.ID != excludeID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListBookings(_ context.Context, f BookingFilter) ([]*model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.BookingDetail
	for _, b := range m.bookings {
		if (f.ID != 0 && b.ID != f.ID) || (f.UserID != 0 && b.UserID != f.UserID) || (f.HotelID != 0 && b.HotelID != f.HotelID) {
			continue
		}
		d := &model.BookingDetail{Booking: *b}
		if h, ok := m.hotels[b.HotelID]; ok {
			d.HotelName = h.Name
		}
		if r, ok := m.rooms[b.RoomID]; ok {
			d.RoomNumber, d.RoomType, d.RoomPrice = r.RoomNumber, r.Type, r.Price
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateBooking(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Now().UTC()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) UpdateBookingDates(_ context.Context, id uint64, in, out time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.CheckInDate, b.CheckOutDate = in, out
	return nil
}

func (m *memStore) DeleteBooking(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memStore) LockRoom(context.Context, uint64) error { return nil }
func (m *memStore) LockUser(context.Context, uint64) error { return nil }

func (m *memStore) InTx(_ context.Context, fn func(BookingStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) GetHospital(_ context.Context, id uint64) (*model.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hospitals[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetAppointment(_ context.Context, id uint64) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appointments[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) CountAppointmentsByUser(_ context.Context, userID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.appointments {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListAppointments(_ context.Context, f AppointmentFilter) ([]*model.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AppointmentDetail
	for _, a := range m.appointments {
		if (f.ID != 0 && a.ID != f.ID) || (f.UserID != 0 && a.UserID != f.UserID) || (f.HospitalID != 0 && a.HospitalID != f.HospitalID) {
			continue
		}
		out = append(out, &model.AppointmentDetail{Appointment: *a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *memStore) UpdateAppointmentDate(_ context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.ApptDate = at
	return nil
}

func (m *memStore) DeleteAppointment(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

// apptStore adapts memStore's InTx to the AppointmentStore signature.
type apptStore struct{ *memStore }

func (a apptStore) InTx(_ context.Context, fn func(AppointmentStore) error) error {
	a.txMu.Lock()
	defer a.txMu.Unlock()
	return fn(a)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev queue.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func fixedClock(s string) func() time.Time {
	t := day(s).Add(9 * time.Hour)
	return func() time.Time { return t }
}
