package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/queue"
)

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	svc      *BookingService
	user     model.Actor
	other    model.Actor
	admin    model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	st.addHotel(1)
	st.addHotel(2)
	st.addRoom(10, 1)
	st.addRoom(11, 1)
	st.addRoom(20, 2)
	n := &recordingNotifier{}
	f := &fixture{
		store:    st,
		notifier: n,
		svc:      NewBookingService(st, n).WithClock(fixedClock("2024-01-01")),
		user:     st.addUser(1, model.RoleUser),
		other:    st.addUser(2, model.RoleUser),
		admin:    st.addUser(3, model.RoleAdmin),
	}
	return f
}

func assertKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected *service.Error, got %T", err)
	assert.Equal(t, kind, se.Kind)
	return se
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-12"),
	})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, f.user.ID, b.UserID)
	assert.Equal(t, 2, b.Nights())

	f.svc.Wait()
	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, queue.EventBookingCreated, ev.Type)
	assert.Equal(t, b.ID, ev.BookingID)
	assert.Equal(t, "2024-01-10", ev.CheckInDate)
	assert.Equal(t, "2024-01-12", ev.CheckOutDate)
	assert.Equal(t, "desk@example.com", ev.HotelEmail)
}

func TestCreateBookingSameDayIsInvalidRange(t *testing.T) {
	f := newFixture(t)
	// Even with a conflicting booking and an exhausted quota, an empty
	// range is rejected first.
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-05", "2024-01-08")

	_, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-06"), CheckOut: dayPtr("2024-01-06"),
	})
	assertKind(t, err, KindInvalidRange)
}

func TestCreateBookingReversedOrMissingDates(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-12"), CheckOut: dayPtr("2024-01-10"),
	})
	assertKind(t, err, KindInvalidRange)

	_, err = f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-12"),
	})
	se := assertKind(t, err, KindInvalidRange)
	assert.Contains(t, se.Message, "both check-in and check-out")
}

func TestCreateBookingNotFound(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name    string
		hotelID uint64
		roomID  uint64
	}{
		{"missing hotel", 99, 10},
		{"missing room", 1, 99},
		{"room of another hotel", 1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
				HotelID: tc.hotelID, RoomID: tc.roomID, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-11"),
			})
			assertKind(t, err, KindNotFound)
		})
	}
	f.svc.Wait()
	assert.Empty(t, f.notifier.events)
}

func TestCreateBookingConflict(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.other.ID, 1, 10, "2024-01-11", "2024-01-13")

	_, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-12"),
	})
	se := assertKind(t, err, KindConflict)
	assert.Equal(t, uint64(10), se.ID)

	// Touching the boundary is not an overlap.
	_, err = f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-13"), CheckOut: dayPtr("2024-01-14"),
	})
	assert.NoError(t, err)

	// Same dates, different room.
	_, err = f.svc.Create(context.Background(), f.other, CreateBookingInput{
		HotelID: 1, RoomID: 11, CheckIn: dayPtr("2024-01-11"), CheckOut: dayPtr("2024-01-12"),
	})
	assert.NoError(t, err)
}

func TestCreateBookingRejectsPastCheckIn(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.other.ID, 1, 10, "2023-12-20", "2023-12-24")

	// The ended stay is invisible to the conflict check, so an overlapping
	// create must be refused on its date alone.  Admins included.
	_, err := f.svc.Create(context.Background(), f.admin, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2023-12-22"), CheckOut: dayPtr("2024-01-02"),
	})
	assertKind(t, err, KindInvalidRange)

	// Starting today is fine.
	_, err = f.svc.Create(context.Background(), f.admin, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-01"), CheckOut: dayPtr("2024-01-02"),
	})
	assert.NoError(t, err)
	f.svc.Wait()
}

func TestUpdateBookingRejectsPastDates(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.other.ID, 1, 10, "2023-12-20", "2023-12-22")
	f.store.addBooking(2, f.user.ID, 1, 11, "2023-12-31", "2024-01-02")

	// an ended stay cannot be moved or stretched
	_, err := f.svc.Update(context.Background(), f.admin, 1, BookingPatch{CheckOut: dayPtr("2024-01-05")})
	assertKind(t, err, KindInvalidRange)

	// an ongoing stay keeps its past check-in but cannot move it further back
	_, err = f.svc.Update(context.Background(), f.user, 2, BookingPatch{CheckIn: dayPtr("2023-12-30")})
	assertKind(t, err, KindInvalidRange)
	b, err := f.svc.Update(context.Background(), f.user, 2, BookingPatch{CheckOut: dayPtr("2024-01-03")})
	require.NoError(t, err)
	assert.Equal(t, day("2023-12-31"), b.CheckInDate)
}

func TestCreateBookingQuota(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 2, 20, "2024-02-01", "2024-02-03")

	_, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-12"),
	})
	se := assertKind(t, err, KindQuotaExceeded)
	assert.Equal(t, 2, se.TotalNights)
	assert.Contains(t, se.Message, "already booked 2 nights")

	// One more night still fits: 2 + 1 = 3.
	_, err = f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-11"),
	})
	assert.NoError(t, err)
}

func TestCreateBookingAdminBypassesQuota(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.admin.ID, 2, 20, "2024-02-01", "2024-02-03")

	_, err := f.svc.Create(context.Background(), f.admin, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-20"),
	})
	assert.NoError(t, err)
}

func TestCreateBookingNotifierFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")

	b, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-11"),
	})
	require.NoError(t, err)
	stored, _ := f.store.GetBooking(context.Background(), b.ID)
	assert.NotNil(t, stored)
	f.svc.Wait()
}

// blockingNotifier stalls every dispatch until release is closed, like a
// broker that accepts connections and never answers.
type blockingNotifier struct {
	release  chan struct{}
	deadline chan bool
}

func (n *blockingNotifier) Notify(ctx context.Context, _ queue.BookingEvent) error {
	_, ok := ctx.Deadline()
	n.deadline <- ok
	<-n.release
	return nil
}

func TestCreateAndDeleteDoNotWaitForNotifier(t *testing.T) {
	st := newMemStore()
	st.addHotel(1)
	st.addRoom(10, 1)
	user := st.addUser(1, model.RoleUser)
	n := &blockingNotifier{release: make(chan struct{}), deadline: make(chan bool, 2)}
	svc := NewBookingService(st, n).WithClock(fixedClock("2024-01-01"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	b, err := svc.Create(ctx, user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-11"),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, user, b.ID))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// the dispatches carry their own deadline, independent of the request
	assert.True(t, <-n.deadline)
	assert.True(t, <-n.deadline)
	close(n.release)
	svc.Wait()
}

func TestCreateBookingStoreErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	f.store.overlapErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), f.user, CreateBookingInput{
		HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-11"),
	})
	se := assertKind(t, err, KindInternal)
	assert.EqualError(t, errors.Unwrap(se), "connection reset")
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestConcurrentCreatesNeverDoubleBook(t *testing.T) {
	f := newFixture(t)
	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	actors := make([]model.Actor, n)
	for i := range actors {
		actors[i] = f.store.addUser(uint64(100+i), model.RoleUser)
	}
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor model.Actor) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), actor, CreateBookingInput{
				HotelID: 1, RoomID: 10, CheckIn: dayPtr("2024-03-01"), CheckOut: dayPtr("2024-03-03"),
			})
		}(i, actor)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, KindConflict, KindOf(err))
	}
	assert.Equal(t, 1, ok)
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-13")

	// Own prior nights do not count against the new value: 3 -> 3.
	b, err := f.svc.Update(context.Background(), f.user, 1, BookingPatch{
		CheckIn: dayPtr("2024-01-20"), CheckOut: dayPtr("2024-01-23"),
	})
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-20"), b.CheckInDate)

	stored, _ := f.store.GetBooking(context.Background(), 1)
	assert.Equal(t, day("2024-01-23"), stored.CheckOutDate)
}

func TestUpdateBookingUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")

	_, err := f.svc.Update(context.Background(), f.other, 1, BookingPatch{
		CheckIn: dayPtr("2024-01-15"), CheckOut: dayPtr("2024-01-16"),
	})
	assertKind(t, err, KindUnauthorized)

	stored, _ := f.store.GetBooking(context.Background(), 1)
	assert.Equal(t, day("2024-01-10"), stored.CheckInDate)

	// Admin may update anyone's booking.
	_, err = f.svc.Update(context.Background(), f.admin, 1, BookingPatch{
		CheckIn: dayPtr("2024-01-15"), CheckOut: dayPtr("2024-01-16"),
	})
	assert.NoError(t, err)
}

func TestUpdateBookingQuotaAndRange(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")
	f.store.addBooking(2, f.user.ID, 2, 20, "2024-02-01", "2024-02-03")

	_, err := f.svc.Update(context.Background(), f.user, 1, BookingPatch{
		CheckIn: dayPtr("2024-01-10"), CheckOut: dayPtr("2024-01-12"),
	})
	se := assertKind(t, err, KindQuotaExceeded)
	assert.Equal(t, 2, se.TotalNights)

	// A single date may move the range into an invalid shape.
	_, err = f.svc.Update(context.Background(), f.user, 1, BookingPatch{CheckOut: dayPtr("2024-01-09")})
	assertKind(t, err, KindInvalidRange)

	// Extending through one field is still quota checked.
	_, err = f.svc.Update(context.Background(), f.user, 1, BookingPatch{CheckOut: dayPtr("2024-01-13")})
	assertKind(t, err, KindQuotaExceeded)

	// Nothing to change.
	b, err := f.svc.Update(context.Background(), f.user, 1, BookingPatch{})
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-11"), b.CheckOutDate)
}

func TestUpdateBookingRechecksConflicts(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")
	f.store.addBooking(2, f.other.ID, 1, 10, "2024-01-12", "2024-01-14")

	_, err := f.svc.Update(context.Background(), f.user, 1, BookingPatch{CheckOut: dayPtr("2024-01-13")})
	assertKind(t, err, KindConflict)

	// Shifting within its own slot does not conflict with itself.
	_, err = f.svc.Update(context.Background(), f.user, 1, BookingPatch{CheckOut: dayPtr("2024-01-12")})
	assert.NoError(t, err)
}

func TestUpdateBookingNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), f.admin, 404, BookingPatch{})
	assertKind(t, err, KindNotFound)
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")

	assertKind(t, f.svc.Delete(context.Background(), f.user, 404), KindNotFound)
	assertKind(t, f.svc.Delete(context.Background(), f.other, 1), KindUnauthorized)

	require.NoError(t, f.svc.Delete(context.Background(), f.user, 1))
	stored, _ := f.store.GetBooking(context.Background(), 1)
	assert.Nil(t, stored)

	f.svc.Wait()
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, queue.EventBookingCancelled, f.notifier.events[0].Type)
}

func TestGetAndListBookings(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")
	f.store.addBooking(2, f.other.ID, 2, 20, "2024-01-10", "2024-01-11")

	mine, err := f.svc.List(context.Background(), f.user, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint64(1), mine[0].ID)

	all, err := f.svc.List(context.Background(), f.admin, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byHotel, err := f.svc.List(context.Background(), f.admin, 2)
	require.NoError(t, err)
	require.Len(t, byHotel, 1)
	assert.Equal(t, uint64(2), byHotel[0].ID)

	d, err := f.svc.Get(context.Background(), f.user, 1)
	require.NoError(t, err)
	assert.Equal(t, "R0", d.RoomNumber)

	_, err = f.svc.Get(context.Background(), f.user, 2)
	assertKind(t, err, KindUnauthorized)
	_, err = f.svc.Get(context.Background(), f.user, 3)
	assertKind(t, err, KindNotFound)
}

func TestAvailability(t *testing.T) {
	st := newMemStore()
	st.addHotel(1)
	st.addRoom(10, 1)
	st.addBooking(1, 1, 1, 10, "2024-03-01", "2024-03-05")
	svc := NewBookingService(st, nil).WithClock(fixedClock("2024-02-01"))

	got, err := svc.Availability(context.Background(), 1, dayPtr("2024-03-04"), dayPtr("2024-03-06"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Available)

	got, err = svc.Availability(context.Background(), 1, dayPtr("2024-03-05"), dayPtr("2024-03-07"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Available)
}

func TestAvailabilityManyRoomsKeepsOrder(t *testing.T) {
	st := newMemStore()
	st.addHotel(1)
	for id := uint64(1); id <= 20; id++ {
		st.addRoom(id, 1)
	}
	st.addBooking(1, 1, 1, 7, "2024-03-01", "2024-03-05")
	svc := NewBookingService(st, nil).WithClock(fixedClock("2024-02-01"))

	got, err := svc.Availability(context.Background(), 1, dayPtr("2024-03-02"), dayPtr("2024-03-03"))
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i, ra := range got {
		assert.Equal(t, uint64(i+1), ra.ID)
		assert.Equal(t, ra.ID != 7, ra.Available)
	}
}

func TestAvailabilityRejects(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Availability(context.Background(), 1, nil, dayPtr("2024-03-06"))
	assertKind(t, err, KindInvalidRange)
	_, err = f.svc.Availability(context.Background(), 99, dayPtr("2024-03-04"), dayPtr("2024-03-06"))
	assertKind(t, err, KindNotFound)

	f.store.overlapErr = errors.New("timeout")
	_, err = f.svc.Availability(context.Background(), 1, dayPtr("2024-03-04"), dayPtr("2024-03-06"))
	assertKind(t, err, KindInternal)
}

func TestCanMutate(t *testing.T) {
	b := &model.Booking{UserID: 7}
	assert.True(t, CanMutate(b, model.Actor{ID: 7, Role: model.RoleUser}))
	assert.False(t, CanMutate(b, model.Actor{ID: 8, Role: model.RoleUser}))
	assert.True(t, CanMutate(b, model.Actor{ID: 8, Role: model.RoleAdmin}))
}

func TestTotalNightsExcludes(t *testing.T) {
	f := newFixture(t)
	f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")
	f.store.addBooking(2, f.user.ID, 2, 20, "2024-02-01", "2024-02-03")

	n, err := f.svc.TotalNights(context.Background(), f.user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.svc.TotalNights(context.Background(), f.user.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, ok, err := f.svc.CheckQuota(context.Background(), f.user.ID, 1, false, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, total)

	_, ok, err = f.svc.CheckQuota(context.Background(), f.user.ID, 10, true, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

// staleStore keeps answering GetBooking for a booking another request has
// already deleted.
type staleStore struct {
	*memStore
	stale *model.Booking
}

func (s staleStore) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	if s.stale.ID == id {
		cp := *s.stale
		return &cp, nil
	}
	return nil, nil
}

func TestDeleteBookingRemovedConcurrentlyIsNotFound(t *testing.T) {
	f := newFixture(t)
	b := f.store.addBooking(1, f.user.ID, 1, 10, "2024-01-10", "2024-01-11")
	stale := *b
	require.NoError(t, f.store.DeleteBooking(context.Background(), 1))

	svc := NewBookingService(staleStore{memStore: f.store, stale: &stale}, f.notifier)
	assertKind(t, svc.Delete(context.Background(), f.user, 1), KindNotFound)
	svc.Wait()
	assert.Empty(t, f.notifier.events)
}
