package model

import "time"

// DateLayout is the wire and storage format of check-in/check-out dates.
const DateLayout = "2006-01-02"

// Booking records one stay of a user in a room of a hotel.  The stay
// covers the half-open interval [CheckInDate, CheckOutDate); both dates
// are day-granular and normalised to UTC midnight.
//
// Fields:
//  ID           – bookings.id
//  UserID       – owner of the booking (users.id)
//  HotelID      – hotel the room belongs to (hotels.id)
//  RoomID       – reserved room (rooms.id)
//  CheckInDate  – first night of the stay
//  CheckOutDate – departure day; strictly after CheckInDate
//  CreatedAt    – creation timestamp
type Booking struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	HotelID      uint64    `json:"hotel_id"`
	RoomID       uint64    `json:"room_id"`
	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Nights returns the length of the stay in whole days.
func (b *Booking) Nights() int { return Nights(b.CheckInDate, b.CheckOutDate) }

// Overlaps reports whether the booking's stay intersects [in, out).
func (b *Booking) Overlaps(in, out time.Time) bool {
	return b.CheckInDate.Before(out) && in.Before(b.CheckOutDate)
}

// BookingDetail is a booking joined with the hotel and room columns shown
// in listings.
type BookingDetail struct {
	Booking
	HotelName     string  `json:"hotel_name"`
	HotelProvince string  `json:"hotel_province"`
	HotelTel      string  `json:"hotel_tel"`
	RoomNumber    string  `json:"room_number"`
	RoomType      string  `json:"room_type"`
	RoomPrice     float64 `json:"room_price"`
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is the floored whole-day difference out - in.  Equal days give 0
// and reversed ranges give a negative count.
func Nights(in, out time.Time) int {
	d := out.Sub(in)
	n := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		n--
	}
	return n
}

// ParseDate accepts either a plain date (2006-01-02) or an RFC3339
// timestamp and returns the calendar day in UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t.UTC()), nil
}
