// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

// Booking event types.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is created or cancelled.  It
// carries everything the mail consumer needs so that it never has to
// query the primary database.
type BookingEvent struct {
	Type         string  `json:"type"`
	BookingID    uint64  `json:"booking_id"`
	UserID       uint64  `json:"user_id"`
	UserName     string  `json:"user_name"`
	UserEmail    string  `json:"user_email"`
	HotelID      uint64  `json:"hotel_id"`
	HotelName    string  `json:"hotel_name"`
	HotelEmail   string  `json:"hotel_email,omitempty"`
	RoomNumber   string  `json:"room_number"`
	RoomType     string  `json:"room_type"`
	RoomPrice    float64 `json:"room_price"`
	CheckInDate  string  `json:"check_in_date"`
	CheckOutDate string  `json:"check_out_date"`
	OccurredAt   string  `json:"occurred_at"`
}
