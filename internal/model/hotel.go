package model

import "time"

// Hotel owns rooms and, through them, bookings.  The reverse relations are
// not stored on the hotel row; they are resolved by querying rooms and
// bookings by hotel id.
type Hotel struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	District   string    `json:"district"`
	Province   string    `json:"province"`
	PostalCode string    `json:"postal_code"`
	Tel        string    `json:"tel,omitempty"`
	Region     string    `json:"region"`
	Email      string    `json:"email,omitempty"` // recipient of new-booking notifications
	CreatedAt  time.Time `json:"created_at"`
}
