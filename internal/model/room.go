package model

// Room types accepted by rooms.type.
const (
	RoomSingle = "single"
	RoomDouble = "double"
	RoomSuite  = "suite"
)

// Room belongs to exactly one hotel.  RoomNumber is globally unique.
type Room struct {
	ID          uint64  `json:"id"`
	HotelID     uint64  `json:"hotel_id"`
	RoomNumber  string  `json:"room_number"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Description *string `json:"description,omitempty"`
}

// RoomAvailability is one row of an availability listing.
type RoomAvailability struct {
	Room
	Available bool `json:"available"`
}

// ValidRoomType reports whether t is one of the supported room types.
func ValidRoomType(t string) bool {
	switch t {
	case RoomSingle, RoomDouble, RoomSuite:
		return true
	}
	return false
}
