package model

import (
	"time"
)

type ListingRooms string
type ListingStatus string

const (
	RoomsT0 ListingRooms = "T0"
	RoomsT1 ListingRooms = "T1"
	RoomsT2 ListingRooms = "T2"
	RoomsT3 ListingRooms = "T3"
	RoomsT4 ListingRooms = "T4"
	RoomsT5 ListingRooms = "T5+"

	StatusAvailable   ListingStatus = "available"
	StatusUnavailable ListingStatus = "unavailable"
)

func (r ListingRooms) Valid() bool {
	switch r {
	case RoomsT0, RoomsT1, RoomsT2, RoomsT3, RoomsT4, RoomsT5:
		return true
	}
	return false
}

func (s ListingStatus) Valid() bool {
	return s == StatusAvailable || s == StatusUnavailable
}

type Listing struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Rent        float64       `json:"rent"`
	Rooms       ListingRooms  `json:"rooms"`
	Location    string        `json:"location"`
	Status      ListingStatus `json:"status"`
	Images      []string      `json:"images"` // public paths, upload order
	UserID      string        `json:"user"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsOwnedBy reports whether the acting identity may mutate this listing.
func (l *Listing) IsOwnedBy(userID string) bool {
	return l.UserID == userID
}
