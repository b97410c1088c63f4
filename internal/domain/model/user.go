package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"` // stored lower-cased
	HashedPassword string    `json:"pass,omitempty"`
	ListingIDs     []string  `json:"listings"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
