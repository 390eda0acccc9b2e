package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account row in PostgreSQL. NxoCoin is the settled balance:
// it only grows when a finished mining session is collected (or through
// card purchases, which happen outside this service).
type User struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	NxoCoin      float64   `json:"nxoCoin"`
	IsAdmin      bool      `json:"-"`
}
