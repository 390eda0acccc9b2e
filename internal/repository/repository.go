// Package repository defines the storage interfaces the mining engine is
// built against, plus their MongoDB and PostgreSQL implementations. The
// engine and its tests only see the interfaces.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/infofoot/nexo-backend/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// MiningRepository stores per-user mining records and the active session
// index. Implementations must treat each method as an independent write;
// the engine never assumes cross-call atomicity.
type MiningRepository interface {
	// Record returns the user's mining record, or ErrNotFound.
	Record(ctx context.Context, userID string) (*models.MiningRecord, error)
	// SaveRecord upserts the full record keyed by user id.
	SaveRecord(ctx context.Context, rec *models.MiningRecord) error
	// SetAccrued overwrites only the accrued NXO field.
	SetAccrued(ctx context.Context, userID string, nxo float64) error
	// SetRateSnapshot overwrites only the rate fields (upserting an idle
	// record if none exists yet).
	SetRateSnapshot(ctx context.Context, userID string, puissance, bonus float64) error

	ActiveSessions(ctx context.Context) ([]models.MiningStart, error)
	ActiveSession(ctx context.Context, userID string) (*models.MiningStart, error)
	PutActiveSession(ctx context.Context, entry *models.MiningStart) error
	RemoveActiveSession(ctx context.Context, userID string) error
}

// CardRepository stores upgrade cards. The engine only ever reads active
// cards; creation happens at signup and in the (external) shop flow.
type CardRepository interface {
	ActiveCards(ctx context.Context, userID string) ([]models.Card, error)
	Insert(ctx context.Context, card *models.Card) error
}

// UserRepository stores accounts and settled balances.
type UserRepository interface {
	// Create inserts a new user; duplicate email/username yield the
	// corresponding sentinel errors.
	Create(ctx context.Context, u *models.User) error
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ByIdentifier matches email or username, case-insensitively.
	ByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// CreditBalance atomically adds amount to the settled balance and
	// returns the new total.
	CreditBalance(ctx context.Context, id uuid.UUID, amount float64) (float64, error)
	AdminIDs(ctx context.Context) ([]string, error)
}
