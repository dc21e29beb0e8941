package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when a profile lookup matches no row.
var ErrProfileNotFound = errors.New("profile not found")

// TransactionRepository defines the interface for the append-only ledger store
type TransactionRepository interface {
	// Append stores a new transaction. When the transaction is a cash
	// DEPOSIT/WITHDRAW owned by a profile, the implementation must adjust
	// that profile's TotalDepositedUSD atomically with the append.
	Append(ctx context.Context, tx *Transaction) error

	// List retrieves the full ledger in creation-time order.
	// The engine assumes a full-table read; no pagination contract.
	List(ctx context.Context) ([]*Transaction, error)
}

// ProfileRepository defines the interface for client profile persistence
type ProfileRepository interface {
	// GetByID retrieves a profile by its ID.
	// Returns ErrProfileNotFound when no profile matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// Create creates a new profile
	Create(ctx context.Context, profile *Profile) error

	// List retrieves all profiles
	List(ctx context.Context) ([]*Profile, error)
}
