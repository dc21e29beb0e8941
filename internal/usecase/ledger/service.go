package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

// ErrInvalidInput marks write-path validation failures so transport adapters
// can distinguish client mistakes from storage faults.
var ErrInvalidInput = errors.New("invalid input")

// RecordTransactionInput represents the input for appending a transaction
type RecordTransactionInput struct {
	ProfileID     *uuid.UUID
	Type          domain.TransactionType
	Asset         string
	ValueUSD      decimal.Decimal
	AssetQuantity decimal.Decimal
	PricePerUnit  decimal.Decimal
}

// LedgerService is the thin write path in front of the append-only ledger
// store, plus the profile management the dashboard API needs.
type LedgerService struct {
	TransactionRepo domain.TransactionRepository
	ProfileRepo     domain.ProfileRepository
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(transactionRepo domain.TransactionRepository, profileRepo domain.ProfileRepository) *LedgerService {
	return &LedgerService{
		TransactionRepo: transactionRepo,
		ProfileRepo:     profileRepo,
	}
}

// Record appends one transaction to the ledger.
// Logic:
//  1. Normalize the asset symbol
//  2. Validate domain rules; the engine downstream tolerates stored garbage,
//     the write path does not let new garbage in
//  3. Verify the owning profile exists when one is given
//  4. Append; the repository adjusts the owning profile's deposit total
//     atomically for cash DEPOSIT/WITHDRAW movements
func (s *LedgerService) Record(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:            uuid.New(),
		CreatedAt:     time.Now().UTC(),
		ProfileID:     input.ProfileID,
		Type:          input.Type,
		Asset:         strings.ToUpper(strings.TrimSpace(input.Asset)),
		ValueUSD:      input.ValueUSD,
		AssetQuantity: input.AssetQuantity,
		PricePerUnit:  input.PricePerUnit,
	}

	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if tx.ProfileID != nil {
		if _, err := s.ProfileRepo.GetByID(ctx, *tx.ProfileID); err != nil {
			return nil, err
		}
	}

	if err := s.TransactionRepo.Append(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// ListTransactions retrieves the full ledger in creation-time order
func (s *LedgerService) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	return s.TransactionRepo.List(ctx)
}

// CreateProfile creates a new client profile with a zero deposit total
func (s *LedgerService) CreateProfile(ctx context.Context, name string) (*domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: profile name cannot be empty", ErrInvalidInput)
	}

	profile := &domain.Profile{
		ID:                uuid.New(),
		Name:              name,
		TotalDepositedUSD: decimal.Zero,
	}
	if err := s.ProfileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListProfiles retrieves all client profiles
func (s *LedgerService) ListProfiles(ctx context.Context) ([]*domain.Profile, error) {
	return s.ProfileRepo.List(ctx)
}
