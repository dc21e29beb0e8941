package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of ledger transaction
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeBuy      TransactionType = "BUY"
	TransactionTypeSell     TransactionType = "SELL"
)

// AssetUSD is the sentinel asset symbol for pure cash movements.
// Transactions on AssetUSD carry no quantity or per-unit price.
const AssetUSD = "USD"

// Transaction represents one immutable entry of the fund's append-only ledger.
// All derived portfolio state is a pure fold over the full transaction history
// in CreatedAt order; transactions are never updated or deleted.
type Transaction struct {
	ID        uuid.UUID
	CreatedAt time.Time
	ProfileID *uuid.UUID // NULL for fund-level trades not attributable to a single client
	Type      TransactionType
	Asset     string
	ValueUSD  decimal.Decimal // Always positive; direction is implied by Type

	// Present and positive for BUY/SELL on non-cash assets, zero otherwise.
	// ValueUSD == AssetQuantity * PricePerUnit is expected but not enforced
	// by the accounting engine (garbage-in is tolerated downstream).
	AssetQuantity decimal.Decimal
	PricePerUnit  decimal.Decimal
}

// IsCash reports whether the transaction is a pure cash movement.
func (t *Transaction) IsCash() bool {
	return t.Asset == AssetUSD
}

// Validate ensures the transaction adheres to domain rules.
// Returns an error if validation fails.
// Only the write path validates; the accounting engine accepts any
// stored transaction and produces degenerate but non-crashing output
// for malformed ones.
func (t *Transaction) Validate() error {
	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeBuy, TransactionTypeSell:
	default:
		return errors.New("transaction type must be DEPOSIT, WITHDRAW, BUY or SELL")
	}

	if t.Asset == "" {
		return errors.New("transaction asset cannot be empty")
	}

	if t.ValueUSD.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction value must be positive (direction is implied by type)")
	}

	// Cash movements carry no quantity or per-unit price
	if t.Type == TransactionTypeDeposit || t.Type == TransactionTypeWithdraw {
		if t.Asset != AssetUSD {
			return errors.New("deposits and withdrawals must use the USD cash asset")
		}
		return nil
	}

	// BUY/SELL on a non-cash asset must carry a positive quantity and price
	if !t.IsCash() {
		if t.AssetQuantity.LessThanOrEqual(decimal.Zero) {
			return errors.New("trade quantity must be positive")
		}
		if t.PricePerUnit.LessThanOrEqual(decimal.Zero) {
			return errors.New("trade price per unit must be positive")
		}
	}

	return nil
}
