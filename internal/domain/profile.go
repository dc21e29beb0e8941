package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile represents a client of the fund.
type Profile struct {
	ID   uuid.UUID
	Name string

	// TotalDepositedUSD is a denormalized running total of the client's net
	// deposits (deposits minus withdrawals). It is kept in sync by the ledger
	// write path whenever a cash DEPOSIT/WITHDRAW is appended for the profile;
	// the accounting engine reads it but never writes it.
	TotalDepositedUSD decimal.Decimal
}
