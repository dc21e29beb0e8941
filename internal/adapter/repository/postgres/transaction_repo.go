package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Append stores the transaction and, for profile-owned cash DEPOSIT/WITHDRAW
// movements, adjusts the profile's running deposit total in the same database
// transaction so the ledger and the denormalized total can never diverge.
func (r *transactionRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertQuery := `
		INSERT INTO transactions (id, created_at, profile_id, type, asset, value_usd, asset_quantity, price_per_unit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var profileID interface{}
	if tx.ProfileID != nil {
		profileID = *tx.ProfileID
	}

	_, err = dbTx.ExecContext(ctx, insertQuery,
		tx.ID,
		tx.CreatedAt,
		profileID,
		string(tx.Type),
		tx.Asset,
		tx.ValueUSD.String(),
		tx.AssetQuantity.String(),
		tx.PricePerUnit.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if tx.ProfileID != nil && tx.IsCash() {
		var delta decimal.Decimal
		switch tx.Type {
		case domain.TransactionTypeDeposit:
			delta = tx.ValueUSD
		case domain.TransactionTypeWithdraw:
			delta = tx.ValueUSD.Neg()
		}

		if !delta.IsZero() {
			updateQuery := `
				UPDATE profiles
				SET total_deposited_usd = total_deposited_usd + $1
				WHERE id = $2
			`
			result, err := dbTx.ExecContext(ctx, updateQuery, delta.String(), *tx.ProfileID)
			if err != nil {
				return fmt.Errorf("failed to adjust profile deposit total: %w", err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			if affected == 0 {
				return domain.ErrProfileNotFound
			}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List retrieves the full ledger in creation-time order
func (r *transactionRepository) List(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT id, created_at, profile_id, type, asset, value_usd, asset_quantity, price_per_unit
		FROM transactions
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

func scanTransaction(rows *sql.Rows) (*domain.Transaction, error) {
	var (
		tx          domain.Transaction
		createdAt   time.Time
		profileID   sql.NullString
		txType      string
		valueStr    string
		quantityStr string
		priceStr    string
	)

	err := rows.Scan(&tx.ID, &createdAt, &profileID, &txType, &tx.Asset, &valueStr, &quantityStr, &priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.CreatedAt = createdAt
	tx.Type = domain.TransactionType(txType)

	// profile_id is nullable (fund-level trades carry no owning client)
	if profileID.Valid {
		id, err := uuid.Parse(profileID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse profile_id: %w", err)
		}
		tx.ProfileID = &id
	}

	if tx.ValueUSD, err = decimal.NewFromString(valueStr); err != nil {
		return nil, fmt.Errorf("failed to parse value_usd: %w", err)
	}
	if tx.AssetQuantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse asset_quantity: %w", err)
	}
	if tx.PricePerUnit, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price_per_unit: %w", err)
	}

	return &tx, nil
}
