package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

// profileRepository implements domain.ProfileRepository
type profileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) domain.ProfileRepository {
	return &profileRepository{db: db}
}

// GetByID retrieves a profile by its ID
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, name, total_deposited_usd
		FROM profiles
		WHERE id = $1
	`

	var profile domain.Profile
	var depositedStr string

	err := r.db.QueryRowContext(ctx, query, id).Scan(&profile.ID, &profile.Name, &depositedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by ID: %w", err)
	}

	deposited, err := decimal.NewFromString(depositedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_deposited_usd: %w", err)
	}
	profile.TotalDepositedUSD = deposited

	return &profile, nil
}

// Create creates a new profile
func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, name, total_deposited_usd)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, profile.ID, profile.Name, profile.TotalDepositedUSD.String())
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// List retrieves all profiles
func (r *profileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	query := `
		SELECT id, name, total_deposited_usd
		FROM profiles
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		var profile domain.Profile
		var depositedStr string

		if err := rows.Scan(&profile.ID, &profile.Name, &depositedStr); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		deposited, err := decimal.NewFromString(depositedStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total_deposited_usd: %w", err)
		}
		profile.TotalDepositedUSD = deposited

		profiles = append(profiles, &profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}
