package dashboard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/ownership"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/position"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/realized"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/valuation"
)

// Overview is the full result of one dashboard computation pass. Every
// request recomputes it from fresh inputs; nothing derived is cached.
type Overview struct {
	Snapshot      *domain.PortfolioSnapshot
	Clients       []domain.ClientEquity
	RealizedSales []domain.RealizedSale
	Warnings      []string
}

// DashboardService orchestrates one computation pass over the ledger and
// the price oracle
type DashboardService struct {
	TransactionRepo domain.TransactionRepository
	ProfileRepo     domain.ProfileRepository
	Oracle          domain.PriceOracle
	Logger          *zap.Logger
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	transactionRepo domain.TransactionRepository,
	profileRepo domain.ProfileRepository,
	oracle domain.PriceOracle,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		TransactionRepo: transactionRepo,
		ProfileRepo:     profileRepo,
		Oracle:          oracle,
		Logger:          logger,
	}
}

// GetOverview runs one full computation pass.
// Logic:
//  1. The two ledger reads (transactions, profiles) are issued concurrently
//     and joined before any aggregation begins; either failing fails the
//     whole pass, since without the ledger no meaningful output exists.
//  2. The ledger is folded into holdings, then priced. A failed price fetch
//     degrades the snapshot to zero prices with a logged warning instead of
//     aborting (availability over consistency; price data is best-effort).
//  3. Valuation, ownership allocation and the realized-sale replay all run
//     to completion without further I/O.
//
// The returned Overview is owned exclusively by the caller.
func (s *DashboardService) GetOverview(ctx context.Context) (*Overview, error) {
	var (
		transactions []*domain.Transaction
		profiles     []*domain.Profile
		txErr        error
		profileErr   error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		transactions, txErr = s.TransactionRepo.List(ctx)
	}()
	go func() {
		defer wg.Done()
		profiles, profileErr = s.ProfileRepo.List(ctx)
	}()
	wg.Wait()

	if txErr != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", txErr)
	}
	if profileErr != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", profileErr)
	}

	book := position.Aggregate(transactions)

	var prices map[string]domain.Quote
	if held := book.HeldAssets(); len(held) > 0 {
		var err error
		prices, err = s.Oracle.GetPrices(ctx, held)
		if err != nil {
			s.Logger.Warn("price fetch failed, valuing held assets at zero",
				zap.Strings("assets", held), zap.Error(err))
			prices = nil
		}
	}

	snapshot := valuation.Valuate(book, prices)
	clients := ownership.Allocate(profiles, snapshot.TotalPortfolioValueUSD)
	sales := realized.Track(transactions)

	warnings := append([]string{}, book.Warnings...)
	warnings = append(warnings, ownership.CheckDrift(profiles, transactions)...)

	return &Overview{
		Snapshot:      snapshot,
		Clients:       clients,
		RealizedSales: sales,
		Warnings:      warnings,
	}, nil
}
