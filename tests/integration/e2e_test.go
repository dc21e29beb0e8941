//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coinfolio/coinfolio-backend/internal/adapter/repository/postgres"
	"github.com/coinfolio/coinfolio-backend/internal/domain"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/dashboard"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/ledger"
)

var db *postgres.DB

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	dbConnStr := getDBConnectionString()
	var err error
	db, err = postgres.NewDB(dbConnStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	// Self-healing setup: apply the schema if it is not there yet
	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		panic(fmt.Sprintf("Failed to read schema: %v", err))
	}
	if _, err := db.Exec(string(schema)); err != nil {
		panic(fmt.Sprintf("Failed to apply schema: %v", err))
	}

	os.Exit(m.Run())
}

func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER", "postgres")
	password := envOr("DB_PASSWORD", "postgres")
	dbname := envOr("DB_NAME", "coinfolio")
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// stubOracle serves a fixed price map, standing in for CoinGecko.
type stubOracle struct {
	quotes map[string]domain.Quote
}

func (s *stubOracle) GetPrices(_ context.Context, _ []string) (map[string]domain.Quote, error) {
	return s.quotes, nil
}

func newServices(oracle domain.PriceOracle) (*ledger.LedgerService, *dashboard.DashboardService) {
	txRepo := postgres.NewTransactionRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	ledgerService := ledger.NewLedgerService(txRepo, profileRepo)
	dashboardService := dashboard.NewDashboardService(txRepo, profileRepo, oracle, zap.NewNop())
	return ledgerService, dashboardService
}

func TestWritePathMaintainsDepositTotals(t *testing.T) {
	ctx := context.Background()
	ledgerService, _ := newServices(&stubOracle{})

	profile, err := ledgerService.CreateProfile(ctx, "Integration Client A")
	require.NoError(t, err)

	_, err = ledgerService.Record(ctx, ledger.RecordTransactionInput{
		ProfileID: &profile.ID,
		Type:      domain.TransactionTypeDeposit,
		Asset:     domain.AssetUSD,
		ValueUSD:  decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = ledgerService.Record(ctx, ledger.RecordTransactionInput{
		ProfileID: &profile.ID,
		Type:      domain.TransactionTypeWithdraw,
		Asset:     domain.AssetUSD,
		ValueUSD:  decimal.NewFromInt(250),
	})
	require.NoError(t, err)

	// BUY must not move the deposit total.
	_, err = ledgerService.Record(ctx, ledger.RecordTransactionInput{
		ProfileID:     &profile.ID,
		Type:          domain.TransactionTypeBuy,
		Asset:         "BTC",
		ValueUSD:      decimal.NewFromInt(500),
		AssetQuantity: decimal.RequireFromString("0.005"),
		PricePerUnit:  decimal.NewFromInt(100000),
	})
	require.NoError(t, err)

	stored := fetchProfile(t, ledgerService, profile.ID.String())
	assert.True(t, stored.TotalDepositedUSD.Equal(decimal.NewFromInt(750)),
		"deposit total should be 750, got %s", stored.TotalDepositedUSD)
}

func TestDashboardOverviewEndToEnd(t *testing.T) {
	ctx := context.Background()
	oracle := &stubOracle{quotes: map[string]domain.Quote{
		"ETH": {USD: decimal.NewFromInt(3000)},
	}}
	ledgerService, dashboardService := newServices(oracle)

	profile, err := ledgerService.CreateProfile(ctx, "Integration Client B")
	require.NoError(t, err)

	_, err = ledgerService.Record(ctx, ledger.RecordTransactionInput{
		ProfileID: &profile.ID,
		Type:      domain.TransactionTypeDeposit,
		Asset:     domain.AssetUSD,
		ValueUSD:  decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	_, err = ledgerService.Record(ctx, ledger.RecordTransactionInput{
		ProfileID:     &profile.ID,
		Type:          domain.TransactionTypeBuy,
		Asset:         "ETH",
		ValueUSD:      decimal.NewFromInt(2500),
		AssetQuantity: decimal.NewFromInt(1),
		PricePerUnit:  decimal.NewFromInt(2500),
	})
	require.NoError(t, err)

	overview, err := dashboardService.GetOverview(ctx)
	require.NoError(t, err)

	// The shared database may hold ledgers from other runs; check the
	// invariant rather than absolute amounts.
	sum := overview.Snapshot.CashBalanceUSD
	for _, pos := range overview.Snapshot.Positions {
		sum = sum.Add(pos.MarketValueUSD)
	}
	assert.True(t, overview.Snapshot.TotalPortfolioValueUSD.Equal(sum))

	found := false
	for _, client := range overview.Clients {
		if client.ProfileID == profile.ID {
			found = true
		}
	}
	assert.True(t, found, "new client should appear in the allocation")
}

func fetchProfile(t *testing.T, ledgerService *ledger.LedgerService, id string) *domain.Profile {
	t.Helper()
	profiles, err := ledgerService.ListProfiles(context.Background())
	require.NoError(t, err)
	for _, p := range profiles {
		if p.ID.String() == id {
			return p
		}
	}
	t.Fatalf("profile %s not found", id)
	return nil
}
