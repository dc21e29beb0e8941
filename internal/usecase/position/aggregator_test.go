package position

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTx(offset int, txType domain.TransactionType, asset, value, quantity, price string) *domain.Transaction {
	return &domain.Transaction{
		ID:            uuid.New(),
		CreatedAt:     baseTime.Add(time.Duration(offset) * time.Minute),
		Type:          txType,
		Asset:         asset,
		ValueUSD:      decimal.RequireFromString(value),
		AssetQuantity: decimal.RequireFromString(quantity),
		PricePerUnit:  decimal.RequireFromString(price),
	}
}

func TestAggregate_DepositAndBuyScenario(t *testing.T) {
	// One client deposits $10,000; the fund buys 0.1 BTC at $60,000 ($6,000).
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeDeposit, domain.AssetUSD, "10000", "0", "0"),
		newTx(1, domain.TransactionTypeBuy, "BTC", "6000", "0.1", "60000"),
	}

	book := Aggregate(transactions)

	assert.True(t, book.CashBalanceUSD.Equal(decimal.NewFromInt(4000)), "cash should be 4000, got %s", book.CashBalanceUSD)

	btc, ok := book.Positions["BTC"]
	require.True(t, ok)
	assert.True(t, btc.QuantityHeld.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, btc.TotalCostBasis.Equal(decimal.NewFromInt(6000)))
	assert.Empty(t, book.Warnings)
}

func TestAggregate_CashIsCommutative(t *testing.T) {
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeDeposit, domain.AssetUSD, "1000", "0", "0"),
		newTx(1, domain.TransactionTypeWithdraw, domain.AssetUSD, "300", "0", "0"),
		newTx(2, domain.TransactionTypeBuy, "ETH", "250", "0.1", "2500"),
		newTx(3, domain.TransactionTypeSell, "ETH", "150", "0.05", "3000"),
	}

	// cash = deposits - withdrawals - buys + sells = 1000 - 300 - 250 + 150
	expected := decimal.NewFromInt(600)

	forward := Aggregate(transactions)
	assert.True(t, forward.CashBalanceUSD.Equal(expected))

	reversed := make([]*domain.Transaction, 0, len(transactions))
	for i := len(transactions) - 1; i >= 0; i-- {
		reversed = append(reversed, transactions[i])
	}
	backward := Aggregate(reversed)
	assert.True(t, backward.CashBalanceUSD.Equal(expected), "fold order must not change the cash balance")
}

func TestAggregate_SplitBuyIsAdditive(t *testing.T) {
	// Cost basis must not depend on whether a purchase was one BUY or two.
	single := Aggregate([]*domain.Transaction{
		newTx(0, domain.TransactionTypeBuy, "ETH", "200", "2", "100"),
	})
	split := Aggregate([]*domain.Transaction{
		newTx(0, domain.TransactionTypeBuy, "ETH", "100", "1", "100"),
		newTx(1, domain.TransactionTypeBuy, "ETH", "100", "1", "100"),
	})

	assert.True(t, single.Positions["ETH"].QuantityHeld.Equal(split.Positions["ETH"].QuantityHeld))
	assert.True(t, single.Positions["ETH"].TotalCostBasis.Equal(split.Positions["ETH"].TotalCostBasis))
}

func TestAggregate_SellRemovesAverageCost(t *testing.T) {
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeBuy, "ETH", "100", "1", "100"),
		newTx(1, domain.TransactionTypeBuy, "ETH", "300", "1", "300"),
		newTx(2, domain.TransactionTypeSell, "ETH", "250", "1", "250"),
	}

	book := Aggregate(transactions)

	// Average cost was (100+300)/2 = 200, so selling one unit removes 200.
	eth := book.Positions["ETH"]
	assert.True(t, eth.QuantityHeld.Equal(decimal.NewFromInt(1)))
	assert.True(t, eth.TotalCostBasis.Equal(decimal.NewFromInt(200)), "cost basis should be 200, got %s", eth.TotalCostBasis)
}

func TestAggregate_FullSaleLeavesNoDust(t *testing.T) {
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeBuy, "ETH", "1000", "3", "333.33"),
		newTx(1, domain.TransactionTypeSell, "ETH", "1200", "3", "400"),
	}

	book := Aggregate(transactions)

	eth := book.Positions["ETH"]
	assert.True(t, eth.QuantityHeld.IsZero())
	assert.True(t, eth.TotalCostBasis.IsZero())
	assert.Empty(t, book.HeldAssets())
}

func TestAggregate_OversellClampsToZeroWithWarning(t *testing.T) {
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeBuy, "BTC", "100", "1", "100"),
		newTx(1, domain.TransactionTypeSell, "BTC", "300", "2", "150"),
	}

	book := Aggregate(transactions)

	btc := book.Positions["BTC"]
	assert.True(t, btc.QuantityHeld.IsZero(), "oversell must clamp the quantity to zero, got %s", btc.QuantityHeld)
	assert.True(t, btc.TotalCostBasis.IsZero())
	assert.Len(t, book.Warnings, 1)

	// The sale proceeds still reached cash: -100 + 300.
	assert.True(t, book.CashBalanceUSD.Equal(decimal.NewFromInt(200)))
}

func TestAggregate_SellWithoutPositionLeavesQuantityUntouched(t *testing.T) {
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeSell, "DOGE", "50", "1000", "0.05"),
	}

	book := Aggregate(transactions)

	assert.True(t, book.CashBalanceUSD.Equal(decimal.NewFromInt(50)), "cash still increases by the sale value")
	assert.True(t, book.Positions["DOGE"].QuantityHeld.IsZero())
	assert.True(t, book.Positions["DOGE"].TotalCostBasis.IsZero())
	assert.Len(t, book.Warnings, 1)
}

func TestAggregate_HeldAssetsKeepsFirstSeenOrder(t *testing.T) {
	transactions := []*domain.Transaction{
		newTx(0, domain.TransactionTypeBuy, "ETH", "100", "1", "100"),
		newTx(1, domain.TransactionTypeBuy, "BTC", "100", "0.001", "100000"),
		newTx(2, domain.TransactionTypeBuy, "SOL", "100", "1", "100"),
		newTx(3, domain.TransactionTypeSell, "BTC", "120", "0.001", "120000"),
	}

	book := Aggregate(transactions)

	assert.Equal(t, []string{"ETH", "SOL"}, book.HeldAssets())
}
