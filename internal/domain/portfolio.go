package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Epsilon is the quantity threshold below which a holding is considered dust.
// Repeated buy/sell folding under weighted-average costing leaves sub-1e-9
// residue; anything inside this band is treated as zero.
var Epsilon = decimal.New(1, -9)

// ClampDust zeroes values within Epsilon of zero and clamps the negative
// residue that weighted-average rounding can leave behind.
func ClampDust(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() || v.LessThanOrEqual(Epsilon) {
		return decimal.Zero
	}
	return v
}

// Position represents the fund's holding in a single asset, derived by
// folding the transaction ledger. Recomputed from scratch on every pass;
// never persisted.
type Position struct {
	QuantityHeld   decimal.Decimal // >= 0, cumulative units currently owned
	TotalCostBasis decimal.Decimal // >= 0, USD cost of the held units under weighted-average costing
}

// AverageCost returns the weighted-average cost per held unit,
// or zero when nothing is held (guards division by zero).
func (p Position) AverageCost() decimal.Decimal {
	if p.QuantityHeld.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return p.TotalCostBasis.Div(p.QuantityHeld)
}

// AssetValuation is one priced position of a portfolio snapshot.
type AssetValuation struct {
	Asset            string
	QuantityHeld     decimal.Decimal
	CostBasisUSD     decimal.Decimal
	PriceUSD         decimal.Decimal // zero when the oracle had no price for the asset
	MarketValueUSD   decimal.Decimal
	UnrealizedPnlUSD decimal.Decimal
	PnlPercent       decimal.Decimal
	Change7dPercent  decimal.Decimal // informational, zero when the oracle omits it
}

// PortfolioSnapshot is the ephemeral result of one valuation pass.
// It is owned exclusively by the call that produced it.
type PortfolioSnapshot struct {
	CashBalanceUSD         decimal.Decimal
	Positions              []AssetValuation // sorted descending by market value
	TotalMarketValueUSD    decimal.Decimal
	TotalPortfolioValueUSD decimal.Decimal // TotalMarketValueUSD + CashBalanceUSD, always exact
	TotalCostBasisUSD      decimal.Decimal
	TotalUnrealizedPnlUSD  decimal.Decimal
	TotalPnlPercent        decimal.Decimal
}

// ClientEquity is one client's share of the fund, derived per pass.
type ClientEquity struct {
	ProfileID        uuid.UUID
	Name             string
	OwnershipPercent decimal.Decimal
	EquityValueUSD   decimal.Decimal
	PnlUSD           decimal.Decimal // equity minus net capital contributed
}

// RealizedSale is the locked-in outcome of a single SELL, computed against
// the weighted-average cost basis at the moment of the sale.
type RealizedSale struct {
	Asset       string
	SoldAt      time.Time
	ProceedsUSD decimal.Decimal
	CostUSD     decimal.Decimal
	PnlUSD      decimal.Decimal
	PnlPercent  decimal.Decimal
}
