package valuation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/position"
)

var hundred = decimal.NewFromInt(100)

// Valuate combines folded holdings with oracle prices into a portfolio
// snapshot. An asset the oracle did not price is valued at zero (fail-open):
// it shows up as a fully unrealized loss rather than failing the pass, since
// price-feed gaps are common.
//
// The portfolio totals are derived from the per-position sums, never
// recomputed on a second path, so the displayed total is always exactly the
// sum of the parts. Positions are sorted descending by market value with a
// stable first-seen tie-break.
func Valuate(book position.Book, prices map[string]domain.Quote) *domain.PortfolioSnapshot {
	snapshot := &domain.PortfolioSnapshot{
		CashBalanceUSD: book.CashBalanceUSD,
		Positions:      make([]domain.AssetValuation, 0, len(book.Order)),
	}

	for _, asset := range book.Order {
		pos := book.Positions[asset]
		if pos.QuantityHeld.LessThanOrEqual(domain.Epsilon) {
			continue // dust left by repeated buy/sell folding
		}

		quote := prices[asset] // zero value when the oracle had no price
		marketValue := pos.QuantityHeld.Mul(quote.USD)
		pnl := marketValue.Sub(pos.TotalCostBasis)

		pnlPercent := decimal.Zero
		if pos.TotalCostBasis.GreaterThan(decimal.Zero) {
			pnlPercent = pnl.Div(pos.TotalCostBasis).Mul(hundred)
		}

		snapshot.Positions = append(snapshot.Positions, domain.AssetValuation{
			Asset:            asset,
			QuantityHeld:     pos.QuantityHeld,
			CostBasisUSD:     pos.TotalCostBasis,
			PriceUSD:         quote.USD,
			MarketValueUSD:   marketValue,
			UnrealizedPnlUSD: pnl,
			PnlPercent:       pnlPercent,
			Change7dPercent:  quote.Change7dPercent,
		})

		snapshot.TotalMarketValueUSD = snapshot.TotalMarketValueUSD.Add(marketValue)
		snapshot.TotalCostBasisUSD = snapshot.TotalCostBasisUSD.Add(pos.TotalCostBasis)
		snapshot.TotalUnrealizedPnlUSD = snapshot.TotalUnrealizedPnlUSD.Add(pnl)
	}

	snapshot.TotalPortfolioValueUSD = snapshot.TotalMarketValueUSD.Add(book.CashBalanceUSD)
	if snapshot.TotalCostBasisUSD.GreaterThan(decimal.Zero) {
		snapshot.TotalPnlPercent = snapshot.TotalUnrealizedPnlUSD.Div(snapshot.TotalCostBasisUSD).Mul(hundred)
	}

	sort.SliceStable(snapshot.Positions, func(i, j int) bool {
		return snapshot.Positions[i].MarketValueUSD.GreaterThan(snapshot.Positions[j].MarketValueUSD)
	})

	return snapshot
}
