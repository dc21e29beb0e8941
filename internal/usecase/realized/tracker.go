package realized

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type runningPosition struct {
	quantity decimal.Decimal
	cost     decimal.Decimal
}

// Track replays the ledger chronologically and emits one realized-sale record
// per SELL that had a positive running quantity at the moment of the sale.
//
// It keeps its own running average-cost state, independent from the position
// aggregator, because realized P&L needs the cost basis as it stood when each
// sale happened, not the final folded state. SELLs with no prior running
// quantity emit nothing (no cost basis to compare against).
// Pure function; restartable.
func Track(transactions []*domain.Transaction) []domain.RealizedSale {
	ordered := make([]*domain.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	running := make(map[string]runningPosition)
	sales := make([]domain.RealizedSale, 0)

	for _, tx := range ordered {
		if tx.IsCash() {
			continue
		}

		switch tx.Type {
		case domain.TransactionTypeBuy:
			rp := running[tx.Asset]
			rp.quantity = rp.quantity.Add(tx.AssetQuantity)
			rp.cost = rp.cost.Add(tx.ValueUSD)
			running[tx.Asset] = rp

		case domain.TransactionTypeSell:
			rp := running[tx.Asset]
			if rp.quantity.LessThanOrEqual(decimal.Zero) {
				continue
			}

			averageCost := rp.cost.Div(rp.quantity)
			costOfSold := tx.AssetQuantity.Mul(averageCost)
			pnl := tx.ValueUSD.Sub(costOfSold)

			pnlPercent := decimal.Zero
			if costOfSold.GreaterThan(decimal.Zero) {
				pnlPercent = pnl.Div(costOfSold).Mul(hundred)
			}

			sales = append(sales, domain.RealizedSale{
				Asset:       tx.Asset,
				SoldAt:      tx.CreatedAt,
				ProceedsUSD: tx.ValueUSD,
				CostUSD:     costOfSold,
				PnlUSD:      pnl,
				PnlPercent:  pnlPercent,
			})

			// Clamp to zero within epsilon to avoid negative-dust carryover
			rp.quantity = domain.ClampDust(rp.quantity.Sub(tx.AssetQuantity))
			rp.cost = domain.ClampDust(rp.cost.Sub(costOfSold))
			running[tx.Asset] = rp
		}
	}

	return sales
}
