package position

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

// Book is the folded holding state of the full ledger: the aggregate cash
// balance plus one weighted-average-cost position per asset.
type Book struct {
	CashBalanceUSD decimal.Decimal
	Positions      map[string]domain.Position
	Order          []string // assets in first-seen order, for deterministic display tie-breaks
	Warnings       []string // recoverable data-quality findings (oversells, sells without a position)
}

// HeldAssets returns the symbols with a non-dust holding, in first-seen order.
func (b Book) HeldAssets() []string {
	held := make([]string, 0, len(b.Order))
	for _, asset := range b.Order {
		if b.Positions[asset].QuantityHeld.GreaterThan(domain.Epsilon) {
			held = append(held, asset)
		}
	}
	return held
}

// Aggregate folds the transaction ledger into per-asset holdings and the
// aggregate cash balance.
// Logic:
//   - DEPOSIT adds to cash, WITHDRAW subtracts; BUY spends cash, SELL returns it
//   - BUY on a non-cash asset adds the quantity and the full USD value to the
//     position's cost basis (weighted-average costing)
//   - SELL removes cost proportional to the average cost of the units sold;
//     selling more than held clamps the position to zero and records a warning
//     instead of going negative
//
// Cash and per-asset updates are commutative, so the fold order does not
// matter. Pure and deterministic; linear in the number of transactions.
func Aggregate(transactions []*domain.Transaction) Book {
	book := Book{Positions: make(map[string]domain.Position)}

	for _, tx := range transactions {
		switch tx.Type {
		case domain.TransactionTypeDeposit:
			book.CashBalanceUSD = book.CashBalanceUSD.Add(tx.ValueUSD)
		case domain.TransactionTypeWithdraw:
			book.CashBalanceUSD = book.CashBalanceUSD.Sub(tx.ValueUSD)
		case domain.TransactionTypeBuy:
			book.CashBalanceUSD = book.CashBalanceUSD.Sub(tx.ValueUSD)
			if !tx.IsCash() {
				book.applyBuy(tx)
			}
		case domain.TransactionTypeSell:
			book.CashBalanceUSD = book.CashBalanceUSD.Add(tx.ValueUSD)
			if !tx.IsCash() {
				book.applySell(tx)
			}
		}
	}

	return book
}

func (b *Book) applyBuy(tx *domain.Transaction) {
	pos, seen := b.Positions[tx.Asset]
	if !seen {
		b.Order = append(b.Order, tx.Asset)
	}
	pos.QuantityHeld = pos.QuantityHeld.Add(tx.AssetQuantity)
	pos.TotalCostBasis = pos.TotalCostBasis.Add(tx.ValueUSD)
	b.Positions[tx.Asset] = pos
}

func (b *Book) applySell(tx *domain.Transaction) {
	pos, seen := b.Positions[tx.Asset]
	if !seen {
		b.Order = append(b.Order, tx.Asset)
		b.Positions[tx.Asset] = pos
	}

	// A sale against an empty position cannot remove any cost basis; the
	// proceeds still landed in cash above. Guards the average-cost division.
	if pos.QuantityHeld.LessThanOrEqual(decimal.Zero) {
		b.Warnings = append(b.Warnings, fmt.Sprintf(
			"SELL of %s %s with no held quantity; position left untouched",
			tx.AssetQuantity, tx.Asset))
		return
	}

	if tx.AssetQuantity.GreaterThan(pos.QuantityHeld.Add(domain.Epsilon)) {
		b.Warnings = append(b.Warnings, fmt.Sprintf(
			"SELL of %s %s exceeds held quantity %s; clamping position to zero",
			tx.AssetQuantity, tx.Asset, pos.QuantityHeld))
	}

	averageCost := pos.AverageCost()
	soldQuantity := decimal.Min(tx.AssetQuantity, pos.QuantityHeld)
	costRemoved := averageCost.Mul(soldQuantity)

	pos.QuantityHeld = domain.ClampDust(pos.QuantityHeld.Sub(soldQuantity))
	pos.TotalCostBasis = domain.ClampDust(pos.TotalCostBasis.Sub(costRemoved))
	b.Positions[tx.Asset] = pos
}
