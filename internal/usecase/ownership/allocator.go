package ownership

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// driftTolerance is one cent: declared deposit totals and the ledger replay
// may differ by rounding of historic imports, anything beyond that is flagged.
var driftTolerance = decimal.New(1, -2)

// Allocate distributes the total portfolio value across clients proportional
// to their declared net deposited capital.
// Logic:
//   - ownershipPercent = profile deposits / sum of all deposits * 100
//     (0 when the fund has no deposits at all, never a division fault)
//   - equityValue = totalPortfolioValue * ownershipPercent / 100
//   - pnl = equityValue - net capital contributed
//
// Clients are sorted descending by equity value with a stable tie-break on
// the input order. The declared Profile.TotalDepositedUSD is the source of
// truth here; CheckDrift verifies it against the ledger replay.
func Allocate(profiles []*domain.Profile, totalPortfolioValue decimal.Decimal) []domain.ClientEquity {
	totalDeposited := decimal.Zero
	for _, profile := range profiles {
		totalDeposited = totalDeposited.Add(profile.TotalDepositedUSD)
	}

	equities := make([]domain.ClientEquity, 0, len(profiles))
	for _, profile := range profiles {
		percent := decimal.Zero
		if totalDeposited.GreaterThan(decimal.Zero) {
			percent = profile.TotalDepositedUSD.Div(totalDeposited).Mul(hundred)
		}
		equity := totalPortfolioValue.Mul(percent).Div(hundred)

		equities = append(equities, domain.ClientEquity{
			ProfileID:        profile.ID,
			Name:             profile.Name,
			OwnershipPercent: percent,
			EquityValueUSD:   equity,
			PnlUSD:           equity.Sub(profile.TotalDepositedUSD),
		})
	}

	sort.SliceStable(equities, func(i, j int) bool {
		return equities[i].EquityValueUSD.GreaterThan(equities[j].EquityValueUSD)
	})

	return equities
}

// NetDeposits replays cash DEPOSIT/WITHDRAW transactions per client. This is
// the ledger-driven alternative to the denormalized Profile.TotalDepositedUSD
// maintained by the write path; the two must agree unless an adjustment was
// missed or a profile was edited out of band.
func NetDeposits(transactions []*domain.Transaction) map[uuid.UUID]decimal.Decimal {
	net := make(map[uuid.UUID]decimal.Decimal)
	for _, tx := range transactions {
		if tx.ProfileID == nil || !tx.IsCash() {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeDeposit:
			net[*tx.ProfileID] = net[*tx.ProfileID].Add(tx.ValueUSD)
		case domain.TransactionTypeWithdraw:
			net[*tx.ProfileID] = net[*tx.ProfileID].Sub(tx.ValueUSD)
		}
	}
	return net
}

// CheckDrift compares each profile's declared deposit total against the
// ledger replay and reports the profiles that disagree beyond one cent.
// Drift is a bookkeeping defect in the write path, surfaced as a recoverable
// warning rather than guessed away.
func CheckDrift(profiles []*domain.Profile, transactions []*domain.Transaction) []string {
	replayed := NetDeposits(transactions)

	var warnings []string
	for _, profile := range profiles {
		diff := profile.TotalDepositedUSD.Sub(replayed[profile.ID]).Abs()
		if diff.GreaterThan(driftTolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"profile %s declares %s deposited but the ledger replays %s",
				profile.Name, profile.TotalDepositedUSD, replayed[profile.ID]))
		}
	}
	return warnings
}
