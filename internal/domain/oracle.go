package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the oracle's current view of one asset.
type Quote struct {
	USD             decimal.Decimal
	Change7dPercent decimal.Decimal // zero when the provider does not report it
}

// PriceOracle looks up current USD prices for a set of asset symbols.
// It is an unreliable, latency-bearing collaborator: symbols it cannot
// resolve are simply absent from the result, not an error.
type PriceOracle interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]Quote, error)
}
