package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
)

// symbolToID maps ticker symbols to CoinGecko coin ids for the assets the
// fund trades. Symbols not listed here are passed through lower-cased, which
// works for coins whose id matches their ticker.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"BNB":   "binancecoin",
	"ATOM":  "cosmos",
	"UNI":   "uniswap",
}

type cachedQuote struct {
	quote   domain.Quote
	fetched time.Time
}

// CoinGecko implements domain.PriceOracle against the public CoinGecko
// /coins/markets endpoint, with a short per-symbol TTL cache in front of it.
type CoinGecko struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration
	mu      sync.RWMutex
	cache   map[string]cachedQuote
}

// NewCoinGecko creates a CoinGecko price oracle. An empty baseURL selects the
// public API; tests point it at a local httptest server.
func NewCoinGecko(baseURL string, ttl time.Duration) *CoinGecko {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGecko{
		cli:     &http.Client{Timeout: 8 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		cache:   make(map[string]cachedQuote),
	}
}

// GetPrices returns current USD quotes for the given symbols. Symbols the
// provider cannot resolve are simply absent from the result, not an error.
func (c *CoinGecko) GetPrices(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	quotes := make(map[string]domain.Quote, len(symbols))
	misses := make([]string, 0, len(symbols))
	now := time.Now()

	c.mu.RLock()
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" || symbol == domain.AssetUSD {
			continue
		}
		if cached, ok := c.cache[symbol]; ok && now.Sub(cached.fetched) < c.ttl {
			quotes[symbol] = cached.quote
		} else {
			misses = append(misses, symbol)
		}
	}
	c.mu.RUnlock()

	if len(misses) == 0 {
		return quotes, nil
	}

	fetched, err := c.fetch(ctx, misses)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for symbol, quote := range fetched {
		c.cache[symbol] = cachedQuote{quote: quote, fetched: now}
		quotes[symbol] = quote
	}
	c.mu.Unlock()

	return quotes, nil
}

func (c *CoinGecko) fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id, ok := symbolToID[symbol]
		if !ok {
			id = strings.ToLower(symbol)
		}
		ids = append(ids, id)
		idToSymbol[id] = symbol
	}

	endpoint := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&price_change_percentage=7d",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko http %d", resp.StatusCode)
	}

	var raw []struct {
		ID           string  `json:"id"`
		CurrentPrice float64 `json:"current_price"`
		Change7d     float64 `json:"price_change_percentage_7d_in_currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	quotes := make(map[string]domain.Quote, len(raw))
	for _, row := range raw {
		symbol, ok := idToSymbol[row.ID]
		if !ok || row.CurrentPrice <= 0 {
			continue
		}
		quotes[symbol] = domain.Quote{
			USD:             decimal.NewFromFloat(row.CurrentPrice),
			Change7dPercent: decimal.NewFromFloat(row.Change7d),
		}
	}
	return quotes, nil
}
