package normalization

import (
	"sort"
	"strconv"

	"binance-data-lab/internal/binance"
	"binance-data-lab/internal/domain"
)

// DefaultQuoteAssets is the quote-asset allow-set used when none is
// configured: the major stablecoin plus the base chain asset.
var DefaultQuoteAssets = []string{"USDT", "BTC"}

// Symbols joins exchange metadata with 24h ticker stats on symbol, derives
// liquidity = weightedAvgPrice * volume, keeps only pairs quoted in one of
// quoteAssets with positive liquidity, and orders the result by liquidity
// descending. Ticker rows with unparseable numeric fields are dropped rather
// than failing the join; the bulk endpoint routinely carries delisted noise.
func Symbols(infos []binance.SymbolInfo, tickers []binance.Ticker24h, quoteAssets []string) []domain.Symbol {
	if len(quoteAssets) == 0 {
		quoteAssets = DefaultQuoteAssets
	}
	allowed := make(map[string]struct{}, len(quoteAssets))
	for _, q := range quoteAssets {
		allowed[q] = struct{}{}
	}

	bySymbol := make(map[string]binance.Ticker24h, len(tickers))
	for _, t := range tickers {
		bySymbol[t.Symbol] = t
	}

	var out []domain.Symbol
	for _, info := range infos {
		if _, ok := allowed[info.QuoteAsset]; !ok {
			continue
		}
		ticker, ok := bySymbol[info.Symbol]
		if !ok {
			continue
		}

		price, err := strconv.ParseFloat(ticker.WeightedAvgPrice, 64)
		if err != nil {
			continue
		}
		volume, err := strconv.ParseFloat(ticker.Volume, 64)
		if err != nil {
			continue
		}

		liquidity := price * volume
		if liquidity <= 0 {
			continue
		}

		out = append(out, domain.Symbol{
			Symbol:           info.Symbol,
			BaseAsset:        info.BaseAsset,
			QuoteAsset:       info.QuoteAsset,
			WeightedAvgPrice: price,
			Volume:           volume,
			Liquidity:        liquidity,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Liquidity > out[j].Liquidity
	})
	return out
}
