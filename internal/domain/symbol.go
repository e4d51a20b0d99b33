package domain

// Symbol is one tradable pair joined with its 24h ticker stats.
// Liquidity is WeightedAvgPrice * Volume; it ranks the symbol universe and is
// not a financial liquidity measure.
type Symbol struct {
	Symbol           string
	BaseAsset        string
	QuoteAsset       string
	WeightedAvgPrice float64
	Volume           float64
	Liquidity        float64
}
