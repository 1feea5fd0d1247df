// Package cost estimates Google Places spend from request counts.
package cost

// Rates holds Places pricing in USD per 1000 requests.
type Rates struct {
	NearbySearchPer1K float64 `yaml:"nearby_search_per_1k" mapstructure:"nearby_search_per_1k"`
	DetailsPer1K      float64 `yaml:"details_per_1k" mapstructure:"details_per_1k"`
	// FreeCreditUSD is subtracted once from the total, floored at zero.
	FreeCreditUSD float64 `yaml:"free_credit_usd" mapstructure:"free_credit_usd"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// NearbySearch returns the cost of n nearby search requests.
func (c *Calculator) NearbySearch(n int64) float64 {
	return (float64(n) / 1000) * c.rates.NearbySearchPer1K
}

// Details returns the cost of n place details requests.
func (c *Calculator) Details(n int64) float64 {
	return (float64(n) / 1000) * c.rates.DetailsPer1K
}

// Places returns the total cost of a run after the free credit.
func (c *Calculator) Places(nearby, details int64) float64 {
	total := c.NearbySearch(nearby) + c.Details(details) - c.rates.FreeCreditUSD
	if total < 0 {
		return 0
	}
	return total
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		NearbySearchPer1K: 32.00,
		DetailsPer1K:      17.00,
	}
}
