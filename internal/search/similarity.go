package search

import (
	"math"

	"car-marketplace/internal/domain"
)

// Price band around a reference price, in percent.
const (
	SimilarPriceLowerPct = 80
	SimilarPriceUpperPct = 120
)

// SimilarFilter builds the filter that selects cars similar to ref: same
// category and make, price within 80%..120% of ref's price, same fuel and
// transmission when ref has them, and never ref itself.
func SimilarFilter(ref *domain.Car) Filter {
	low, high := PriceBand(ref.Price)

	return Filter{
		Category:     ref.Category,
		Make:         ref.Make,
		PriceRange:   &FloatRange{Min: low, Max: high},
		Fuel:         ref.Fuel,
		Transmission: ref.Transmission,
		ExcludeID:    int64Ptr(ref.ID),
	}
}

// PriceBand returns the inclusive similarity band for price. Bounds are
// computed on the cent grid so prices stored with two decimals compare
// exactly: every cent amount inside [0.8p, 1.2p] is included and nothing
// outside is.
func PriceBand(price float64) (float64, float64) {
	cents := int64(math.Round(price * 100))
	low := (cents*SimilarPriceLowerPct + 99) / 100
	high := cents * SimilarPriceUpperPct / 100
	return float64(low) / 100, float64(high) / 100
}
