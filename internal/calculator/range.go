package calculator

import (
	"math"

	"EarningsChart/internal/model"
)

// PriceRange scans the whole series and returns its lowest and highest close.
func PriceRange(series model.PriceSeries) (low, high float64, err error) {
	if series.Len() == 0 {
		return 0, 0, model.Errorf(model.KindInvalidInput, "price series is empty")
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, price := range series.Prices() {
		low = math.Min(low, price)
		high = math.Max(high, price)
	}
	return low, high, nil
}
