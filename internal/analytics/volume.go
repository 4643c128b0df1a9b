package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

var maxCount = decimal.NewFromInt(math.MaxInt64)

// AverageVolume returns the mean point value rounded to the nearest integer, 0 for an empty series.
func AverageVolume(series []Point) int64 {
	if len(series) == 0 {
		return 0
	}

	total := decimal.Zero
	for _, p := range series {
		total = total.Add(decimal.NewFromFloat(pointValue(p)))
	}

	return toCount(total.Div(decimal.NewFromInt(int64(len(series)))))
}

// toCount rounds d half away from zero and clamps it to [0, MaxInt64].
func toCount(d decimal.Decimal) int64 {
	d = d.Round(0)
	switch {
	case d.Sign() <= 0:
		return 0
	case d.GreaterThan(maxCount):
		return math.MaxInt64
	default:
		return d.IntPart()
	}
}
