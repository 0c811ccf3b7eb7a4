package calculator

import (
	"math"

	"github.com/plrectco/dcf/internal/domain"
	"github.com/shopspring/decimal"
)

type MarginResult struct {
	CurrentValue   float64
	IntrinsicValue float64
	Margin         float64
}

// CalculateMargin compares intrinsic value with the traded price. The margin
// is computed from the unrounded intrinsic value, then both are rounded to
// two decimals.
func CalculateMargin(currentValue, intrinsicValue float64) (*MarginResult, error) {
	if currentValue == 0 {
		return nil, &domain.DivisionByZeroError{
			Quantity:    "margin",
			Denominator: "current value",
		}
	}
	margin := (intrinsicValue - currentValue) / currentValue

	return &MarginResult{
		CurrentValue:   currentValue,
		IntrinsicValue: Round2(intrinsicValue),
		Margin:         Round2(margin),
	}, nil
}

// Round2 rounds half away from zero. NaN and ±Inf are returned unchanged,
// decimal cannot represent them.
func Round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
