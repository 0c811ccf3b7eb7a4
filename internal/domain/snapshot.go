package domain

import (
	"fmt"
	"math"
)

// FinancialSnapshot is everything the valuation needs for one ticker.
// It is populated once by a SnapshotRepository and never mutated.
type FinancialSnapshot struct {
	Ticker             string  `json:"ticker"`
	CurrentPrice       float64 `json:"currentPrice"`
	MarketCap          float64 `json:"marketCap"`
	Beta               float64 `json:"beta"`
	SharesOutstanding  int64   `json:"sharesOutstanding"`
	RiskFreeRate       float64 `json:"riskFreeRate"`
	TotalDebt          float64 `json:"totalDebt"`
	TaxProvision       float64 `json:"taxProvision"`
	PretaxIncome       float64 `json:"pretaxIncome"`
	FreeCashFlow       float64 `json:"freeCashFlow"`
	CashAndEquivalents float64 `json:"cashAndEquivalents"`

	// analyst +1y estimate, applied to the explicit projection years only
	NearTermGrowthEstimate float64 `json:"nearTermGrowthEstimate"`

	// nil when the income statement has no interest expense line
	InterestExpense *float64 `json:"interestExpense,omitempty"`
}

// InterestExpenseOrZero applies the default-to-zero rule for a missing
// or NaN interest expense.
func (s FinancialSnapshot) InterestExpenseOrZero() float64 {
	if s.InterestExpense == nil || math.IsNaN(*s.InterestExpense) {
		return 0
	}
	return *s.InterestExpense
}

// Validate checks that every required field carries a finite number and
// that price and share count are not negative. Zero denominators are left
// to the calculators so they surface as DivisionByZeroError with the
// quantity that needed them.
func (s FinancialSnapshot) Validate() error {
	required := []struct {
		name  string
		value float64
	}{
		{"currentPrice", s.CurrentPrice},
		{"marketCap", s.MarketCap},
		{"beta", s.Beta},
		{"riskFreeRate", s.RiskFreeRate},
		{"totalDebt", s.TotalDebt},
		{"taxProvision", s.TaxProvision},
		{"pretaxIncome", s.PretaxIncome},
		{"freeCashFlow", s.FreeCashFlow},
		{"cashAndEquivalents", s.CashAndEquivalents},
		{"nearTermGrowthEstimate", s.NearTermGrowthEstimate},
	}
	for _, f := range required {
		if math.IsNaN(f.value) {
			return &MissingFieldError{Ticker: s.Ticker, Field: f.name}
		}
		if math.IsInf(f.value, 0) {
			return &InvalidInputError{Message: fmt.Sprintf("%s: %s must be finite, got %v", s.Ticker, f.name, f.value)}
		}
	}
	if s.InterestExpense != nil && math.IsInf(*s.InterestExpense, 0) {
		return &InvalidInputError{Message: fmt.Sprintf("%s: interestExpense must be finite, got %v", s.Ticker, *s.InterestExpense)}
	}

	if s.CurrentPrice < 0 {
		return &InvalidInputError{Message: fmt.Sprintf("%s: currentPrice must not be negative, got %v", s.Ticker, s.CurrentPrice)}
	}
	if s.SharesOutstanding < 0 {
		return &InvalidInputError{Message: fmt.Sprintf("%s: sharesOutstanding must not be negative, got %d", s.Ticker, s.SharesOutstanding)}
	}

	return nil
}

func Float64Ptr(f float64) *float64 {
	return &f
}
