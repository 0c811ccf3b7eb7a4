package calculator

import (
	"github.com/plrectco/dcf/internal/domain"
)

type WACCResult struct {
	CostOfEquity float64
	CostOfDebt   float64
	TaxRate      float64
	WeightEquity float64
	WeightDebt   float64
	WACC         float64
}

// CalculateWACC derives the discount rate from the snapshot using CAPM for
// equity and the interest expense / debt ratio for debt. Tax rate and cost
// of debt are not clamped, so unusual years pass straight through.
func CalculateWACC(snapshot domain.FinancialSnapshot, marketReturn float64) (*WACCResult, error) {
	costOfEquity := CostOfEquity(snapshot.RiskFreeRate, snapshot.Beta, marketReturn)

	costOfDebt, err := CostOfDebt(snapshot.InterestExpenseOrZero(), snapshot.TotalDebt)
	if err != nil {
		return nil, err
	}

	taxRate, err := EffectiveTaxRate(snapshot.TaxProvision, snapshot.PretaxIncome)
	if err != nil {
		return nil, err
	}

	weightEquity, weightDebt, err := CapitalWeights(snapshot.MarketCap, snapshot.TotalDebt)
	if err != nil {
		return nil, err
	}

	wacc := weightEquity*costOfEquity + weightDebt*costOfDebt*(1-taxRate)

	return &WACCResult{
		CostOfEquity: costOfEquity,
		CostOfDebt:   costOfDebt,
		TaxRate:      taxRate,
		WeightEquity: weightEquity,
		WeightDebt:   weightDebt,
		WACC:         wacc,
	}, nil
}

// CostOfEquity is CAPM: rf + beta * (market - rf)
func CostOfEquity(riskFreeRate, beta, marketReturn float64) float64 {
	return riskFreeRate + beta*(marketReturn-riskFreeRate)
}

func CostOfDebt(interestExpense, totalDebt float64) (float64, error) {
	if totalDebt == 0 {
		return 0, &domain.DivisionByZeroError{
			Quantity:    "cost of debt",
			Denominator: "total debt",
		}
	}
	return interestExpense / totalDebt, nil
}

func EffectiveTaxRate(taxProvision, pretaxIncome float64) (float64, error) {
	if pretaxIncome == 0 {
		return 0, &domain.DivisionByZeroError{
			Quantity:    "tax rate",
			Denominator: "pretax income",
		}
	}
	return taxProvision / pretaxIncome, nil
}

// CapitalWeights splits total capital into equity and debt weights. The debt
// weight is the complement of the equity weight so the two always sum to 1.
func CapitalWeights(marketCap, totalDebt float64) (weightEquity, weightDebt float64, err error) {
	totalCapital := marketCap + totalDebt
	if totalCapital == 0 {
		return 0, 0, &domain.DivisionByZeroError{
			Quantity:    "capital weights",
			Denominator: "total capital",
		}
	}
	weightEquity = marketCap / totalCapital
	return weightEquity, 1 - weightEquity, nil
}
