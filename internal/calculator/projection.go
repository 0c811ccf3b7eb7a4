package calculator

import (
	"fmt"
	"iter"
	"math"

	"github.com/plrectco/dcf/internal/domain"
)

type ProjectionInput struct {
	Years              int
	TerminalGrowthRate float64
	DiscountRate       float64
}

type Projection struct {
	freeCashFlow float64
	growthRate   float64
	discountRate float64
	years        int

	DiscountedCashFlows    float64
	TerminalValue          float64
	GrossValue             float64
	EquityValue            float64
	IntrinsicValuePerShare float64

	// economically invalid but computable inputs, e.g. terminal growth
	// above the discount rate
	Warnings []string
}

// Project grows free cash flow at the near-term estimate for each explicit
// year, discounts it at the given rate, adds a Gordon-growth terminal value
// at the terminal rate, nets cash and debt and divides by share count.
func Project(snapshot domain.FinancialSnapshot, in ProjectionInput) (*Projection, error) {
	if in.Years <= 0 {
		return nil, &domain.InvalidInputError{
			Message: fmt.Sprintf("projection years must be positive, got %d", in.Years),
		}
	}

	p := &Projection{
		freeCashFlow: snapshot.FreeCashFlow,
		growthRate:   snapshot.NearTermGrowthEstimate,
		discountRate: in.DiscountRate,
		years:        in.Years,
	}

	for year, cashFlow := range p.CashFlows() {
		p.DiscountedCashFlows += discount(cashFlow, in.DiscountRate, year)
	}

	terminalValue, err := TerminalValue(snapshot.FreeCashFlow, in.TerminalGrowthRate, in.DiscountRate, in.Years)
	if err != nil {
		return nil, err
	}
	p.TerminalValue = terminalValue
	if in.DiscountRate < in.TerminalGrowthRate {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"discount rate %.4f is below terminal growth rate %.4f; terminal value %.2f is not meaningful",
			in.DiscountRate,
			in.TerminalGrowthRate,
			terminalValue,
		))
	}

	p.GrossValue = p.DiscountedCashFlows + p.TerminalValue
	p.EquityValue = p.GrossValue + snapshot.CashAndEquivalents - snapshot.TotalDebt

	if snapshot.SharesOutstanding == 0 {
		return nil, &domain.DivisionByZeroError{
			Quantity:    "intrinsic value per share",
			Denominator: "shares outstanding",
		}
	}
	p.IntrinsicValuePerShare = p.EquityValue / float64(snapshot.SharesOutstanding)

	return p, nil
}

// CashFlows yields (year, projected free cash flow) for years 1..N. Each
// call starts a fresh pass, nothing is cached.
func (p Projection) CashFlows() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for year := 1; year <= p.years; year++ {
			if !yield(year, projectCashFlow(p.freeCashFlow, p.growthRate, year)) {
				return
			}
		}
	}
}

func (p Projection) YearlyCashFlows() []domain.YearCashFlow {
	out := make([]domain.YearCashFlow, 0, p.years)
	for year, cashFlow := range p.CashFlows() {
		out = append(out, domain.YearCashFlow{
			Year:               year,
			CashFlow:           cashFlow,
			DiscountedCashFlow: discount(cashFlow, p.discountRate, year),
		})
	}
	return out
}

// TerminalValue is the Gordon growth perpetuity starting after the last
// explicit year. It is not discounted back to today.
func TerminalValue(freeCashFlow, terminalGrowthRate, discountRate float64, years int) (float64, error) {
	if discountRate == terminalGrowthRate {
		return 0, &domain.DivisionByZeroError{
			Quantity:    "terminal value",
			Denominator: "discount rate - terminal growth rate",
		}
	}
	return freeCashFlow * math.Pow(1+terminalGrowthRate, float64(years)) / (discountRate - terminalGrowthRate), nil
}

func projectCashFlow(freeCashFlow, growthRate float64, year int) float64 {
	return freeCashFlow * math.Pow(1+growthRate, float64(year))
}

func discount(cashFlow, discountRate float64, year int) float64 {
	return cashFlow / math.Pow(1+discountRate, float64(year))
}
