package calculator

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/plrectco/dcf/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Run("single year discounted cash flow", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:           1_000_000,
			NearTermGrowthEstimate: 0.05,
			SharesOutstanding:      1,
		}

		projection, err := Project(snapshot, ProjectionInput{
			Years:              1,
			TerminalGrowthRate: 0.03,
			DiscountRate:       0.10,
		})
		require.NoError(t, err)
		require.InDelta(t, 954_545.45, projection.DiscountedCashFlows, 0.01)
	})

	t.Run("terminal value", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:           2_000_000,
			NearTermGrowthEstimate: 0.05,
			SharesOutstanding:      1,
		}

		projection, err := Project(snapshot, ProjectionInput{
			Years:              10,
			TerminalGrowthRate: 0.03,
			DiscountRate:       0.08,
		})
		require.NoError(t, err)

		expected := 2_000_000 * math.Pow(1.03, 10) / 0.05
		require.InEpsilon(t, expected, projection.TerminalValue, 1e-9)
		require.Empty(t, projection.Warnings)
	})

	t.Run("full valuation", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:           100,
			NearTermGrowthEstimate: 0.1,
			CashAndEquivalents:     50,
			TotalDebt:              30,
			SharesOutstanding:      4,
		}

		projection, err := Project(snapshot, ProjectionInput{
			Years:              2,
			TerminalGrowthRate: 0.02,
			DiscountRate:       0.1,
		})
		require.NoError(t, err)

		// 110/1.1 + 121/1.21 = 200
		require.InDelta(t, 200, projection.DiscountedCashFlows, 1e-9)
		terminal := 100 * 1.02 * 1.02 / 0.08
		require.InDelta(t, terminal, projection.TerminalValue, 1e-9)
		require.InDelta(t, 200+terminal, projection.GrossValue, 1e-9)
		require.InDelta(t, 200+terminal+50-30, projection.EquityValue, 1e-9)
		require.InDelta(t, (200+terminal+20)/4, projection.IntrinsicValuePerShare, 1e-9)
	})

	t.Run("yearly cash flows", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:           100,
			NearTermGrowthEstimate: 0.1,
			SharesOutstanding:      1,
		}
		projection, err := Project(snapshot, ProjectionInput{
			Years:              3,
			TerminalGrowthRate: 0.02,
			DiscountRate:       0.1,
		})
		require.NoError(t, err)

		require.Equal(
			t,
			"",
			cmp.Diff(
				[]domain.YearCashFlow{
					{Year: 1, CashFlow: 110, DiscountedCashFlow: 100},
					{Year: 2, CashFlow: 121, DiscountedCashFlow: 100},
					{Year: 3, CashFlow: 133.1, DiscountedCashFlow: 100},
				},
				projection.YearlyCashFlows(),
				floatComparer(),
			),
		)
	})

	t.Run("cash flow sequence is restartable and stops early", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:           100,
			NearTermGrowthEstimate: 0.1,
			SharesOutstanding:      1,
		}
		projection, err := Project(snapshot, ProjectionInput{
			Years:              5,
			TerminalGrowthRate: 0.02,
			DiscountRate:       0.1,
		})
		require.NoError(t, err)

		collect := func() []int {
			years := []int{}
			for year := range projection.CashFlows() {
				years = append(years, year)
			}
			return years
		}
		require.Equal(t, []int{1, 2, 3, 4, 5}, collect())
		require.Equal(t, []int{1, 2, 3, 4, 5}, collect())

		seen := 0
		for year := range projection.CashFlows() {
			seen++
			if year == 2 {
				break
			}
		}
		require.Equal(t, 2, seen)
	})

	t.Run("discount rate equals terminal growth", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:      100,
			SharesOutstanding: 1,
		}
		_, err := Project(snapshot, ProjectionInput{
			Years:              5,
			TerminalGrowthRate: 0.05,
			DiscountRate:       0.05,
		})
		require.Equal(t, domain.ErrorKindDivisionByZero, domain.KindOf(err))
	})

	t.Run("discount rate below terminal growth propagates with warning", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow:      100,
			SharesOutstanding: 1,
		}
		projection, err := Project(snapshot, ProjectionInput{
			Years:              1,
			TerminalGrowthRate: 0.05,
			DiscountRate:       0.03,
		})
		require.NoError(t, err)
		require.Less(t, projection.TerminalValue, float64(0))
		require.InDelta(t, 100*1.05/-0.02, projection.TerminalValue, 1e-6)
		require.Len(t, projection.Warnings, 1)
	})

	t.Run("zero shares outstanding", func(t *testing.T) {
		snapshot := domain.FinancialSnapshot{
			FreeCashFlow: 100,
		}
		_, err := Project(snapshot, ProjectionInput{
			Years:              1,
			TerminalGrowthRate: 0.02,
			DiscountRate:       0.1,
		})
		require.Equal(t, domain.ErrorKindDivisionByZero, domain.KindOf(err))
	})

	t.Run("non-positive years", func(t *testing.T) {
		_, err := Project(domain.FinancialSnapshot{SharesOutstanding: 1}, ProjectionInput{
			Years:        0,
			DiscountRate: 0.1,
		})
		require.Equal(t, domain.ErrorKindInvalidInput, domain.KindOf(err))
	})

	t.Run("identical snapshots give identical results", func(t *testing.T) {
		snapshot := newTestSnapshot()
		in := ProjectionInput{
			Years:              10,
			TerminalGrowthRate: 0.03,
			DiscountRate:       0.0923,
		}
		first, err := Project(snapshot, in)
		require.NoError(t, err)
		second, err := Project(snapshot, in)
		require.NoError(t, err)

		require.Equal(t, math.Float64bits(first.IntrinsicValuePerShare), math.Float64bits(second.IntrinsicValuePerShare))
		require.Equal(t, first.YearlyCashFlows(), second.YearlyCashFlows())
	})
}

func TestTerminalValue(t *testing.T) {
	t.Run("positive when discount exceeds growth", func(t *testing.T) {
		for _, fcf := range []float64{1, 1_000, 5_000_000_000} {
			for _, rates := range [][2]float64{{0.08, 0.03}, {0.2, -0.01}, {0.031, 0.03}} {
				tv, err := TerminalValue(fcf, rates[1], rates[0], 7)
				require.NoError(t, err)
				require.Greater(t, tv, float64(0))
			}
		}
	})
}
