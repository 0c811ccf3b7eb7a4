package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/plrectco/dcf/internal/domain"
	"github.com/stretchr/testify/require"
)

func floatComparer() cmp.Option {
	return cmp.Comparer(func(i, j float64) bool {
		return math.Abs(i-j) < 1e-9
	})
}

func newTestSnapshot() domain.FinancialSnapshot {
	return domain.FinancialSnapshot{
		Ticker:                 "TEST",
		CurrentPrice:           100,
		MarketCap:              800_000_000,
		Beta:                   1.2,
		SharesOutstanding:      10_000_000,
		RiskFreeRate:           0.04,
		TotalDebt:              200_000_000,
		InterestExpense:        domain.Float64Ptr(10_000_000),
		TaxProvision:           21_000_000,
		PretaxIncome:           100_000_000,
		FreeCashFlow:           50_000_000,
		CashAndEquivalents:     30_000_000,
		NearTermGrowthEstimate: 0.05,
	}
}

func TestCalculateWACC(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		result, err := CalculateWACC(newTestSnapshot(), 0.1)
		require.NoError(t, err)

		// ke = 0.04 + 1.2 * 0.06 = 0.112
		// kd = 10m / 200m = 0.05, t = 0.21
		// wacc = 0.8 * 0.112 + 0.2 * 0.05 * 0.79
		require.Equal(
			t,
			"",
			cmp.Diff(
				&WACCResult{
					CostOfEquity: 0.112,
					CostOfDebt:   0.05,
					TaxRate:      0.21,
					WeightEquity: 0.8,
					WeightDebt:   0.2,
					WACC:         0.8*0.112 + 0.2*0.05*0.79,
				},
				result,
				floatComparer(),
			),
		)
	})

	t.Run("missing interest expense defaults to zero", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.InterestExpense = nil

		result, err := CalculateWACC(snapshot, 0.1)
		require.NoError(t, err)
		require.Equal(t, float64(0), result.CostOfDebt)
		require.InDelta(t, 0.8*0.112, result.WACC, 1e-12)
	})

	t.Run("NaN interest expense defaults to zero", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.InterestExpense = domain.Float64Ptr(math.NaN())

		result, err := CalculateWACC(snapshot, 0.1)
		require.NoError(t, err)
		require.Equal(t, float64(0), result.CostOfDebt)
		require.False(t, math.IsNaN(result.WACC))
	})

	t.Run("zero total debt", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.TotalDebt = 0

		_, err := CalculateWACC(snapshot, 0.1)
		require.Error(t, err)

		var divErr *domain.DivisionByZeroError
		require.True(t, errors.As(err, &divErr))
		require.Equal(t, "cost of debt", divErr.Quantity)
		require.Equal(t, domain.ErrorKindDivisionByZero, domain.KindOf(err))
	})

	t.Run("zero pretax income", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.PretaxIncome = 0

		_, err := CalculateWACC(snapshot, 0.1)

		var divErr *domain.DivisionByZeroError
		require.True(t, errors.As(err, &divErr))
		require.Equal(t, "tax rate", divErr.Quantity)
	})

	t.Run("negative tax rate is not clamped", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.TaxProvision = -5_000_000

		result, err := CalculateWACC(snapshot, 0.1)
		require.NoError(t, err)
		require.InDelta(t, -0.05, result.TaxRate, 1e-12)
		require.InDelta(t, 0.8*0.112+0.2*0.05*1.05, result.WACC, 1e-12)
	})

	t.Run("tax rate above one is not clamped", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.TaxProvision = 150_000_000

		result, err := CalculateWACC(snapshot, 0.1)
		require.NoError(t, err)
		require.InDelta(t, 1.5, result.TaxRate, 1e-12)
	})

	t.Run("negative beta", func(t *testing.T) {
		snapshot := newTestSnapshot()
		snapshot.Beta = -0.5

		result, err := CalculateWACC(snapshot, 0.1)
		require.NoError(t, err)
		require.InDelta(t, 0.04-0.5*0.06, result.CostOfEquity, 1e-12)
	})
}

func TestCapitalWeights(t *testing.T) {
	t.Run("weights sum to one", func(t *testing.T) {
		inputs := [][2]float64{
			{800, 200},
			{1, 0},
			{3_000_000_000_000, 123_456_789},
			{0.1, 0.7},
			{2_500_000_000, 97_000_000_000},
		}
		for _, in := range inputs {
			we, wd, err := CapitalWeights(in[0], in[1])
			require.NoError(t, err)
			require.InDelta(t, 1, we+wd, 1e-12)
		}
	})

	t.Run("no capital", func(t *testing.T) {
		_, _, err := CapitalWeights(0, 0)
		require.Equal(t, domain.ErrorKindDivisionByZero, domain.KindOf(err))
	})
}

func TestCalculateWACC_convexCombination(t *testing.T) {
	snapshots := []domain.FinancialSnapshot{newTestSnapshot()}
	{
		s := newTestSnapshot()
		s.MarketCap = 50_000_000
		s.TotalDebt = 950_000_000
		snapshots = append(snapshots, s)
	}
	{
		s := newTestSnapshot()
		s.InterestExpense = domain.Float64Ptr(90_000_000)
		s.Beta = 0.3
		snapshots = append(snapshots, s)
	}

	for _, s := range snapshots {
		result, err := CalculateWACC(s, 0.1)
		require.NoError(t, err)

		afterTaxDebt := result.CostOfDebt * (1 - result.TaxRate)
		lo := math.Min(result.CostOfEquity, afterTaxDebt)
		hi := math.Max(result.CostOfEquity, afterTaxDebt)
		require.GreaterOrEqual(t, result.WACC, lo-1e-12)
		require.LessOrEqual(t, result.WACC, hi+1e-12)
	}
}
