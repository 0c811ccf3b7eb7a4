package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/plrectco/dcf/internal/domain"
	"github.com/plrectco/dcf/internal/logger"
	"github.com/plrectco/dcf/pkg/yahoo"
)

const nearTermGrowthPeriod = "+1y"

type quoteSummaryGetter interface {
	GetQuoteSummary(ctx context.Context, symbol string) (*yahoo.QuoteSummary, error)
}

type yahooSnapshotRepositoryHandler struct {
	GetEquity              func(symbol string) (*finance.Equity, error)
	QuoteSummaryClient     quoteSummaryGetter
	InterestRateRepository InterestRateRepository
}

func NewYahooSnapshotRepository(client *yahoo.Client, interestRateRepository InterestRateRepository) SnapshotRepository {
	return &yahooSnapshotRepositoryHandler{
		GetEquity:              equity.Get,
		QuoteSummaryClient:     client,
		InterestRateRepository: interestRateRepository,
	}
}

func (h yahooSnapshotRepositoryHandler) Get(ctx context.Context, ticker string) (*domain.FinancialSnapshot, error) {
	log := logger.FromContext(ctx)
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	eq, err := h.GetEquity(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get equity for %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, &domain.NotFoundError{Ticker: symbol}
	}

	summary, err := h.QuoteSummaryClient.GetQuoteSummary(ctx, symbol)
	if errors.Is(err, yahoo.ErrNotFound) {
		return nil, &domain.NotFoundError{Ticker: symbol}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get quote summary for %s: %w", symbol, err)
	}

	riskFreeRate, err := h.InterestRateRepository.GetRiskFreeRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get risk free rate: %w", err)
	}

	log.Debugf("fetched yahoo data for %s", symbol)

	return snapshotFromYahoo(symbol, eq, summary, riskFreeRate)
}

func rawOrNaN(v yahoo.Value) float64 {
	if v.Raw == nil {
		return math.NaN()
	}
	return *v.Raw
}

func ptrOrNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

func snapshotFromYahoo(symbol string, eq *finance.Equity, summary *yahoo.QuoteSummary, riskFreeRate float64) (*domain.FinancialSnapshot, error) {
	missing := func(field string) error {
		return &domain.MissingFieldError{Ticker: symbol, Field: field}
	}

	price := eq.RegularMarketPrice
	if price == 0 && summary.FinancialData.CurrentPrice.Raw != nil {
		price = *summary.FinancialData.CurrentPrice.Raw
	}
	if price == 0 {
		return nil, missing("currentPrice")
	}
	if eq.MarketCap == 0 {
		return nil, missing("marketCap")
	}
	if eq.SharesOutstanding == 0 {
		return nil, missing("sharesOutstanding")
	}

	income := summary.LatestIncomeStatement()
	if income == nil {
		return nil, missing("pretaxIncome")
	}
	balanceSheet := summary.LatestBalanceSheet()
	if balanceSheet == nil {
		return nil, missing("cashAndEquivalents")
	}
	cashflow := summary.LatestCashflowStatement()
	if cashflow == nil {
		return nil, missing("freeCashFlow")
	}

	freeCashFlow := math.NaN()
	if cashflow.TotalCashFromOperatingActivities.Raw != nil && cashflow.CapitalExpenditures.Raw != nil {
		// capex is reported as a negative number
		freeCashFlow = *cashflow.TotalCashFromOperatingActivities.Raw + *cashflow.CapitalExpenditures.Raw
	}

	var interestExpense *float64
	if income.InterestExpense.Raw != nil {
		// yahoo reports expenses as negative numbers on some statements
		interestExpense = domain.Float64Ptr(math.Abs(*income.InterestExpense.Raw))
	}

	snapshot := domain.FinancialSnapshot{
		Ticker:                 symbol,
		CurrentPrice:           price,
		MarketCap:              float64(eq.MarketCap),
		Beta:                   rawOrNaN(summary.DefaultKeyStatistics.Beta),
		SharesOutstanding:      int64(eq.SharesOutstanding),
		RiskFreeRate:           riskFreeRate,
		TotalDebt:              rawOrNaN(summary.FinancialData.TotalDebt),
		TaxProvision:           rawOrNaN(income.IncomeTaxExpense),
		PretaxIncome:           rawOrNaN(income.IncomeBeforeTax),
		FreeCashFlow:           freeCashFlow,
		CashAndEquivalents:     rawOrNaN(balanceSheet.Cash),
		NearTermGrowthEstimate: ptrOrNaN(summary.GrowthEstimate(nearTermGrowthPeriod)),
		InterestExpense:        interestExpense,
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
