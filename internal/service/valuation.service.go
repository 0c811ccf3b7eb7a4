package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/plrectco/dcf/internal/calculator"
	"github.com/plrectco/dcf/internal/domain"
	"github.com/plrectco/dcf/internal/logger"
	"github.com/plrectco/dcf/internal/repository"
)

type ValuationOptions struct {
	Years              int
	TerminalGrowthRate float64
	MarketReturn       float64
}

func (o ValuationOptions) Validate() error {
	if o.Years <= 0 {
		return &domain.InvalidInputError{
			Message: fmt.Sprintf("years must be a positive integer, got %d", o.Years),
		}
	}
	if math.IsNaN(o.TerminalGrowthRate) || math.IsInf(o.TerminalGrowthRate, 0) {
		return &domain.InvalidInputError{Message: "terminal growth rate must be a finite number"}
	}
	if math.IsNaN(o.MarketReturn) || math.IsInf(o.MarketReturn, 0) {
		return &domain.InvalidInputError{Message: "market return must be a finite number"}
	}
	return nil
}

type ValuationService interface {
	Value(ctx context.Context, ticker string, opts ValuationOptions) (*domain.TickerValuation, error)
	ValueBatch(ctx context.Context, tickers []string, opts ValuationOptions) (*domain.BatchReport, error)
}

type valuationServiceHandler struct {
	SnapshotRepository repository.SnapshotRepository
}

func NewValuationService(snapshotRepository repository.SnapshotRepository) ValuationService {
	return valuationServiceHandler{
		SnapshotRepository: snapshotRepository,
	}
}

func (h valuationServiceHandler) Value(ctx context.Context, ticker string, opts ValuationOptions) (*domain.TickerValuation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return h.value(ctx, ticker, opts)
}

func (h valuationServiceHandler) value(ctx context.Context, ticker string, opts ValuationOptions) (*domain.TickerValuation, error) {
	profile, _ := domain.GetProfile(ctx)

	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, &domain.InvalidInputError{Message: "ticker must not be empty"}
	}

	_, endSpan := profile.StartNewSpan("fetching snapshot for " + symbol)
	snapshot, err := h.SnapshotRepository.Get(ctx, symbol)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", symbol, err)
	}

	_, endSpan = profile.StartNewSpan("valuing " + symbol)
	defer endSpan()

	valuation, err := valueSnapshot(*snapshot, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to value %s: %w", symbol, err)
	}
	return valuation, nil
}

// valueSnapshot is deterministic: the same snapshot and options always
// produce bit-identical results.
func valueSnapshot(snapshot domain.FinancialSnapshot, opts ValuationOptions) (*domain.TickerValuation, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	wacc, err := calculator.CalculateWACC(snapshot, opts.MarketReturn)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate wacc: %w", err)
	}

	projection, err := calculator.Project(snapshot, calculator.ProjectionInput{
		Years:              opts.Years,
		TerminalGrowthRate: opts.TerminalGrowthRate,
		DiscountRate:       wacc.WACC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to project cash flows: %w", err)
	}

	margin, err := calculator.CalculateMargin(snapshot.CurrentPrice, projection.IntrinsicValuePerShare)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate margin: %w", err)
	}

	cashFlows := projection.YearlyCashFlows()
	if err := requireFinite(snapshot.Ticker, projection, margin, cashFlows); err != nil {
		return nil, err
	}

	return &domain.TickerValuation{
		Ticker:             snapshot.Ticker,
		CurrentValue:       margin.CurrentValue,
		IntrinsicValue:     margin.IntrinsicValue,
		Margin:             margin.Margin,
		DiscountRate:       wacc.WACC,
		GrowthRate:         snapshot.NearTermGrowthEstimate,
		TerminalGrowthRate: opts.TerminalGrowthRate,
		FreeCashFlow:       snapshot.FreeCashFlow,
		CashFlows:          cashFlows,
		TerminalValue:      projection.TerminalValue,
		Cash:               snapshot.CashAndEquivalents,
		Debt:               snapshot.TotalDebt,
		EquityValue:        projection.EquityValue,
		SharesOutstanding:  snapshot.SharesOutstanding,
		Warnings:           projection.Warnings,
	}, nil
}

// ValueBatch values each ticker in order. A ticker that fails is recorded
// in Failures and the batch moves on; only bad options or an empty list
// fail the whole call.
func (h valuationServiceHandler) ValueBatch(ctx context.Context, tickers []string, opts ValuationOptions) (*domain.BatchReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, &domain.InvalidInputError{Message: "at least one ticker is required"}
	}

	runID := uuid.New()
	log := logger.FromContext(ctx).With("runID", runID.String())
	ctx = logger.NewContext(ctx, log)

	profile, endProfile := domain.NewProfile()
	ctx = domain.NewContextWithProfile(ctx, profile)

	valuations := []domain.TickerValuation{}
	failures := []domain.TickerFailure{}

	for _, ticker := range tickers {
		valuation, err := h.value(ctx, ticker, opts)
		if err != nil {
			kind := domain.KindOf(err)
			log.Infow("failed to value ticker", "ticker", ticker, "kind", kind, "error", err.Error())
			failures = append(failures, domain.TickerFailure{
				Ticker:  strings.ToUpper(strings.TrimSpace(ticker)),
				Kind:    kind,
				Message: err.Error(),
			})
			continue
		}
		for _, warning := range valuation.Warnings {
			log.Warnw(warning, "ticker", valuation.Ticker)
		}
		valuations = append(valuations, *valuation)
	}

	ranked := calculator.RankValuations(valuations)
	summary, err := calculator.SummarizeRanking(ranked)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize ranking: %w", err)
	}

	endProfile()
	if profileBytes, err := profile.ToJsonBytes(); err == nil {
		log.Debugw("valuation batch profile", "profile", string(profileBytes))
	}
	log.Infow("valued batch", "valued", len(ranked), "failed", len(failures))

	return &domain.BatchReport{
		RunID:    runID,
		Years:    opts.Years,
		Ranked:   ranked,
		Failures: failures,
		Summary:  *summary,
	}, nil
}

// requireFinite rejects a valuation whose compounding overflowed float64.
// A NaN margin cannot be ordered and encoding/json refuses inf and NaN, so
// such a ticker has to fail here rather than reach the ranking.
func requireFinite(ticker string, projection *calculator.Projection, margin *calculator.MarginResult, cashFlows []domain.YearCashFlow) error {
	quantities := []struct {
		name  string
		value float64
	}{
		{"intrinsic value", projection.IntrinsicValuePerShare},
		{"margin", margin.Margin},
		{"terminal value", projection.TerminalValue},
		{"equity value", projection.EquityValue},
	}
	for _, q := range quantities {
		if !isFinite(q.value) {
			return &domain.NonFiniteError{Ticker: ticker, Quantity: q.name, Value: q.value}
		}
	}

	for _, cf := range cashFlows {
		if !isFinite(cf.CashFlow) {
			return &domain.NonFiniteError{Ticker: ticker, Quantity: fmt.Sprintf("cash flow for year %d", cf.Year), Value: cf.CashFlow}
		}
		if !isFinite(cf.DiscountedCashFlow) {
			return &domain.NonFiniteError{Ticker: ticker, Quantity: fmt.Sprintf("discounted cash flow for year %d", cf.Year), Value: cf.DiscountedCashFlow}
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
