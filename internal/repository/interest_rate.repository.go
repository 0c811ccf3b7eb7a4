package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	interestrate "github.com/plrectco/dcf/pkg/interest_rate"
	"github.com/shopspring/decimal"
)

const TenYearTreasurySymbol = "^TNX"

// InterestRateRepository supplies the risk-free rate used for the cost of
// equity. Implementations fetch once and reuse the value for the lifetime
// of the repository.
type InterestRateRepository interface {
	GetRiskFreeRate(ctx context.Context) (float64, error)
}

type cachedRate struct {
	mu    sync.Mutex
	rate  *float64
	fetch func(ctx context.Context) (float64, error)
}

func (c *cachedRate) get(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rate != nil {
		return *c.rate, nil
	}
	rate, err := c.fetch(ctx)
	if err != nil {
		return 0, err
	}
	c.rate = &rate
	return rate, nil
}

type tnxInterestRateRepository struct {
	GetQuote func(symbol string) (*finance.Quote, error)
	cache    *cachedRate
}

// NewTnxInterestRateRepository reads the CBOE 10-year treasury yield index.
// ^TNX quotes the yield in percent.
func NewTnxInterestRateRepository() InterestRateRepository {
	return newTnxInterestRateRepository(quote.Get)
}

func newTnxInterestRateRepository(getQuote func(symbol string) (*finance.Quote, error)) *tnxInterestRateRepository {
	h := &tnxInterestRateRepository{
		GetQuote: getQuote,
	}
	h.cache = &cachedRate{fetch: h.fetch}
	return h
}

func (h *tnxInterestRateRepository) GetRiskFreeRate(ctx context.Context) (float64, error) {
	return h.cache.get(ctx)
}

func (h *tnxInterestRateRepository) fetch(ctx context.Context) (float64, error) {
	q, err := h.GetQuote(TenYearTreasurySymbol)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s quote: %w", TenYearTreasurySymbol, err)
	}
	if q == nil || q.RegularMarketPreviousClose == 0 {
		return 0, fmt.Errorf("no previous close for %s", TenYearTreasurySymbol)
	}

	rate := decimal.NewFromFloat(q.RegularMarketPreviousClose).
		Div(decimal.NewFromInt(100)).
		Round(2)

	return rate.InexactFloat64(), nil
}

type treasuryInterestRateRepository struct {
	Client interestrate.Client
	Now    func() time.Time
	cache  *cachedRate
}

// NewTreasuryInterestRateRepository reads the 10 year point of the most
// recent published treasury yield curve.
func NewTreasuryInterestRateRepository(client interestrate.Client) InterestRateRepository {
	h := &treasuryInterestRateRepository{
		Client: client,
		Now:    time.Now,
	}
	h.cache = &cachedRate{fetch: h.fetch}
	return h
}

func (h *treasuryInterestRateRepository) GetRiskFreeRate(ctx context.Context) (float64, error) {
	return h.cache.get(ctx)
}

// no curve is published on weekends or holidays, so walk back a few days
const maxYieldCurveLookbackDays = 7

func (h *treasuryInterestRateRepository) fetch(ctx context.Context) (float64, error) {
	date := h.Now().UTC()
	var lastErr error
	for i := 0; i < maxYieldCurveLookbackDays; i++ {
		curve, err := h.Client.GetYieldCurve(ctx, date.AddDate(0, 0, -i))
		if err != nil {
			lastErr = err
			continue
		}
		return curve.GetRate(interestrate.TenYearMonths)
	}
	return 0, fmt.Errorf("failed to get yield curve in the last %d days: %w", maxYieldCurveLookbackDays, lastErr)
}
