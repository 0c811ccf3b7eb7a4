package repository

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/plrectco/dcf/internal/domain"
)

// csvFloat is a nullable cell. Empty cells, "NaN" and columns absent from
// the header all decode to an unset value.
type csvFloat struct {
	value float64
	set   bool
}

func (f *csvFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		*f = csvFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	if math.IsNaN(v) {
		*f = csvFloat{}
		return nil
	}
	*f = csvFloat{value: v, set: true}
	return nil
}

func (f csvFloat) MarshalCSV() (string, error) {
	if !f.set {
		return "", nil
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64), nil
}

func (f csvFloat) orNaN() float64 {
	if !f.set {
		return math.NaN()
	}
	return f.value
}

func (f csvFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	return domain.Float64Ptr(f.value)
}

type snapshotRow struct {
	Ticker             string   `csv:"ticker"`
	CurrentPrice       csvFloat `csv:"current_price"`
	MarketCap          csvFloat `csv:"market_cap"`
	Beta               csvFloat `csv:"beta"`
	SharesOutstanding  csvFloat `csv:"shares_outstanding"`
	RiskFreeRate       csvFloat `csv:"risk_free_rate"`
	TotalDebt          csvFloat `csv:"total_debt"`
	InterestExpense    csvFloat `csv:"interest_expense"`
	TaxProvision       csvFloat `csv:"tax_provision"`
	PretaxIncome       csvFloat `csv:"pretax_income"`
	FreeCashFlow       csvFloat `csv:"free_cash_flow"`
	CashAndEquivalents csvFloat `csv:"cash_and_equivalents"`
	GrowthEstimate     csvFloat `csv:"growth_estimate"`
}

func (r snapshotRow) toDomain() (*domain.FinancialSnapshot, error) {
	ticker := strings.ToUpper(strings.TrimSpace(r.Ticker))
	if !r.SharesOutstanding.set {
		return nil, &domain.MissingFieldError{Ticker: ticker, Field: "sharesOutstanding"}
	}
	if r.SharesOutstanding.value != math.Trunc(r.SharesOutstanding.value) {
		return nil, fmt.Errorf("%s: shares outstanding must be a whole number, got %f", ticker, r.SharesOutstanding.value)
	}

	snapshot := &domain.FinancialSnapshot{
		Ticker:                 ticker,
		CurrentPrice:           r.CurrentPrice.orNaN(),
		MarketCap:              r.MarketCap.orNaN(),
		Beta:                   r.Beta.orNaN(),
		SharesOutstanding:      int64(r.SharesOutstanding.value),
		RiskFreeRate:           r.RiskFreeRate.orNaN(),
		TotalDebt:              r.TotalDebt.orNaN(),
		TaxProvision:           r.TaxProvision.orNaN(),
		PretaxIncome:           r.PretaxIncome.orNaN(),
		FreeCashFlow:           r.FreeCashFlow.orNaN(),
		CashAndEquivalents:     r.CashAndEquivalents.orNaN(),
		NearTermGrowthEstimate: r.GrowthEstimate.orNaN(),
		InterestExpense:        r.InterestExpense.ptr(),
	}
	return snapshot, nil
}

type csvSnapshotRepositoryHandler struct {
	rows map[string]snapshotRow
}

// NewCsvSnapshotRepository reads offline snapshots, one row per ticker.
func NewCsvSnapshotRepository(r io.Reader) (SnapshotRepository, error) {
	rows := []snapshotRow{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot csv: %w", err)
	}

	byTicker := map[string]snapshotRow{}
	for i, row := range rows {
		ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))
		if ticker == "" {
			return nil, fmt.Errorf("snapshot csv row %d has no ticker", i+1)
		}
		if _, ok := byTicker[ticker]; ok {
			return nil, fmt.Errorf("snapshot csv has duplicate ticker %s", ticker)
		}
		byTicker[ticker] = row
	}

	return csvSnapshotRepositoryHandler{
		rows: byTicker,
	}, nil
}

func NewCsvSnapshotRepositoryFromFile(path string) (SnapshotRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	return NewCsvSnapshotRepository(f)
}

func (h csvSnapshotRepositoryHandler) Get(ctx context.Context, ticker string) (*domain.FinancialSnapshot, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	row, ok := h.rows[symbol]
	if !ok {
		return nil, &domain.NotFoundError{Ticker: symbol}
	}

	snapshot, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}
