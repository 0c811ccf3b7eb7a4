package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/plrectco/dcf/internal/domain"
)

const millions = 1_000_000

// WriteValuation prints the projection behind one ticker's value: the
// per-year cash flows followed by the inputs and results of the model.
func WriteValuation(w io.Writer, v domain.TickerValuation) error {
	p := &printer{w: w}

	p.printf("%s\n", v.Ticker)
	p.printf("%s\n", strings.Repeat("-", 32))
	p.printf("%-6s %18s %18s\n", "Year", "FCF ($M)", "Discounted ($M)")
	for _, cf := range v.CashFlows {
		p.printf("%-6d %18.2f %18.2f\n", cf.Year, cf.CashFlow/millions, cf.DiscountedCashFlow/millions)
	}
	p.printf("\n")
	p.printf("%-24s %18.2f\n", "Free cash flow ($M)", v.FreeCashFlow/millions)
	p.printf("%-24s %17.2f%%\n", "Discount rate", v.DiscountRate*100)
	p.printf("%-24s %17.2f%%\n", "Growth rate", v.GrowthRate*100)
	p.printf("%-24s %17.2f%%\n", "Terminal growth rate", v.TerminalGrowthRate*100)
	p.printf("%-24s %18.2f\n", "Terminal value ($M)", v.TerminalValue/millions)
	p.printf("%-24s %18.2f\n", "Cash ($M)", v.Cash/millions)
	p.printf("%-24s %18.2f\n", "Debt ($M)", v.Debt/millions)
	p.printf("%-24s %18.2f\n", "DCF value ($M)", v.EquityValue/millions)
	p.printf("%-24s %18d\n", "Shares outstanding", v.SharesOutstanding)
	p.printf("%-24s %18.2f\n", "DCF value per share", v.IntrinsicValue)
	p.printf("%-24s %18.2f\n", "Current price", v.CurrentValue)
	for _, warning := range v.Warnings {
		p.printf("warning: %s\n", warning)
	}
	p.printf("\n")

	return p.err
}

func WriteFailures(w io.Writer, failures []domain.TickerFailure) error {
	if len(failures) == 0 {
		return nil
	}
	p := &printer{w: w}

	p.printf("Failed tickers (%d)\n", len(failures))
	p.printf("%-8s %-18s %s\n", "Ticker", "Reason", "Detail")
	for _, f := range failures {
		p.printf("%-8s %-18s %s\n", f.Ticker, f.Kind, f.Message)
	}
	p.printf("\n")

	return p.err
}

// WriteRanking prints the ranked table, highest margin first, and the
// summary statistics over all ranked tickers.
func WriteRanking(w io.Writer, ranked []domain.TickerValuation, summary domain.RankingSummary) error {
	p := &printer{w: w}

	separator := strings.Repeat("=", 50)
	p.printf("%s\n", separator)
	p.printf("%-8s %14s %14s %10s\n", "Ticker", "Current Value", "DCF Value", "Margin")
	p.printf("%s\n", separator)
	if len(ranked) == 0 {
		p.printf("no tickers could be valued\n")
	}
	for _, v := range ranked {
		p.printf("%-8s %14.2f %14.2f %10.2f\n", v.Ticker, v.CurrentValue, v.IntrinsicValue, v.Margin)
	}
	p.printf("%s\n", separator)

	p.printf("Valued: %d  Undervalued: %d\n", summary.Count, summary.Undervalued)
	if summary.Count > 0 {
		p.printf(
			"Margin mean: %.2f  median: %.2f  stdev: %.2f\n",
			summary.MeanMargin,
			summary.MedianMargin,
			summary.StdevMargin,
		)
	}

	return p.err
}

// printer keeps the first write error so callers check once
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
