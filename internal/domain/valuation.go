package domain

import (
	"github.com/google/uuid"
)

type YearCashFlow struct {
	Year               int     `json:"year"`
	CashFlow           float64 `json:"cashFlow"`
	DiscountedCashFlow float64 `json:"discountedCashFlow"`
}

// TickerValuation is the outcome of valuing one ticker. IntrinsicValue and
// Margin are rounded to two decimals; the rest are raw.
type TickerValuation struct {
	Ticker         string  `json:"ticker"`
	CurrentValue   float64 `json:"currentValue"`
	IntrinsicValue float64 `json:"intrinsicValue"`
	Margin         float64 `json:"margin"`

	DiscountRate       float64        `json:"discountRate"`
	GrowthRate         float64        `json:"growthRate"`
	TerminalGrowthRate float64        `json:"terminalGrowthRate"`
	FreeCashFlow       float64        `json:"freeCashFlow"`
	CashFlows          []YearCashFlow `json:"cashFlows"`
	TerminalValue      float64        `json:"terminalValue"`
	Cash               float64        `json:"cash"`
	Debt               float64        `json:"debt"`
	EquityValue        float64        `json:"equityValue"`
	SharesOutstanding  int64          `json:"sharesOutstanding"`

	Warnings []string `json:"warnings,omitempty"`
}

type TickerFailure struct {
	Ticker  string    `json:"ticker"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type RankingSummary struct {
	Count        int     `json:"count"`
	MeanMargin   float64 `json:"meanMargin"`
	MedianMargin float64 `json:"medianMargin"`
	StdevMargin  float64 `json:"stdevMargin"`
	Undervalued  int     `json:"undervalued"`
}

// BatchReport is the whole-batch result: successful valuations ranked by
// margin, plus every ticker that failed and why.
type BatchReport struct {
	RunID    uuid.UUID         `json:"runID"`
	Years    int               `json:"years"`
	Ranked   []TickerValuation `json:"ranked"`
	Failures []TickerFailure   `json:"failures"`
	Summary  RankingSummary    `json:"summary"`
}
