package calculator

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/plrectco/dcf/internal/domain"
)

// RankValuations returns a copy of the valuations sorted by margin, highest
// first. Equal margins keep their input order.
func RankValuations(valuations []domain.TickerValuation) []domain.TickerValuation {
	out := make([]domain.TickerValuation, len(valuations))
	copy(out, valuations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Margin > out[j].Margin
	})
	return out
}

func SummarizeRanking(valuations []domain.TickerValuation) (*domain.RankingSummary, error) {
	summary := &domain.RankingSummary{
		Count: len(valuations),
	}
	if len(valuations) == 0 {
		return summary, nil
	}

	margins := make([]float64, 0, len(valuations))
	for _, v := range valuations {
		margins = append(margins, v.Margin)
		if v.Margin > 0 {
			summary.Undervalued++
		}
	}

	mean, err := stats.Mean(margins)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate mean margin: %w", err)
	}
	median, err := stats.Median(margins)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate median margin: %w", err)
	}
	summary.MeanMargin = Round2(mean)
	summary.MedianMargin = Round2(median)

	// sample stdev is undefined for a single value
	if len(margins) > 1 {
		stdev, err := stats.StandardDeviationSample(margins)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate margin stdev: %w", err)
		}
		summary.StdevMargin = Round2(stdev)
	}

	return summary, nil
}
