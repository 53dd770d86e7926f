package strategies

import (
	"github.com/montanaflynn/stats"
)

// Performance summarizes a strategy's closed trades plus its open exposure.
type Performance struct {
	TotalTrades   int
	OpenPositions int
	Wins          int
	Losses        int
	WinRate       float64
	TotalPnL      float64
	AvgWin        float64
	AvgLoss       float64
}

func computePerformance(closedPnLs []float64, openPositions int) Performance {
	perf := Performance{
		TotalTrades:   len(closedPnLs),
		OpenPositions: openPositions,
	}

	var wins, losses []float64
	for _, pnl := range closedPnLs {
		perf.TotalPnL += pnl
		if pnl > 0 {
			wins = append(wins, pnl)
		} else {
			losses = append(losses, pnl)
		}
	}

	perf.Wins = len(wins)
	perf.Losses = len(losses)

	if perf.TotalTrades > 0 {
		perf.WinRate = float64(perf.Wins) / float64(perf.TotalTrades)
	}

	if avg, err := stats.Mean(wins); err == nil {
		perf.AvgWin = avg
	}

	if avg, err := stats.Mean(losses); err == nil {
		perf.AvgLoss = avg
	}

	return perf
}
