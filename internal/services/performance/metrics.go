package performance

import (
	"math"

	"TradeSuite/internal/domain/models"
)

// Compute derives run metrics from the realized equity curve and trade ledger.
func Compute(initial float64, equity []models.EquityPoint, trades []models.Trade, periodsPerYear float64) models.PerformanceMetrics {
	curve := make([]float64, 0, len(equity)+1)
	curve = append(curve, initial)
	for _, p := range equity {
		curve = append(curve, p.Equity)
	}
	final := curve[len(curve)-1]

	m := models.PerformanceMetrics{
		InitialEquity: initial,
		FinalEquity:   final,
		Sharpe:        Sharpe(Returns(curve), periodsPerYear),
		MaxDrawdown:   MaxDrawdown(curve),
		TradeCount:    len(trades),
	}
	if initial > 0 {
		m.TotalReturn = final/initial - 1
	}

	for _, t := range trades {
		switch {
		case t.PnL > 0:
			m.Wins++
			m.GrossProfit += t.PnL
		case t.PnL < 0:
			m.Losses++
			m.GrossLoss += -t.PnL
		}
	}
	if len(trades) > 0 {
		m.WinRate = float64(m.Wins) / float64(len(trades))
	}
	m.ProfitFactor = ProfitFactor(m.GrossProfit, m.GrossLoss)

	return m
}

// Returns are simple period-over-period returns. Non-positive references are skipped.
func Returns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] <= 0 {
			continue
		}
		out = append(out, curve[i]/curve[i-1]-1)
	}
	return out
}

// Sharpe annualises mean over sample standard deviation. Zero when undefined.
func Sharpe(returns []float64, periodsPerYear float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / float64(n-1))
	if std < 1e-12 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

// MaxDrawdown is the largest peak-to-trough fall as a fraction of the peak.
func MaxDrawdown(curve []float64) float64 {
	var peak, mdd float64
	for i, v := range curve {
		if i == 0 || v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > mdd {
				mdd = dd
			}
		}
	}
	return mdd
}

// ProfitFactor is gross profit over gross loss. It is nil when there are winners but
// no losers, and 0 when there is nothing to compare.
func ProfitFactor(grossProfit, grossLoss float64) *float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return nil
		}
		zero := 0.0
		return &zero
	}
	pf := grossProfit / grossLoss
	return &pf
}
