package models

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Position is the single open trade a simulator may hold for its symbol.
type Position struct {
	Symbol     string         `json:"symbol"`
	Direction  Direction      `json:"direction"`
	EntryPrice float64        `json:"entry_price"`
	EntryTime  time.Time      `json:"entry_time"`
	Size       float64        `json:"size"`
	StopPrice  float64        `json:"stop_price"`
	TakePrice  float64        `json:"take_price"`
	Status     PositionStatus `json:"status"`
	Confidence float64        `json:"confidence"`
}

type ExitReason string

const (
	ExitStop      ExitReason = "stop"
	ExitTake      ExitReason = "take"
	ExitReversal  ExitReason = "signal_reversal"
	ExitWindowEnd ExitReason = "window_end"
)

// Trade is a closed position. Ledger entries are never modified after creation.
type Trade struct {
	Position    Position   `json:"position"`
	ExitPrice   float64    `json:"exit_price"`
	ExitTime    time.Time  `json:"exit_time"`
	ExitReason  ExitReason `json:"exit_reason"`
	Commission  float64    `json:"commission"`
	PnL         float64    `json:"pnl"`
	ReturnPct   float64    `json:"return_pct"`
	HoldingDays int        `json:"holding_days"`
	Window      int        `json:"window"`
}

type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Window holds half-open bar index ranges [start, end).
type Window struct {
	Index      int `json:"index"`
	TrainStart int `json:"train_start"`
	TrainEnd   int `json:"train_end"`
	TestStart  int `json:"test_start"`
	TestEnd    int `json:"test_end"`
}

// PerformanceMetrics summarises one symbol run. ProfitFactor is nil when it is undefined
// (winners but no losers).
type PerformanceMetrics struct {
	InitialEquity float64  `json:"initial_equity"`
	FinalEquity   float64  `json:"final_equity"`
	TotalReturn   float64  `json:"total_return"`
	Sharpe        float64  `json:"sharpe"`
	MaxDrawdown   float64  `json:"max_drawdown"`
	WinRate       float64  `json:"win_rate"`
	ProfitFactor  *float64 `json:"profit_factor"`
	TradeCount    int      `json:"trade_count"`
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	GrossProfit   float64  `json:"gross_profit"`
	GrossLoss     float64  `json:"gross_loss"`
}

// SymbolResult is everything one walk-forward run produced.
type SymbolResult struct {
	Symbol      string             `json:"symbol"`
	Bars        int                `json:"bars"`
	Windows     []Window           `json:"windows"`
	Trades      []Trade            `json:"trades"`
	Equity      []EquityPoint      `json:"equity"`
	Metrics     PerformanceMetrics `json:"metrics"`
	SkippedBars int                `json:"skipped_bars"`
}

type LeaderboardEntry struct {
	Symbol       string   `json:"symbol"`
	TotalReturn  float64  `json:"total_return"`
	Sharpe       float64  `json:"sharpe"`
	MaxDrawdown  float64  `json:"max_drawdown"`
	WinRate      float64  `json:"win_rate"`
	ProfitFactor *float64 `json:"profit_factor"`
	TradeCount   int      `json:"trade_count"`
}

// NewLeaderboardEntry projects a symbol result onto its leaderboard row.
func NewLeaderboardEntry(r *SymbolResult) LeaderboardEntry {
	return LeaderboardEntry{
		Symbol:       r.Symbol,
		TotalReturn:  r.Metrics.TotalReturn,
		Sharpe:       r.Metrics.Sharpe,
		MaxDrawdown:  r.Metrics.MaxDrawdown,
		WinRate:      r.Metrics.WinRate,
		ProfitFactor: r.Metrics.ProfitFactor,
		TradeCount:   r.Metrics.TradeCount,
	}
}

type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

type RunSummary struct {
	RunID            string          `json:"run_id"`
	RunTimestamp     time.Time       `json:"run_timestamp"`
	SymbolsTested    int             `json:"symbols_tested"`
	SymbolsSucceeded int             `json:"symbols_succeeded"`
	Symbols          []string        `json:"symbols"`
	Failures         []SymbolFailure `json:"failures,omitempty"`
	WindowSize       int             `json:"window_size"`
	StepSize         int             `json:"step_size"`
	InitialCapital   float64         `json:"initial_capital"`
	CommissionRate   float64         `json:"commission_rate"`
	RiskFraction     float64         `json:"risk_fraction"`
	MinConfidence    float64         `json:"min_confidence"`
	MinHoldingDays   int             `json:"min_holding_days"`
	AverageReturn    float64         `json:"average_return"`
	AverageSharpe    float64         `json:"average_sharpe"`
	Duration         string          `json:"duration"`
}

// BacktestReport is the full output of a batch run, handed to result sinks.
type BacktestReport struct {
	Summary     RunSummary         `json:"summary"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Results     []*SymbolResult    `json:"-"`
}
