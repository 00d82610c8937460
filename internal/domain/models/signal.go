package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Direction is a directional vote or decision.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Flat  Direction = "FLAT"
)

// ParseDirection accepts LONG, SHORT or FLAT in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case Long, Short, Flat:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Sign maps LONG to +1, SHORT to -1 and everything else to 0.
func (d Direction) Sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	default:
		return 0
	}
}

// Opposite returns the reversed direction. FLAT stays FLAT.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return Flat
	}
}

// DirectionFromSign maps the sign of x back to a direction, zero being FLAT.
func DirectionFromSign(x float64) Direction {
	switch {
	case x > 0:
		return Long
	case x < 0:
		return Short
	default:
		return Flat
	}
}

// ReportStatus tells whether a source voted.
type ReportStatus string

const (
	StatusOK          ReportStatus = "ok"
	StatusUnavailable ReportStatus = "unavailable"
	StatusError       ReportStatus = "error"
)

// SignalRequest is what every source receives for one decision.
// Bars is the price history up to AsOf and is only read by in-process sources.
type SignalRequest struct {
	Symbol  string
	MinConf float64
	AsOf    time.Time
	Bars    []Bar
}

// SourceSignal is a successful vote.
type SourceSignal struct {
	Signal     Direction
	Confidence float64
	Rationale  string
}

// SignalReport is the outcome of asking one source. Signal and Confidence are meaningful only when Status is ok.
type SignalReport struct {
	SourceID   string
	Status     ReportStatus
	Signal     Direction
	Confidence float64
	Rationale  string
	Latency    time.Duration
}

// OK reports whether the source voted.
func (r SignalReport) OK() bool { return r.Status == StatusOK }

type signalReportJSON struct {
	SourceID   string       `json:"source_id"`
	Status     ReportStatus `json:"status"`
	Signal     *Direction   `json:"signal,omitempty"`
	Confidence *float64     `json:"confidence,omitempty"`
	Rationale  string       `json:"rationale"`
	LatencyMS  int64        `json:"latency_ms"`
}

// MarshalJSON omits signal and confidence for sources that did not vote,
// so "did not vote" never reads as a FLAT vote with zero confidence.
func (r SignalReport) MarshalJSON() ([]byte, error) {
	out := signalReportJSON{
		SourceID:  r.SourceID,
		Status:    r.Status,
		Rationale: r.Rationale,
		LatencyMS: r.Latency.Milliseconds(),
	}
	if r.OK() {
		sig, conf := r.Signal, r.Confidence
		out.Signal, out.Confidence = &sig, &conf
	}
	return json.Marshal(out)
}

func (r *SignalReport) UnmarshalJSON(b []byte) error {
	var in signalReportJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = SignalReport{
		SourceID:  in.SourceID,
		Status:    in.Status,
		Rationale: in.Rationale,
		Latency:   time.Duration(in.LatencyMS) * time.Millisecond,
	}
	if in.Signal != nil {
		r.Signal = *in.Signal
	}
	if in.Confidence != nil {
		r.Confidence = *in.Confidence
	}
	return nil
}

// Decision is the gated output of one aggregation. Components keep the configured source order.
type Decision struct {
	Symbol             string         `json:"symbol"`
	Direction          Direction      `json:"decision"`
	Confidence         float64        `json:"confidence"`
	Agreement          float64        `json:"agreement"`
	WeightedSum        float64        `json:"weighted_sum"`
	QuorumMet          bool           `json:"quorum_met"`
	OKCount            int            `json:"ok_count"`
	SourceCount        int            `json:"source_count"`
	Components         []SignalReport `json:"components"`
	StopLossPct        float64        `json:"sl_pct"`
	TakeProfitMultiple float64        `json:"tp_multiple"`
	VolatilitySource   string         `json:"volatility_source,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// SourceStatus is the health of one configured source.
type SourceStatus struct {
	SourceID  string `json:"source_id"`
	Type      string `json:"type"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}
