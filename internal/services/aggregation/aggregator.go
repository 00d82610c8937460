package aggregation

import (
	"fmt"
	"time"

	"TradeSuite/internal/domain/models"
)

// Config holds the voting thresholds.
type Config struct {
	MinConfidence  float64
	QuorumFraction float64
}

// Aggregator turns per-source reports into one gated decision. It is pure: the same
// reports always produce the same decision regardless of their order.
type Aggregator struct {
	cfg Config
}

func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate combines reports from configured sources. minConf overrides the configured
// threshold when positive. A decision that fails quorum or the confidence gate is FLAT,
// but still carries every component. Confidence is supporting/ok_count and agreement is
// supporting/total_weight, where supporting sums the confidence of majority votes.
func (a *Aggregator) Aggregate(symbol string, configured int, reports []models.SignalReport, minConf float64, at time.Time) (*models.Decision, error) {
	if configured <= 0 {
		return nil, fmt.Errorf("%w: no signal sources configured", models.ErrConfiguration)
	}
	threshold := a.cfg.MinConfidence
	if minConf > 0 {
		threshold = minConf
	}

	var (
		okCount     int
		weightedSum float64
		totalWeight float64
	)
	for _, r := range reports {
		if !r.OK() {
			continue
		}
		okCount++
		weightedSum += r.Confidence * r.Signal.Sign()
		totalWeight += r.Confidence
	}

	majority := models.DirectionFromSign(weightedSum)
	var supporting float64
	if majority != models.Flat {
		for _, r := range reports {
			if r.OK() && r.Signal == majority {
				supporting += r.Confidence
			}
		}
	}

	var agreement, confidence float64
	if totalWeight > 0 {
		agreement = supporting / totalWeight
	}
	if okCount > 0 {
		confidence = supporting / float64(okCount)
	}

	quorum := float64(okCount)/float64(configured) > a.cfg.QuorumFraction

	direction := majority
	if !quorum || confidence < threshold {
		direction = models.Flat
	}

	components := make([]models.SignalReport, len(reports))
	copy(components, reports)

	return &models.Decision{
		Symbol:      symbol,
		Direction:   direction,
		Confidence:  confidence,
		Agreement:   agreement,
		WeightedSum: weightedSum,
		QuorumMet:   quorum,
		OKCount:     okCount,
		SourceCount: configured,
		Components:  components,
		Timestamp:   at,
	}, nil
}
