package aggregation

import (
	"testing"
	"time"

	"TradeSuite/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(id string, d models.Direction, conf float64) models.SignalReport {
	return models.SignalReport{SourceID: id, Status: models.StatusOK, Signal: d, Confidence: conf}
}

func down(id string) models.SignalReport {
	return models.SignalReport{SourceID: id, Status: models.StatusUnavailable, Rationale: "timeout"}
}

var at = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newAggregator() *Aggregator {
	return New(Config{MinConfidence: 0.7, QuorumFraction: 0.5})
}

func TestAggregate_Unanimous(t *testing.T) {
	reports := []models.SignalReport{
		ok("a", models.Long, 0.8), ok("b", models.Long, 0.8),
		ok("c", models.Long, 0.8), ok("d", models.Long, 0.8),
	}

	d, err := newAggregator().Aggregate("AAPL", 4, reports, 0, at)

	require.NoError(t, err)
	assert.Equal(t, models.Long, d.Direction)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
	assert.InDelta(t, 1.0, d.Agreement, 1e-9)
	assert.InDelta(t, 3.2, d.WeightedSum, 1e-9)
	assert.True(t, d.QuorumMet)
	assert.Equal(t, 4, d.OKCount)
	assert.Equal(t, at, d.Timestamp)
}

func TestAggregate_SplitVoteIsFlat(t *testing.T) {
	reports := []models.SignalReport{
		ok("a", models.Long, 0.8), ok("b", models.Long, 0.8),
		ok("c", models.Short, 0.8), ok("d", models.Short, 0.8),
	}

	d, err := newAggregator().Aggregate("AAPL", 4, reports, 0, at)

	require.NoError(t, err)
	assert.Equal(t, models.Flat, d.Direction)
	assert.Zero(t, d.WeightedSum)
	assert.Zero(t, d.Confidence)
	assert.Len(t, d.Components, 4)
}

func TestAggregate_QuorumNotMet(t *testing.T) {
	reports := []models.SignalReport{
		ok("a", models.Long, 0.95), ok("b", models.Long, 0.95),
		down("c"), down("d"),
	}

	d, err := newAggregator().Aggregate("AAPL", 4, reports, 0, at)

	require.NoError(t, err)
	assert.False(t, d.QuorumMet)
	assert.Equal(t, models.Flat, d.Direction)
	require.Len(t, d.Components, 4)
	assert.Equal(t, models.StatusUnavailable, d.Components[2].Status)
}

func TestAggregate_ConfidenceGate(t *testing.T) {
	reports := []models.SignalReport{
		ok("a", models.Long, 0.9), ok("b", models.Long, 0.9), ok("c", models.Short, 0.9),
	}

	d, err := newAggregator().Aggregate("AAPL", 3, reports, 0, at)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, d.Confidence, 1e-9)
	assert.Equal(t, models.Flat, d.Direction)

	d, err = newAggregator().Aggregate("AAPL", 3, reports, 0.5, at)
	require.NoError(t, err)
	assert.Equal(t, models.Long, d.Direction)
}

func TestAggregate_ConfidenceAveragesOverOKSources(t *testing.T) {
	reports := []models.SignalReport{
		ok("a", models.Long, 0.9), ok("b", models.Long, 0.9), ok("c", models.Short, 0.2), down("d"),
	}

	d, err := newAggregator().Aggregate("AAPL", 4, reports, 0, at)

	require.NoError(t, err)
	assert.InDelta(t, 1.8/3, d.Confidence, 1e-9, "majority weight over ok sources")
	assert.InDelta(t, 1.8/2.0, d.Agreement, 1e-9, "majority weight over total weight")
	assert.Equal(t, models.Flat, d.Direction)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	reports := []models.SignalReport{
		ok("a", models.Long, 0.9), ok("b", models.Short, 0.4),
		ok("c", models.Long, 0.75), ok("d", models.Flat, 0.6), down("e"),
	}
	reversed := make([]models.SignalReport, len(reports))
	for i, r := range reports {
		reversed[len(reports)-1-i] = r
	}

	d1, err := newAggregator().Aggregate("X", 5, reports, 0, at)
	require.NoError(t, err)
	d2, err := newAggregator().Aggregate("X", 5, reversed, 0, at)
	require.NoError(t, err)

	assert.Equal(t, d1.Direction, d2.Direction)
	assert.InDelta(t, d1.Confidence, d2.Confidence, 1e-12)
	assert.InDelta(t, d1.Agreement, d2.Agreement, 1e-12)
	assert.InDelta(t, d1.WeightedSum, d2.WeightedSum, 1e-12)
}

func TestAggregate_ConfidenceBounds(t *testing.T) {
	cases := [][]models.SignalReport{
		{ok("a", models.Long, 1), ok("b", models.Long, 1)},
		{ok("a", models.Long, 0), ok("b", models.Short, 0)},
		{ok("a", models.Flat, 1), ok("b", models.Short, 0.1)},
		{down("a"), down("b")},
	}
	for _, reports := range cases {
		d, err := newAggregator().Aggregate("X", 2, reports, 0, at)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d.Confidence, 0.0)
		assert.LessOrEqual(t, d.Confidence, 1.0)
		assert.GreaterOrEqual(t, d.Agreement, 0.0)
		assert.LessOrEqual(t, d.Agreement, 1.0)
	}
}

func TestAggregate_NoSourcesConfigured(t *testing.T) {
	_, err := newAggregator().Aggregate("X", 0, nil, 0, at)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
