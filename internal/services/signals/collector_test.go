package signals

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"TradeSuite/internal/domain/models"
	domsvc "TradeSuite/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	id       string
	sig      models.SourceSignal
	err      error
	delay    time.Duration
	lookback int
	timeout  time.Duration
	panicMsg string
	calls    atomic.Int32
}

func (s *stubSource) ID() string             { return s.id }
func (s *stubSource) Lookback() int          { return s.lookback }
func (s *stubSource) Timeout() time.Duration { return s.timeout }

func (s *stubSource) Signal(ctx context.Context, _ models.SignalRequest) (models.SourceSignal, error) {
	s.calls.Add(1)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.SourceSignal{}, ctx.Err()
		}
	}
	return s.sig, s.err
}

type recordingMetrics struct {
	calls atomic.Int32
}

func (m *recordingMetrics) RecordSourceCall(string, string, time.Duration) { m.calls.Add(1) }
func (m *recordingMetrics) RecordDecision(string, string)                  {}
func (m *recordingMetrics) RecordTrade(string)                             {}
func (m *recordingMetrics) RecordSymbolRun(string)                         {}
func (m *recordingMetrics) RecordError(string)                             {}
func (m *recordingMetrics) RecordLatency(string, time.Duration)            {}

func TestCollector_CollectKeepsOrderAndStatuses(t *testing.T) {
	sources := []domsvc.SignalSource{
		&stubSource{id: "a", sig: models.SourceSignal{Signal: models.Long, Confidence: 0.9, Rationale: "up"}, delay: 30 * time.Millisecond},
		&stubSource{id: "b", err: models.ErrSourceUnavailable},
		&stubSource{id: "c", err: errors.New("strategy crashed")},
		&stubSource{id: "d", sig: models.SourceSignal{Signal: models.Short, Confidence: 1.5}},
		&stubSource{id: "e", delay: time.Second, timeout: 20 * time.Millisecond},
		&stubSource{id: "f", panicMsg: "nil map"},
	}
	m := &recordingMetrics{}
	c := NewCollector(sources, time.Second, m, nil)

	reports := c.Collect(context.Background(), models.SignalRequest{Symbol: "AAPL"})

	require.Len(t, reports, len(sources))
	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.SourceID
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids)

	assert.Equal(t, models.StatusOK, reports[0].Status)
	assert.Equal(t, models.Long, reports[0].Signal)
	assert.Equal(t, "up", reports[0].Rationale)
	assert.GreaterOrEqual(t, reports[0].Latency, 30*time.Millisecond)

	assert.Equal(t, models.StatusUnavailable, reports[1].Status)
	assert.Equal(t, models.StatusError, reports[2].Status)
	assert.Equal(t, models.StatusError, reports[3].Status)
	assert.Equal(t, models.StatusUnavailable, reports[4].Status)
	assert.Equal(t, models.StatusError, reports[5].Status)
	assert.Contains(t, reports[5].Rationale, "nil map")

	assert.EqualValues(t, len(sources), m.calls.Load())
}

// sleepySource blocks for its whole nap without watching ctx.
type sleepySource struct {
	nap     time.Duration
	timeout time.Duration
}

func (s *sleepySource) ID() string             { return "sleepy" }
func (s *sleepySource) Timeout() time.Duration { return s.timeout }

func (s *sleepySource) Signal(context.Context, models.SignalRequest) (models.SourceSignal, error) {
	time.Sleep(s.nap)
	return models.SourceSignal{Signal: models.Long, Confidence: 0.9}, nil
}

func TestCollector_DeadlineIgnoredBySource(t *testing.T) {
	m := &recordingMetrics{}
	c := NewCollector([]domsvc.SignalSource{
		&sleepySource{nap: 2 * time.Second, timeout: 50 * time.Millisecond},
		&stubSource{id: "fast", sig: models.SourceSignal{Signal: models.Short, Confidence: 0.6}},
	}, time.Second, m, nil)

	start := time.Now()
	reports := c.Collect(context.Background(), models.SignalRequest{Symbol: "AAPL"})
	elapsed := time.Since(start)

	require.Len(t, reports, 2)
	assert.Equal(t, "sleepy", reports[0].SourceID)
	assert.Equal(t, models.StatusUnavailable, reports[0].Status)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Less(t, reports[0].Latency, 500*time.Millisecond)
	assert.Equal(t, models.StatusOK, reports[1].Status)
	assert.EqualValues(t, 2, m.calls.Load())
}

func TestCollector_ConcurrentFanOut(t *testing.T) {
	sources := make([]domsvc.SignalSource, 5)
	for i := range sources {
		sources[i] = &stubSource{
			id:    string(rune('a' + i)),
			sig:   models.SourceSignal{Signal: models.Long, Confidence: 0.8},
			delay: 100 * time.Millisecond,
		}
	}
	c := NewCollector(sources, time.Second, nil, nil)

	start := time.Now()
	reports := c.Collect(context.Background(), models.SignalRequest{Symbol: "MSFT"})

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	for _, r := range reports {
		assert.True(t, r.OK())
	}
}

func TestCollector_Lookback(t *testing.T) {
	c := NewCollector([]domsvc.SignalSource{
		&stubSource{id: "a", lookback: 20},
		&stubSource{id: "b", lookback: 55},
		NewHTTPSource("remote", "http://localhost:1", time.Second),
	}, 0, nil, nil)

	assert.Equal(t, 55, c.Lookback())
	assert.Equal(t, 3, c.Size())
}

func TestCollector_Health(t *testing.T) {
	c := NewCollector([]domsvc.SignalSource{
		&stubSource{id: "local"},
		NewHTTPSource("remote", "http://127.0.0.1:1", time.Second),
	}, 0, nil, nil)

	statuses := c.Health(context.Background(), 200*time.Millisecond)

	require.Len(t, statuses, 2)
	assert.Equal(t, "local", statuses[0].SourceID)
	assert.True(t, statuses[0].Healthy)
	assert.Equal(t, "remote", statuses[1].SourceID)
	assert.Equal(t, "http", statuses[1].Type)
	assert.False(t, statuses[1].Healthy)
	assert.NotEmpty(t, statuses[1].Error)
}
