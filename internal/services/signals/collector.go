package signals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	domsvc "TradeSuite/internal/domain/service"
	applogger "TradeSuite/pkg/logger"
)

// DefaultTimeout bounds a source that does not declare its own.
const DefaultTimeout = 180 * time.Second

// Collector fans a request out to every configured source and gathers one report per source.
type Collector struct {
	sources        []domsvc.SignalSource
	defaultTimeout time.Duration
	metrics        domrepo.Metrics
	logger         *applogger.Logger
}

func NewCollector(sources []domsvc.SignalSource, defaultTimeout time.Duration, metrics domrepo.Metrics, l *applogger.Logger) *Collector {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Collector{sources: sources, defaultTimeout: defaultTimeout, metrics: metrics, logger: l}
}

// Size is the number of configured sources, the quorum denominator.
func (c *Collector) Size() int { return len(c.sources) }

// Sources returns the configured sources in order.
func (c *Collector) Sources() []domsvc.SignalSource { return c.sources }

// Lookback is the longest history any source needs, 0 when none declares one.
func (c *Collector) Lookback() int {
	n := 0
	for _, s := range c.sources {
		if la, ok := s.(domsvc.LookbackAware); ok && la.Lookback() > n {
			n = la.Lookback()
		}
	}
	return n
}

// Collect queries all sources concurrently. Each call gets its own deadline and writes only
// its own slot, so the result keeps configuration order. It never fails: a source that
// errors or times out is reported as such.
func (c *Collector) Collect(ctx context.Context, req models.SignalRequest) []models.SignalReport {
	reports := make([]models.SignalReport, len(c.sources))

	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src domsvc.SignalSource) {
			defer wg.Done()
			reports[i] = c.query(ctx, src, req)
		}(i, src)
	}
	wg.Wait()

	return reports
}

func (c *Collector) query(ctx context.Context, src domsvc.SignalSource, req models.SignalRequest) models.SignalReport {
	timeout := c.defaultTimeout
	if ta, ok := src.(domsvc.TimeoutAware); ok && ta.Timeout() > 0 {
		timeout = ta.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	// Buffered so a source that outlives its deadline can still send and exit.
	done := make(chan models.SignalReport, 1)
	go func() {
		done <- call(ctx, src, req)
	}()

	var report models.SignalReport
	select {
	case report = <-done:
	case <-ctx.Done():
		report = failedReport(src.ID(), ctx.Err())
	}

	report.Latency = time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordSourceCall(report.SourceID, string(report.Status), report.Latency)
	}
	if !report.OK() {
		c.logger.Warn("signal source failed",
			applogger.String("source", report.SourceID),
			applogger.String("symbol", req.Symbol),
			applogger.String("status", string(report.Status)),
			applogger.String("reason", report.Rationale),
		)
	}
	return report
}

// call runs one source and turns its answer, error or panic into a report.
func call(ctx context.Context, src domsvc.SignalSource, req models.SignalRequest) (report models.SignalReport) {
	defer func() {
		if r := recover(); r != nil {
			report = failedReport(src.ID(), fmt.Errorf("%w: source panicked: %v", models.ErrInvalidResponse, r))
		}
	}()

	sig, err := src.Signal(ctx, req)
	if err == nil {
		err = validateSignal(sig)
	}
	if err != nil {
		return failedReport(src.ID(), err)
	}
	return models.SignalReport{
		SourceID:   src.ID(),
		Status:     models.StatusOK,
		Signal:     sig.Signal,
		Confidence: sig.Confidence,
		Rationale:  sig.Rationale,
	}
}

func validateSignal(sig models.SourceSignal) error {
	if _, err := models.ParseDirection(string(sig.Signal)); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}
	if math.IsNaN(sig.Confidence) || sig.Confidence < 0 || sig.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", models.ErrInvalidResponse, sig.Confidence)
	}
	return nil
}

func failedReport(id string, err error) models.SignalReport {
	status := models.StatusError
	switch {
	case errors.Is(err, models.ErrInvalidResponse):
		status = models.StatusError
	case errors.Is(err, models.ErrSourceUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		status = models.StatusUnavailable
	}
	return models.SignalReport{SourceID: id, Status: status, Rationale: err.Error()}
}

// Health probes every source that supports it. In-process sources are always healthy.
func (c *Collector) Health(ctx context.Context, timeout time.Duration) []models.SourceStatus {
	out := make([]models.SourceStatus, len(c.sources))

	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src domsvc.SignalSource) {
			defer wg.Done()
			st := models.SourceStatus{SourceID: src.ID(), Type: "local", Healthy: true}
			hc, ok := src.(domsvc.HealthChecker)
			if !ok {
				out[i] = st
				return
			}
			st.Type = "http"
			hctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			start := time.Now()
			if err := hc.Health(hctx); err != nil {
				st.Healthy = false
				st.Error = err.Error()
			}
			st.LatencyMS = time.Since(start).Milliseconds()
			out[i] = st
		}(i, src)
	}
	wg.Wait()

	return out
}
