package repository

import (
	"context"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	pkgkafka "TradeSuite/pkg/kafka"
)

// EventPublisher is the part of the Kafka producer the publishers use.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaPublisher emits live decisions keyed by symbol.
type KafkaPublisher struct {
	producer EventPublisher
	topic    string
}

func NewKafkaPublisher(producer EventPublisher, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishDecision(ctx context.Context, d *models.Decision) error {
	return p.producer.Publish(ctx, p.topic, d.Symbol, d)
}

// RunEvent is the envelope of backtest events.
type RunEvent struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

const (
	EventRunSummary  = "run_summary"
	EventLeaderboard = "leaderboard"
)

// KafkaSink announces finished backtest runs. Events are keyed by run id.
type KafkaSink struct {
	producer EventPublisher
	topic    string
}

func NewKafkaSink(producer EventPublisher, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) WriteReport(ctx context.Context, report *models.BacktestReport) error {
	id := report.Summary.RunID
	now := time.Now().UTC()
	return s.producer.PublishBatch(ctx, s.topic, []pkgkafka.Message{
		{Key: id, Value: RunEvent{Type: EventRunSummary, RunID: id, Timestamp: now, Payload: report.Summary}},
		{Key: id, Value: RunEvent{Type: EventLeaderboard, RunID: id, Timestamp: now, Payload: report.Leaderboard}},
	})
}

var (
	_ domrepo.DecisionPublisher = (*KafkaPublisher)(nil)
	_ domrepo.ResultSink        = (*KafkaSink)(nil)
	_ EventPublisher            = (*pkgkafka.Producer)(nil)
)
