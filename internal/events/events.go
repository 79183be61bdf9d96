package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"taskstore/internal/config"
	"taskstore/internal/models"
	"taskstore/pkg/logger"
)

// Publisher emits a TaskEvent after each successful mutation so external
// consumers (sync, audit) can follow the collection. It is optional: with no
// brokers configured New returns nil, and all methods are nil-safe no-ops.
type Publisher struct {
	writer *kafka.Writer
}

// New builds the async producer, or nil when KAFKA_BROKERS is unset.
func New(ctx context.Context) *Publisher {
	cfg := config.Get()
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: time.Second,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info(ctx, "Event producer initialized", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	return &Publisher{writer: w}
}

// EnsureTopic creates the event topic if missing (idempotent). Failure is
// logged and ignored; the service runs without the stream.
func (p *Publisher) EnsureTopic(ctx context.Context) {
	if p == nil {
		return
	}
	cfg := config.Get()
	conn, err := kafka.Dial("tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.KafkaTopic,
		NumPartitions:     cfg.KafkaPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", cfg.KafkaTopic, "partitions", cfg.KafkaPartitions)
}

// Publish emits one event. Never fails the caller: publish errors are logged.
func (p *Publisher) Publish(ctx context.Context, action, id string) {
	if p == nil {
		return
	}
	evt := models.TaskEvent{Action: action, ID: id, RequestedAt: time.Now()}
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Error(ctx, "Marshal task event failed", "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(action), Value: payload}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Publish task event failed", "error", err, "action", action)
	}
}

// Close flushes and shuts down the producer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
