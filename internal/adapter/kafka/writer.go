package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/stripchart-etl/internal/config"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces samples and threshold sets to their Kafka topics.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer          *kafkago.Writer
	sampleTopic     string
	thresholdsTopic string
	logger          *slog.Logger
}

// NewWriter creates a Kafka producer. The topic is set per message, so one
// writer serves both the sample and the threshold topics.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:          w,
		sampleTopic:     cfg.KafkaSinkTopic,
		thresholdsTopic: cfg.KafkaThresholdTopic,
		logger:          logger,
	}
}

// LoadBatch publishes every sample of every reading, followed by the
// reading's threshold set, in a single WriteMessages call. Samples share the
// chart id as key, so per-chart ordering is kept within a partition.
func (w *Writer) LoadBatch(ctx context.Context, readings []domain.ChartReading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs, err := w.messages(readings)
	if err != nil {
		return err
	}
	w.logger.Debug("publishing readings", "readings", len(readings), "messages", len(msgs))
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) messages(readings []domain.ChartReading) ([]kafkago.Message, error) {
	var msgs []kafkago.Message
	for _, r := range readings {
		samples, err := domain.SerializeSamples(r, w.sampleTopic)
		if err != nil {
			return nil, err
		}
		for _, ev := range samples {
			msgs = append(msgs, toMessage(ev))
		}

		thresholds, err := domain.SerializeThresholds(r, w.thresholdsTopic)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, toMessage(thresholds))
	}
	return msgs, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage converts an OutputEvent into a Kafka message with headers in
// key order.
func toMessage(ev domain.OutputEvent) kafkago.Message {
	keys := make([]string, 0, len(ev.Headers))
	for k := range ev.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(ev.Headers[k])})
	}
	return kafkago.Message{
		Topic:   ev.Topic,
		Key:     ev.Key,
		Value:   ev.Value,
		Headers: headers,
	}
}
