package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/config"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// maxImageBytes bounds a single fetched chart image.
const maxImageBytes = 16 << 20

// Reader consumes chart images from a Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly through RawChart.Commit.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaSourceTopic,
		MinBytes:    1,
		MaxBytes:    maxImageBytes,
		StartOffset: kafkago.FirstOffset,
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch blocks for the first message, then collects up to batchSize
// messages or until the flush interval elapses, whichever comes first.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawChart, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []domain.RawChart{r.toRawChart(msg)}

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			r.logger.Warn("fetch failed mid-batch, returning partial batch", "error", err, "batch_size", len(batch))
			break
		}
		batch = append(batch, r.toRawChart(msg))
	}
	return batch, nil
}

func (r *Reader) toRawChart(msg kafkago.Message) domain.RawChart {
	raw := mapMessageToRawChart(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawChart copies a Kafka message into a RawChart. The chart id
// comes from the chart_id header, falling back to the message key.
func mapMessageToRawChart(msg kafkago.Message) domain.RawChart {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	chartID := headers["chart_id"]
	if chartID == "" {
		chartID = string(msg.Key)
	}
	return domain.RawChart{
		ChartID:   chartID,
		Image:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
