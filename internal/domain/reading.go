package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HeaderCapturedAt carries the RFC3339 capture instant of a chart image.
const HeaderCapturedAt = "captured_at"

// ResolveCapturedAt picks the capture instant for a raw chart: an explicit
// CapturedAt, then the captured_at header, then the message timestamp, then
// the current time. The result is always UTC.
func ResolveCapturedAt(raw RawChart) time.Time {
	if !raw.CapturedAt.IsZero() {
		return raw.CapturedAt.UTC()
	}
	if v := strings.TrimSpace(raw.Headers[HeaderCapturedAt]); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	if !raw.Timestamp.IsZero() {
		return raw.Timestamp.UTC()
	}
	return clock.Now().UTC()
}

// samplePayload is the wire form of one sample: a two-column row keyed by
// timestamp.
type samplePayload struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// SerializeSamples converts each sample of a reading into an output event
// for the given topic.
func SerializeSamples(reading ChartReading, topic string) ([]OutputEvent, error) {
	processedAt := clock.Now().UTC().Format(time.RFC3339)
	out := make([]OutputEvent, 0, len(reading.Samples))
	for _, s := range reading.Samples {
		data, err := json.Marshal(samplePayload{
			Timestamp: s.Timestamp.UTC().Format(time.RFC3339),
			Value:     s.Value,
		})
		if err != nil {
			return nil, fmt.Errorf("serialize sample: %w", err)
		}
		out = append(out, OutputEvent{
			Topic: topic,
			Key:   []byte(reading.ChartID),
			Value: data,
			Headers: map[string]string{
				"chart_id":     reading.ChartID,
				"processed_at": processedAt,
			},
		})
	}
	return out, nil
}

// SerializeThresholds converts the reading's threshold set into an output
// event for the given topic.
func SerializeThresholds(reading ChartReading, topic string) (OutputEvent, error) {
	data, err := json.Marshal(reading.Thresholds)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize thresholds: %w", err)
	}
	return OutputEvent{
		Topic: topic,
		Key:   []byte(reading.ChartID),
		Value: data,
		Headers: map[string]string{
			"chart_id":     reading.ChartID,
			"source":       string(reading.Thresholds.Source),
			"processed_at": clock.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
