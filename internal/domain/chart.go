package domain

import (
	"context"
	"image"
	"time"
)

// RawChart represents an undecoded chart image pulled from the source topic.
type RawChart struct {
	ChartID    string
	Image      []byte
	CapturedAt time.Time
	Headers    map[string]string
	Topic      string
	Partition  int
	Offset     int64
	Timestamp  time.Time
	Commit     func(ctx context.Context) error
}

// PlotBox delimits the data area of a chart inside the full raster. Left and
// Top are inclusive, Right and Bottom exclusive, matching image.Rectangle.
type PlotBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Rect returns the box as an image.Rectangle.
func (b PlotBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

func (b PlotBox) Width() int  { return b.Right - b.Left }
func (b PlotBox) Height() int { return b.Bottom - b.Top }

// Within reports whether the box is non-empty and fully contained in bounds.
func (b PlotBox) Within(bounds image.Rectangle) bool {
	return b.Left < b.Right && b.Top < b.Bottom && b.Rect().In(bounds)
}

// Sample is one recovered point of the time series.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ChartReading is the full result of processing one chart image.
type ChartReading struct {
	ChartID      string       `json:"chart_id"`
	CapturedAt   time.Time    `json:"captured_at"`
	PlotBox      PlotBox      `json:"plot_box"`
	CropFallback bool         `json:"crop_fallback"`
	CoveragePct  float64      `json:"coverage_pct"`
	MaskFallback bool         `json:"mask_fallback"`
	Samples      []Sample     `json:"samples"`
	Thresholds   ThresholdSet `json:"thresholds"`
	ProcessedAt  time.Time    `json:"processed_at"`
}

// OutputEvent is the serialized form destined for a sink topic.
type OutputEvent struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}
