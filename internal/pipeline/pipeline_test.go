package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/couchcryptid/stripchart-etl/internal/observability"
	"github.com/couchcryptid/stripchart-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	charts []domain.RawChart
	index  atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawChart, error) {
	i := int(m.index.Load())
	if i >= len(m.charts) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	end := min(i+batchSize, len(m.charts))
	m.index.Store(int64(end))
	return m.charts[i:end], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawChart) (domain.ChartReading, error) {
	if m.err != nil {
		return domain.ChartReading{}, m.err
	}
	return domain.ChartReading{
		ChartID: raw.ChartID,
		Samples: []domain.Sample{{Timestamp: raw.CapturedAt, Value: 1}},
	}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.ChartReading
	err    error
	calls  int
}

func (m *mockLoader) LoadBatch(_ context.Context, readings []domain.ChartReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, readings...)
	return nil
}

func (m *mockLoader) snapshot() ([]domain.ChartReading, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChartReading(nil), m.loaded...), m.calls
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func rawChart(id string) domain.RawChart {
	return domain.RawChart{
		ChartID:    id,
		Image:      []byte("png"),
		CapturedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{charts: []domain.RawChart{rawChart("a"), rawChart("b")}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	loaded, calls := ldr.snapshot()
	require.Len(t, loaded, 2)
	assert.Equal(t, 1, calls, "one load per batch")
	assert.Equal(t, "a", loaded[0].ChartID)
	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_BatchesBySize(t *testing.T) {
	ext := &mockExtractor{charts: []domain.RawChart{rawChart("a"), rawChart("b"), rawChart("c")}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	loaded, calls := ldr.snapshot()
	assert.Len(t, loaded, 3)
	assert.Equal(t, 2, calls)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	loaded, _ := ldr.snapshot()
	assert.Empty(t, loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	committed := false
	raw := rawChart("a")
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	ldr := &mockLoader{}
	tfm := &mockTransformer{err: domain.ErrUnreadableImage}
	p := pipeline.New(&mockExtractor{charts: []domain.RawChart{raw}}, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	loaded, calls := ldr.snapshot()
	assert.Empty(t, loaded)
	assert.Zero(t, calls)
	assert.True(t, committed, "a chart that cannot be digitized is not retried")
	assert.False(t, p.Ready())
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false
	raw := rawChart("a")
	raw.Topic = "raw-chart-images"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	p := pipeline.New(&mockExtractor{charts: []domain.RawChart{raw}}, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, commitCalled)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commitCalled := false
	raw := rawChart("a")
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ldr := &mockLoader{err: errors.New("broker unavailable")}
	p := pipeline.New(&mockExtractor{charts: []domain.RawChart{raw}}, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	_, calls := ldr.snapshot()
	assert.Equal(t, 1, calls)
	assert.False(t, commitCalled)
	assert.False(t, p.Ready())
}
