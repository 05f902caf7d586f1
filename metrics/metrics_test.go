package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCounter(t *testing.T) {
	counter := NewCounter("test_counter_total", "metrics", "counter used by tests", []string{"kind"})
	counter.WithLabelValues("a").Add(3)
	counter.WithLabelValues("b").Inc()

	m := &dto.Metric{}
	require.NoError(t, counter.WithLabelValues("a").Write(m))
	require.Equal(t, 3.0, m.GetCounter().GetValue())
	require.Len(t, m.GetLabel(), 1)
	require.Equal(t, "kind", m.GetLabel()[0].GetName())
	require.Equal(t, "a", m.GetLabel()[0].GetValue())
}

func TestGauge(t *testing.T) {
	gauge := NewGauge("test_gauge", "metrics", "gauge used by tests", []string{})
	gauge.WithLabelValues().Set(7)

	m := &dto.Metric{}
	require.NoError(t, gauge.WithLabelValues().Write(m))
	require.Equal(t, 7.0, m.GetGauge().GetValue())
}

func TestHistogramBuckets(t *testing.T) {
	hist := NewHistogramWithBuckets("test_seconds", "metrics", "histogram used by tests", []string{}, []float64{0.1, 1})
	hist.WithLabelValues().Observe(0.5)
	hist.WithLabelValues().Observe(5)

	m := &dto.Metric{}
	require.NoError(t, hist.WithLabelValues().(prometheus.Metric).Write(m))
	require.EqualValues(t, 2, m.GetHistogram().GetSampleCount())
	buckets := m.GetHistogram().GetBucket()
	require.Len(t, buckets, 2)
	require.EqualValues(t, 0, buckets[0].GetCumulativeCount())
	require.EqualValues(t, 1, buckets[1].GetCumulativeCount())
}

func TestPusher(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	pusher := NewPusher(zaptest.NewLogger(t), PushConfig{URL: srv.URL, Period: 10 * time.Millisecond}, "run-1", 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pusher.Run(ctx) }()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(paths) > 0
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for _, path := range paths {
		require.True(t, strings.HasPrefix(path, "/metrics/job/"+Namespace), path)
		require.Contains(t, path, "/run/run-1")
		require.Contains(t, path, "/rank/2")
	}
}

func TestServerStops(t *testing.T) {
	srv := NewServer(zaptest.NewLogger(t), 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "server did not stop")
	}
}
