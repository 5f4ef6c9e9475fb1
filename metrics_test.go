package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := newMetrics()

	snap := m.Snapshot()
	require.Len(t, snap, int(metricCount))
	for id, v := range snap {
		require.Zerof(t, v, "counter %d not zero", id)
	}

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricTokenRevoked)
	m.Inc(metricCount + 1) // out of range, ignored

	snap = m.Snapshot()
	require.EqualValues(t, 2, snap[MetricLoginSuccess])
	require.EqualValues(t, 1, snap[MetricTokenRevoked])
	require.EqualValues(t, 0, snap[MetricLoginFailure])
}

func TestMetrics_Concurrent(t *testing.T) {
	t.Parallel()

	m := newMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 8000, m.Snapshot()[MetricRefreshSuccess])
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.Inc(MetricLoginSuccess)
	require.NotNil(t, m.Snapshot())
}
