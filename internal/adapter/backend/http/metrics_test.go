package http_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

func TestMetricsRecording(t *testing.T) {
	m := backendhttp.NewDefaultMetrics()

	m.RecordRequest("amazon.nova-lite-v1:0")
	m.RecordRequest("amazon.nova-lite-v1:0")
	m.RecordRequest("amazon.nova-pro-v1:0")
	m.RecordDuration("amazon.nova-lite-v1:0", 2*time.Second)
	m.RecordTokens("amazon.nova-lite-v1:0", 1000, 200)
	m.RecordTokens("amazon.nova-pro-v1:0", 500, 100)
	m.RecordCost("amazon.nova-lite-v1:0", 0.000018)
	m.RecordError("amazon.nova-pro-v1:0", backendhttp.ErrTypeRateLimit)

	stats := m.GetStats()
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 1500, stats.TotalTokensIn)
	assert.Equal(t, 300, stats.TotalTokensOut)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 2*time.Second, stats.TotalDuration)
	assert.InDelta(t, 0.000018, stats.TotalCost, 1e-12)

	lite, ok := stats.ByModel["amazon.nova-lite-v1:0"]
	require.True(t, ok)
	assert.Equal(t, 2, lite.Requests)
	assert.Equal(t, 1000, lite.TokensIn)

	pro, ok := stats.ByModel["amazon.nova-pro-v1:0"]
	require.True(t, ok)
	assert.Equal(t, 1, pro.Errors)
}

func TestMetricsSnapshotIsolated(t *testing.T) {
	m := backendhttp.NewDefaultMetrics()
	m.RecordRequest("m")

	stats := m.GetStats()
	stats.ByModel["m"] = backendhttp.ModelStats{Requests: 99}
	stats.TotalRequests = 99

	fresh := m.GetStats()
	assert.Equal(t, 1, fresh.TotalRequests)
	assert.Equal(t, 1, fresh.ByModel["m"].Requests)
}

func TestMetricsConcurrentAccess(t *testing.T) {
	m := backendhttp.NewDefaultMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.RecordRequest("m")
				m.RecordTokens("m", 10, 5)
				_ = m.GetStats()
			}
		}()
	}
	wg.Wait()

	stats := m.GetStats()
	assert.Equal(t, 1000, stats.TotalRequests)
	assert.Equal(t, 10000, stats.TotalTokensIn)
}
