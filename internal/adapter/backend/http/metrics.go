package http

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for backend API calls.
type Metrics interface {
	// RecordRequest records an API request
	RecordRequest(modelID string)

	// RecordDuration records request duration
	RecordDuration(modelID string, duration time.Duration)

	// RecordTokens records token usage
	RecordTokens(modelID string, tokensIn, tokensOut int)

	// RecordCost records API cost
	RecordCost(modelID string, cost float64)

	// RecordError records an error
	RecordError(modelID string, errType ErrorType)

	// GetStats returns current statistics
	GetStats() Stats
}

// Stats contains aggregate statistics.
type Stats struct {
	TotalRequests  int
	TotalTokensIn  int
	TotalTokensOut int
	TotalCost      float64
	TotalDuration  time.Duration
	ErrorCount     int
	ByModel        map[string]ModelStats
}

// ModelStats contains per-model statistics.
type ModelStats struct {
	Requests  int
	TokensIn  int
	TokensOut int
	Cost      float64
	Duration  time.Duration
	Errors    int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{
			ByModel: make(map[string]ModelStats),
		},
	}
}

// RecordRequest increments request counters.
func (m *DefaultMetrics) RecordRequest(modelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRequests++

	ms := m.stats.ByModel[modelID]
	ms.Requests++
	m.stats.ByModel[modelID] = ms
}

// RecordDuration records API call duration.
func (m *DefaultMetrics) RecordDuration(modelID string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration

	ms := m.stats.ByModel[modelID]
	ms.Duration += duration
	m.stats.ByModel[modelID] = ms
}

// RecordTokens records token usage.
func (m *DefaultMetrics) RecordTokens(modelID string, tokensIn, tokensOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalTokensIn += tokensIn
	m.stats.TotalTokensOut += tokensOut

	ms := m.stats.ByModel[modelID]
	ms.TokensIn += tokensIn
	ms.TokensOut += tokensOut
	m.stats.ByModel[modelID] = ms
}

// RecordCost records API cost.
func (m *DefaultMetrics) RecordCost(modelID string, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalCost += cost

	ms := m.stats.ByModel[modelID]
	ms.Cost += cost
	m.stats.ByModel[modelID] = ms
}

// RecordError records an error.
func (m *DefaultMetrics) RecordError(modelID string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++

	ms := m.stats.ByModel[modelID]
	ms.Errors++
	m.stats.ByModel[modelID] = ms
}

// GetStats returns a copy of current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statsCopy := Stats{
		TotalRequests:  m.stats.TotalRequests,
		TotalTokensIn:  m.stats.TotalTokensIn,
		TotalTokensOut: m.stats.TotalTokensOut,
		TotalCost:      m.stats.TotalCost,
		TotalDuration:  m.stats.TotalDuration,
		ErrorCount:     m.stats.ErrorCount,
		ByModel:        make(map[string]ModelStats),
	}

	for k, v := range m.stats.ByModel {
		statsCopy.ByModel[k] = v
	}

	return statsCopy
}
