package invoke

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

// Backend defines the outbound port for the text-generation service.
// Implementations classify failures as *backendhttp.Error so the invoker can
// decide retryability by inspecting the tag.
type Backend interface {
	Generate(ctx context.Context, req GenerationRequest) (Generation, error)
}

// GenerationRequest describes a single text-generation call.
type GenerationRequest struct {
	ModelID       string
	Prompt        string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	StopSequences []string
}

// Generation is the raw backend result before cost attribution.
type Generation struct {
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	ModelID      string
}

// Tuning carries optional sampling parameters for a call.
type Tuning struct {
	Temperature   float64
	TopP          float64
	StopSequences []string
}

// DefaultTuning returns the sampling parameters used when the caller passes
// none.
func DefaultTuning() Tuning {
	return Tuning{Temperature: 0.1, TopP: 0.9}
}

// Result is the normalized outcome of a successful invocation.
type Result struct {
	Text          string
	InputTokens   int
	OutputTokens  int
	TotalTokens   int
	EstimatedCost float64
	ModelID       string
	Timestamp     time.Time
}

// Config holds invoker pacing and retry settings.
type Config struct {
	// MinCallInterval is the pacing floor between two calls under the same
	// caller key.
	MinCallInterval time.Duration

	// MaxAttempts bounds the total attempts per invocation, including the
	// first.
	MaxAttempts int

	// RetryDelay seeds the inter-attempt backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns the standard pacing and retry settings.
func DefaultConfig() Config {
	return Config{
		MinCallInterval: 200 * time.Millisecond,
		MaxAttempts:     3,
		RetryDelay:      time.Second,
	}
}

// callerState tracks pacing and metrics for one caller key. Each key owns its
// lock; no global lock is held while a caller waits out its pacing delay.
type callerState struct {
	mu       sync.Mutex
	lastCall time.Time
	calls    int64
}

// Invoker serializes and paces calls to the backend per caller key, retries
// transient failures, and attributes token cost to each result.
type Invoker struct {
	backend Backend
	pricing backendhttp.Pricing
	logger  backendhttp.Logger
	metrics backendhttp.Metrics
	cfg     Config
	clock   func() time.Time

	mu      sync.Mutex
	callers map[string]*callerState
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger attaches a structured call logger.
func WithLogger(logger backendhttp.Logger) Option {
	return func(s *Invoker) { s.logger = logger }
}

// WithMetrics attaches a metrics tracker.
func WithMetrics(metrics backendhttp.Metrics) Option {
	return func(s *Invoker) { s.metrics = metrics }
}

// WithClock overrides the time source (for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Invoker) { s.clock = clock }
}

// NewInvoker constructs an Invoker over the given backend.
func NewInvoker(backend Backend, pricing backendhttp.Pricing, cfg Config, opts ...Option) *Invoker {
	if cfg.MinCallInterval <= 0 {
		cfg.MinCallInterval = DefaultConfig().MinCallInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	s := &Invoker{
		backend: backend,
		pricing: pricing,
		cfg:     cfg,
		clock:   time.Now,
		callers: make(map[string]*callerState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invoke paces, executes, and retries one backend call under the given caller
// key and returns a cost-attributed result or a classified error.
func (s *Invoker) Invoke(ctx context.Context, callerKey, modelID, prompt string, maxTokens int, tuning Tuning) (Result, error) {
	if tuning.Temperature == 0 && tuning.TopP == 0 && len(tuning.StopSequences) == 0 {
		tuning = DefaultTuning()
	}

	state := s.caller(callerKey)
	if err := s.pace(ctx, state); err != nil {
		return Result{}, fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	start := s.clock()
	if s.logger != nil {
		s.logger.LogRequest(ctx, backendhttp.RequestLog{
			Backend:     "invoker",
			Model:       modelID,
			Timestamp:   start,
			PromptChars: len(prompt),
		})
	}
	if s.metrics != nil {
		s.metrics.RecordRequest(modelID)
	}

	gen, err := s.generateWithRetries(ctx, GenerationRequest{
		ModelID:       modelID,
		Prompt:        prompt,
		MaxTokens:     maxTokens,
		Temperature:   tuning.Temperature,
		TopP:          tuning.TopP,
		StopSequences: tuning.StopSequences,
	})
	duration := s.clock().Sub(start)

	if err != nil {
		if s.logger != nil {
			errLog := backendhttp.ErrorLog{
				Backend:   "invoker",
				Model:     modelID,
				Timestamp: s.clock(),
				Duration:  duration,
				Error:     err,
			}
			var backendErr *backendhttp.Error
			if errors.As(err, &backendErr) {
				errLog.ErrorType = backendErr.Type
				errLog.StatusCode = backendErr.StatusCode
				errLog.Retryable = backendErr.Retryable
			}
			s.logger.LogError(ctx, errLog)
		}
		if s.metrics != nil {
			var backendErr *backendhttp.Error
			errType := backendhttp.ErrTypeUnknown
			if errors.As(err, &backendErr) {
				errType = backendErr.Type
			}
			s.metrics.RecordError(modelID, errType)
		}
		return Result{}, err
	}

	resolvedModel := gen.ModelID
	if resolvedModel == "" {
		resolvedModel = modelID
	}

	cost := 0.0
	if s.pricing != nil {
		cost = s.pricing.GetCost(resolvedModel, gen.TotalTokens)
	}

	state.mu.Lock()
	state.calls++
	state.mu.Unlock()

	if s.logger != nil {
		s.logger.LogResponse(ctx, backendhttp.ResponseLog{
			Backend:     "invoker",
			Model:       resolvedModel,
			Timestamp:   s.clock(),
			Duration:    duration,
			TokensIn:    gen.InputTokens,
			TokensOut:   gen.OutputTokens,
			TotalTokens: gen.TotalTokens,
			Cost:        cost,
		})
	}
	if s.metrics != nil {
		s.metrics.RecordDuration(resolvedModel, duration)
		s.metrics.RecordTokens(resolvedModel, gen.InputTokens, gen.OutputTokens)
		s.metrics.RecordCost(resolvedModel, cost)
	}

	return Result{
		Text:          gen.Text,
		InputTokens:   gen.InputTokens,
		OutputTokens:  gen.OutputTokens,
		TotalTokens:   gen.TotalTokens,
		EstimatedCost: cost,
		ModelID:       resolvedModel,
		Timestamp:     s.clock(),
	}, nil
}

// generateWithRetries runs the backend call under the retry policy: retryable
// classified errors are attempted up to MaxAttempts times, fatal errors abort
// immediately, and exhausting all attempts wraps the last cause.
func (s *Invoker) generateWithRetries(ctx context.Context, req GenerationRequest) (Generation, error) {
	var gen Generation

	retryCfg := backendhttp.RetryConfig{
		MaxRetries:     s.cfg.MaxAttempts - 1,
		InitialBackoff: s.cfg.RetryDelay,
		MaxBackoff:     8 * s.cfg.RetryDelay,
		Multiplier:     2.0,
	}

	err := backendhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var callErr error
		gen, callErr = s.backend.Generate(ctx, req)
		return callErr
	}, retryCfg)
	if err != nil {
		if backendhttp.ShouldRetry(err) {
			// Still retryable after the final attempt: attempts exhausted.
			return Generation{}, fmt.Errorf("backend invocation failed after %d attempts: %w", s.cfg.MaxAttempts, err)
		}
		return Generation{}, err
	}

	return gen, nil
}

// pace blocks until the caller key's pacing floor has elapsed. The pacing slot
// is reserved before waiting, so concurrent callers under the same key
// serialize. A context cancellation during the wait is terminal for the call.
func (s *Invoker) pace(ctx context.Context, state *callerState) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.lastCall.IsZero() && s.cfg.MinCallInterval > 0 {
		elapsed := s.clock().Sub(state.lastCall)
		if wait := s.cfg.MinCallInterval - elapsed; wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	state.lastCall = s.clock()
	return nil
}

// caller returns the state record for a key, creating it on first use.
func (s *Invoker) caller(key string) *callerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.callers[key]
	if !ok {
		state = &callerState{}
		s.callers[key] = state
	}
	return state
}

// CallCounts returns a snapshot of per-caller call counters.
func (s *Invoker) CallCounts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64, len(s.callers))
	for key, state := range s.callers {
		state.mu.Lock()
		counts[key] = state.calls
		state.mu.Unlock()
	}
	return counts
}

// LastCall returns the last recorded call time for a key, if any.
func (s *Invoker) LastCall(key string) (time.Time, bool) {
	s.mu.Lock()
	state, ok := s.callers[key]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.lastCall.IsZero() {
		return time.Time{}, false
	}
	return state.lastCall, true
}

// ResetStatistics clears all caller pacing state and counters.
func (s *Invoker) ResetStatistics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callers = make(map[string]*callerState)
}
