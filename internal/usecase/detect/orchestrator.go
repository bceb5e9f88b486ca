package detect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
	"github.com/smartreview/detection/internal/domain"
	"github.com/smartreview/detection/internal/usecase/invoke"
)

// Invoker is the port through which the orchestrator reaches the paced model
// invoker.
type Invoker interface {
	Invoke(ctx context.Context, callerKey, modelID, prompt string, maxTokens int, tuning invoke.Tuning) (invoke.Result, error)
}

// Optimizer prepares file content for analysis and estimates its token cost.
type Optimizer interface {
	Optimize(content, language string) string
	EstimateTokens(text string) int
}

// Store persists completed runs. Persistence failures never fail a run.
type Store interface {
	SaveRun(ctx context.Context, resp Response) error
}

// Config holds orchestrator settings.
type Config struct {
	ModelID             string
	MaxTokens           int
	ConfidenceThreshold float64

	// MaxPromptTokens bounds the estimated token size of file content sent
	// in one prompt. Oversized content is trimmed proportionally.
	MaxPromptTokens int

	// Workers bounds the analysis pool. Zero means min(4, NumCPU).
	Workers int

	// SafetyBuffer is reserved from the run deadline so the response can
	// still be assembled after analysis stops.
	SafetyBuffer time.Duration

	// MinFileTimeout is the floor on the per-file collection wait, no
	// matter how little deadline remains.
	MinFileTimeout time.Duration

	// DefaultFileTimeout is used when the context carries no deadline.
	DefaultFileTimeout time.Duration
}

// DefaultConfig returns the standard orchestrator settings.
func DefaultConfig() Config {
	return Config{
		ModelID:             "amazon.nova-lite-v1:0",
		MaxTokens:           4000,
		ConfidenceThreshold: 0.7,
		MaxPromptTokens:     12000,
		SafetyBuffer:        30 * time.Second,
		MinFileTimeout:      10 * time.Second,
		DefaultFileTimeout:  2 * time.Minute,
	}
}

// Orchestrator fans file analysis out over a bounded worker pool, one task
// per file, and consolidates whatever completed before the deadline.
type Orchestrator struct {
	invoker   Invoker
	optimizer Optimizer
	store     Store
	logger    Logger
	cfg       Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore attaches a run-history store.
func WithStore(store Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithLogger attaches a structured logger.
func WithLogger(logger Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithOptimizer attaches a content optimizer.
func WithOptimizer(opt Optimizer) Option {
	return func(o *Orchestrator) { o.optimizer = opt }
}

// NewOrchestrator constructs an Orchestrator over the given invoker.
func NewOrchestrator(invoker Invoker, cfg Config, opts ...Option) *Orchestrator {
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultConfig().ModelID
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfig().ConfidenceThreshold
	}
	if cfg.MaxPromptTokens <= 0 {
		cfg.MaxPromptTokens = DefaultConfig().MaxPromptTokens
	}
	if cfg.SafetyBuffer <= 0 {
		cfg.SafetyBuffer = DefaultConfig().SafetyBuffer
	}
	if cfg.MinFileTimeout <= 0 {
		cfg.MinFileTimeout = DefaultConfig().MinFileTimeout
	}
	if cfg.DefaultFileTimeout <= 0 {
		cfg.DefaultFileTimeout = DefaultConfig().DefaultFileTimeout
	}
	o := &Orchestrator{
		invoker: invoker,
		logger:  nopLogger{},
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = nopLogger{}
	}
	return o
}

// runTotals accumulates token and cost usage across concurrent tasks.
type runTotals struct {
	mu         sync.Mutex
	tokens     int
	cost       float64
	byCategory map[string]time.Duration
}

func (t *runTotals) addUsage(tokens int, cost float64) {
	t.mu.Lock()
	t.tokens += tokens
	t.cost += cost
	t.mu.Unlock()
}

func (t *runTotals) addCategoryTime(category string, d time.Duration) {
	t.mu.Lock()
	t.byCategory[category] += d
	t.mu.Unlock()
}

// Detect runs the full analysis for one request. A request that fails
// validation returns an error response; past that point the run degrades
// instead of failing: files that time out are skipped and whatever completed
// is consolidated and reported as success, with the skips visible in the
// summary counts and the errors list.
func (o *Orchestrator) Detect(ctx context.Context, req Request) Response {
	start := time.Now()

	if err := req.Validate(); err != nil {
		o.logger.Warn("request rejected", "error", err)
		return errorResponse(req, start, fmt.Errorf("invalid request: %w", err))
	}

	threshold := o.cfg.ConfidenceThreshold
	if req.Options.ConfidenceThreshold > 0 {
		threshold = req.Options.ConfidenceThreshold
	}
	specs := specsFor(req.Options.Categories)

	o.logger.Info("detection started",
		"requestId", req.RequestID,
		"files", len(req.Files),
		"categories", len(specs),
		"model", o.cfg.ModelID)

	totals := &runTotals{byCategory: make(map[string]time.Duration)}

	p := newPool(ctx, o.cfg.Workers, len(req.Files))
	defer p.shutdown(2*time.Second, 500*time.Millisecond)

	tasks := make([]*task, 0, len(req.Files))
	for _, file := range req.Files {
		file := file
		tasks = append(tasks, p.submit(func(taskCtx context.Context) []domain.Issue {
			return o.analyzeFile(taskCtx, file, specs, threshold, totals)
		}))
	}

	var allIssues []domain.Issue
	var runErrors []string
	filesAnalyzed := 0
	for i, t := range tasks {
		issues, err := t.Wait(o.fileBudget(ctx, len(tasks)-i))
		if err != nil {
			o.logger.Warn("file analysis timed out", "file", req.Files[i].Path)
			runErrors = append(runErrors, fmt.Sprintf("file %s: analysis timed out", req.Files[i].Path))
			continue
		}
		allIssues = append(allIssues, issues...)
		filesAnalyzed++
	}

	consolidated := applyLimits(
		Consolidate(allIssues),
		req.Options.SeverityThreshold,
		req.Options.MaxIssuesPerFile,
	)

	totals.mu.Lock()
	processingTime := make(map[string]time.Duration, len(totals.byCategory)+1)
	for category, d := range totals.byCategory {
		processingTime[category] = d
	}
	totalTokens, totalCost := totals.tokens, totals.cost
	totals.mu.Unlock()
	processingTime["total"] = time.Since(start)

	resp := Response{
		SessionID:      req.SessionID,
		AnalysisID:     req.AnalysisID,
		RequestID:      req.RequestID,
		Status:         StatusSuccess,
		Issues:         consolidated,
		Summary:        buildSummary(consolidated, len(req.Files), filesAnalyzed, totalTokens, totalCost),
		ProcessingTime: processingTime,
		StartedAt:      start,
		CompletedAt:    time.Now(),
		Errors:         runErrors,
	}

	o.logger.Info("detection complete",
		"requestId", req.RequestID,
		"status", resp.Status,
		"issues", len(consolidated),
		"filesAnalyzed", filesAnalyzed,
		"totalFiles", len(req.Files),
		"tokens", totalTokens)

	if o.store != nil {
		if err := o.store.SaveRun(ctx, resp); err != nil {
			o.logger.Warn("failed to persist run", "error", err)
		}
	}

	return resp
}

// fileBudget computes the collection wait for the next pending task: the
// remaining deadline minus the safety buffer, shared across tasks still
// pending, floored at MinFileTimeout. Recomputed per task so time left over
// from fast files flows to slow ones.
func (o *Orchestrator) fileBudget(ctx context.Context, pending int) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return o.cfg.DefaultFileTimeout
	}
	if pending < 1 {
		pending = 1
	}
	budget := (time.Until(deadline) - o.cfg.SafetyBuffer) / time.Duration(pending)
	if budget < o.cfg.MinFileTimeout {
		budget = o.cfg.MinFileTimeout
	}
	return budget
}

// analyzeFile runs every requested category against one file. Category
// failures are contained: a failed category logs a warning and contributes no
// issues, but the other categories still run.
func (o *Orchestrator) analyzeFile(ctx context.Context, file FileContent, specs []CategorySpec, threshold float64, totals *runTotals) []domain.Issue {
	o.logger.Debug("analyzing file", "file", file.Path)

	content := o.prepareContent(file)

	var issues []domain.Issue
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("analysis cancelled", "file", file.Path, "category", spec.Category)
			break
		}

		categoryStart := time.Now()
		prompt := spec.BuildPrompt(file.Language, content)

		result, err := o.invoker.Invoke(ctx, file.Path, o.cfg.ModelID, prompt, o.cfg.MaxTokens, invoke.Tuning{})
		totals.addCategoryTime(spec.Category, time.Since(categoryStart))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				o.logger.Warn("analysis cancelled", "file", file.Path, "category", spec.Category)
				break
			}
			o.logger.Warn("category analysis failed",
				"file", file.Path,
				"category", spec.Category,
				"error", err)
			continue
		}

		totals.addUsage(result.TotalTokens, result.EstimatedCost)
		o.logger.Debug("model response received",
			"file", file.Path,
			"category", spec.Category,
			"response", backendhttp.TruncateForLogging(result.Text))

		for _, issue := range ParseIssues(result.Text, file, spec.Category) {
			if issue.Confidence >= threshold {
				issues = append(issues, issue)
			}
		}
	}

	return issues
}

// prepareContent picks the analysis content for a file: pre-optimized content
// is trusted as-is, otherwise the raw content is run through the optimizer.
// Either way the result is trimmed to the prompt token budget.
func (o *Orchestrator) prepareContent(file FileContent) string {
	content := file.OptimizedContent
	if content == "" {
		content = file.Content
		if o.optimizer != nil {
			content = o.optimizer.Optimize(file.Content, file.Language)
		}
	}
	if o.optimizer != nil {
		if tokens := o.optimizer.EstimateTokens(content); tokens > o.cfg.MaxPromptTokens {
			keep := len(content) * o.cfg.MaxPromptTokens / tokens
			o.logger.Warn("content exceeds prompt token budget, trimming",
				"file", file.Path,
				"tokens", tokens,
				"budget", o.cfg.MaxPromptTokens)
			content = content[:keep]
		}
	}
	return content
}
