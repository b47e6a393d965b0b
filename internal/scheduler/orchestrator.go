package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

// CycleRunner runs one update cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) []pipeline.CycleReport
}

// ReportSaver persists cycle reports. Optional.
type ReportSaver interface {
	Save(ctx context.Context, reports []pipeline.CycleReport) error
}

// Config holds scheduler configuration
type Config struct {
	Interval   time.Duration // Default: 1h
	MaxRetries int           // Default: 3
	RetryDelay time.Duration // Default: 30s
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:   time.Hour,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		RunOnStart: true,
	}
}

// Orchestrator runs cycles on an interval and on demand.
type Orchestrator struct {
	runner  CycleRunner
	saver   ReportSaver
	config  Config
	logger  *logging.Logger
	trigger chan struct{}

	mu                  sync.Mutex
	running             bool
	cycles              int
	lastRun             time.Time
	consecutiveFailures int
	cancel              context.CancelFunc
}

// NewOrchestrator creates a scheduler. saver may be nil.
func NewOrchestrator(runner CycleRunner, saver ReportSaver, config Config, logger *logging.Logger) *Orchestrator {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = def.RetryDelay
	}
	return &Orchestrator{
		runner:  runner,
		saver:   saver,
		config:  config,
		logger:  logger.Component("scheduler"),
		trigger: make(chan struct{}, 1),
	}
}

// Start runs cycles until ctx is cancelled or Stop is called. It blocks.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()

	o.logger.Info("scheduler started", "interval", o.config.Interval.String(), "max_retries", o.config.MaxRetries)

	ticker := time.NewTicker(o.config.Interval)
	defer ticker.Stop()

	if o.config.RunOnStart {
		o.runWithRetry(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			o.runWithRetry(ctx)
		case <-o.trigger:
			o.logger.Info("manual cycle triggered")
			o.runWithRetry(ctx)
		}
	}
}

// Stop cancels a running Start.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Trigger queues a cycle. It returns false when one is already queued.
func (o *Orchestrator) Trigger() bool {
	select {
	case o.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// RunOnce runs a single cycle with retries, outside the loop.
func (o *Orchestrator) RunOnce(ctx context.Context) []pipeline.CycleReport {
	return o.runWithRetry(ctx)
}

func (o *Orchestrator) runWithRetry(ctx context.Context) []pipeline.CycleReport {
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	var reports []pipeline.CycleReport
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		reports = o.runner.RunCycle(ctx)
		o.save(ctx, reports)

		if !Retryable(reports) {
			break
		}

		o.logger.Warn("cycle attempt failed", "attempt", attempt, "max_retries", o.config.MaxRetries)
		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return reports
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	o.mu.Lock()
	o.cycles++
	o.lastRun = time.Now()
	if Retryable(reports) {
		o.consecutiveFailures++
		o.logger.Error("all cycle attempts failed", "consecutive_failures", o.consecutiveFailures)
	} else {
		o.consecutiveFailures = 0
	}
	o.mu.Unlock()

	return reports
}

func (o *Orchestrator) save(ctx context.Context, reports []pipeline.CycleReport) {
	if o.saver == nil {
		return
	}
	if err := o.saver.Save(ctx, reports); err != nil {
		o.logger.Warn("failed to save cycle reports", "error", err)
	}
}

// Retryable reports whether any source failed before reaching its games.
// Re-running is safe because published titles are filtered out next time.
func Retryable(reports []pipeline.CycleReport) bool {
	for _, r := range reports {
		if r.Err == nil {
			continue
		}
		if errors.Is(r.Err, pipeline.ErrSourceUnavailable) || errors.Is(r.Err, pipeline.ErrIndexUnavailable) {
			return true
		}
	}
	return false
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"interval":             o.config.Interval.String(),
		"max_retries":          o.config.MaxRetries,
		"running":              o.running,
		"cycles":               o.cycles,
		"consecutive_failures": o.consecutiveFailures,
	}
	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun.UTC().Format(time.RFC3339)
	}
	return status
}
