package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/Edgar454/WhoIsTalking/internal/bus"
	apperrors "github.com/Edgar454/WhoIsTalking/internal/errors"
	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/observability"
	"github.com/Edgar454/WhoIsTalking/internal/resilience"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
)

// Config holds job runner settings.
type Config struct {
	// Workers is the number of concurrent job workers.
	Workers int `mapstructure:"workers"`
	// QueueSize is the submission queue capacity. Submissions beyond it are
	// rejected rather than blocking the request handler.
	QueueSize int `mapstructure:"queue_size"`
	// MaxAttempts is the per-job attempt bound, including the first attempt.
	MaxAttempts int `mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the first retry, e.g. "500ms".
	InitialBackoff string `mapstructure:"initial_backoff"`
	// StrictPredictors fails the job when a predictor errors instead of
	// degrading that branch to an empty result.
	StrictPredictors bool `mapstructure:"strict_predictors"`
	// JobTimeout bounds one processing attempt, e.g. "5m".
	JobTimeout string `mapstructure:"job_timeout"`
}

// ApplyDefaults applies default values to the config.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff == "" {
		c.InitialBackoff = "500ms"
	}
	if c.JobTimeout == "" {
		c.JobTimeout = "5m"
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.InitialBackoff); err != nil {
		return apperrors.InvalidInput("jobs.initial_backoff", err.Error())
	}
	if _, err := time.ParseDuration(c.JobTimeout); err != nil {
		return apperrors.InvalidInput("jobs.job_timeout", err.Error())
	}
	return nil
}

type task struct {
	job      *Job
	audio    []byte
	filename string
}

// Runner executes submitted jobs on a fixed worker pool. Each job runs the
// orchestrator pipeline under a bounded retry policy, then publishes its
// outcome on the notification bus.
type Runner struct {
	cfg          Config
	registry     *Registry
	orchestrator *Orchestrator
	bus          *bus.Bus
	log          *logger.Logger
	metrics      *observability.Metrics

	queue    chan task
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRunner creates a runner. Call Start before submitting work.
func NewRunner(
	cfg Config,
	registry *Registry,
	orchestrator *Orchestrator,
	b *bus.Bus,
	log *logger.Logger,
	metrics *observability.Metrics,
) *Runner {
	cfg.ApplyDefaults()
	return &Runner{
		cfg:          cfg,
		registry:     registry,
		orchestrator: orchestrator,
		bus:          b,
		log:          log.WithComponent("runner"),
		metrics:      metrics,
		queue:        make(chan task, cfg.QueueSize),
	}
}

// Start launches the worker pool. ctx bounds the lifetime of all workers.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.log.Info("Job runner started", map[string]interface{}{
		"workers":    r.cfg.Workers,
		"queue_size": r.cfg.QueueSize,
	})
}

// Stop closes the queue and waits for in-flight jobs to finish. Safe to call
// more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
	r.log.Info("Job runner stopped", nil)
}

// Submit registers a job for the given audio content and enqueues it. It
// never blocks: when the queue is full the job is marked failed and a
// retryable queue-full error is returned.
func (r *Runner) Submit(fileHash string, audio []byte, filename string) (*Job, error) {
	job := r.registry.Create(fileHash, filename)
	select {
	case r.queue <- task{job: job, audio: audio, filename: filename}:
	default:
		r.registry.MarkFailure(job.ID, "queue full")
		return nil, apperrors.QueueFull()
	}

	r.log.Info("Job enqueued", map[string]interface{}{
		logger.FieldJobID:    job.ID,
		logger.FieldFileHash: fileHash,
		"filename":           filename,
	})
	return job, nil
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-r.queue:
			if !ok {
				return
			}
			r.run(ctx, t)
		}
	}
}

// run executes one job to a terminal state and publishes its outcome.
func (r *Runner) run(ctx context.Context, t task) {
	start := time.Now()
	r.registry.MarkRunning(t.job.ID)

	backoff, _ := time.ParseDuration(r.cfg.InitialBackoff)
	jobTimeout, _ := time.ParseDuration(r.cfg.JobTimeout)

	result, err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    r.cfg.MaxAttempts,
		InitialBackoff: backoff,
		Jitter:         0.2,
		RetryIf:        apperrors.IsRetryable,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			r.log.Warn("Job attempt failed, retrying", map[string]interface{}{
				logger.FieldJobID: t.job.ID,
				"attempt":         attempt,
				"backoff":         backoff.String(),
				"error":           err.Error(),
			})
		},
	}, func() (*transcript.JoinedResult, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		return r.orchestrator.Process(attemptCtx, t.job.FileHash, t.audio, t.filename)
	})

	channel := bus.ResultChannel(t.job.FileHash)
	if err != nil {
		r.registry.MarkFailure(t.job.ID, err.Error())
		r.metrics.RecordJob(ctx, string(StatusFailure), time.Since(start))
		r.log.Error("Job failed", map[string]interface{}{
			logger.FieldJobID:    t.job.ID,
			logger.FieldFileHash: t.job.FileHash,
			"error":              err.Error(),
		})
		r.publish(ctx, channel, Notification{FileHash: t.job.FileHash, Error: err.Error()})
		return
	}

	r.registry.MarkSuccess(t.job.ID)
	r.metrics.RecordJob(ctx, string(StatusSuccess), time.Since(start))
	r.log.Info("Job succeeded", map[string]interface{}{
		logger.FieldJobID:    t.job.ID,
		logger.FieldFileHash: t.job.FileHash,
		"duration_ms":        time.Since(start).Milliseconds(),
	})
	r.publish(ctx, channel, NotificationFromResult(result))
}

// publish delivers the completion notification. Publish failures do not
// change the job's terminal state; polling clients still see the outcome.
func (r *Runner) publish(ctx context.Context, channel string, n Notification) {
	if err := r.bus.Publish(ctx, channel, n); err != nil {
		r.log.Error("Failed to publish job notification", map[string]interface{}{
			"channel": channel,
			"error":   err.Error(),
		})
	}
}
