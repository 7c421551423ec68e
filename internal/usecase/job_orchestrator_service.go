package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/questrank/internal/domain/jobscheduler"
	"github.com/riskibarqy/questrank/internal/domain/period"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

const (
	JobPathWeeklyDistribution   = "/v1/internal/jobs/weekly-distribution"
	JobPathPowerUpSweep         = "/v1/internal/jobs/powerup-sweep"
	JobPathPendingVerifications = "/v1/internal/jobs/pending-verifications"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type JobOrchestratorConfig struct {
	PowerUpSweepInterval        time.Duration
	PendingVerificationInterval time.Duration
	PendingVerificationBatch    int
}

type JobInput struct {
	DispatchID string
	// NoReschedule runs the job body without enqueueing its successor.
	NoReschedule bool
}

type JobRunResult struct {
	Job              string         `json:"job"`
	DispatchID       string         `json:"dispatch_id,omitempty"`
	Summary          map[string]any `json:"summary"`
	QueuedCount      int            `json:"queued_count"`
	QueuedOperations []string       `json:"queued_operations"`
}

type weeklyDistributor interface {
	RunWeeklyDistribution(ctx context.Context) (DistributionReport, error)
}

type powerUpSweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
}

type pendingVerifier interface {
	RetryPending(ctx context.Context, limit int) (RetryPendingResult, error)
}

type JobOrchestratorService struct {
	distributor  weeklyDistributor
	sweeper      powerUpSweeper
	verifier     pendingVerifier
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          JobOrchestratorConfig
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewJobOrchestratorService(
	distributor weeklyDistributor,
	sweeper powerUpSweeper,
	verifier pendingVerifier,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg JobOrchestratorConfig,
	logger *logging.Logger,
) *JobOrchestratorService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PowerUpSweepInterval <= 0 {
		cfg.PowerUpSweepInterval = time.Minute
	}
	if cfg.PendingVerificationInterval <= 0 {
		cfg.PendingVerificationInterval = 5 * time.Minute
	}
	if cfg.PendingVerificationBatch <= 0 {
		cfg.PendingVerificationBatch = defaultRetryBatch
	}

	return &JobOrchestratorService{
		distributor:  distributor,
		sweeper:      sweeper,
		verifier:     verifier,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Bootstrap seeds the self-rescheduling chain of every job.
func (s *JobOrchestratorService) Bootstrap(ctx context.Context) (JobRunResult, error) {
	now := s.now().UTC()
	result := JobRunResult{
		Job:              "bootstrap",
		Summary:          map[string]any{},
		QueuedOperations: make([]string, 0, 3),
	}

	steps := []func(context.Context, time.Time) (string, error){
		s.enqueueWeeklyDistribution,
		s.enqueuePowerUpSweep,
		s.enqueuePendingVerifications,
	}
	for _, step := range steps {
		op, err := step(ctx, now)
		if err != nil {
			return JobRunResult{}, err
		}
		result.QueuedCount++
		result.QueuedOperations = append(result.QueuedOperations, op)
	}
	return result, nil
}

func (s *JobOrchestratorService) RunWeeklyDistribution(ctx context.Context, input JobInput) (JobRunResult, error) {
	return s.run(ctx, jobscheduler.JobWeeklyDistribution, JobPathWeeklyDistribution, input,
		func(ctx context.Context) (map[string]any, error) {
			report, err := s.distributor.RunWeeklyDistribution(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"week":         report.Week.Format(time.DateOnly),
				"skipped":      report.Skipped,
				"rewarded":     len(report.Rewarded),
				"failed":       report.Failed,
				"reset":        report.ResetCount,
				"bonus_points": report.BonusPoints,
			}, nil
		},
		s.enqueueWeeklyDistribution,
	)
}

func (s *JobOrchestratorService) RunPowerUpSweep(ctx context.Context, input JobInput) (JobRunResult, error) {
	return s.run(ctx, jobscheduler.JobPowerUpSweep, JobPathPowerUpSweep, input,
		func(ctx context.Context) (map[string]any, error) {
			expired, err := s.sweeper.ExpireStale(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"expired": expired}, nil
		},
		s.enqueuePowerUpSweep,
	)
}

func (s *JobOrchestratorService) RunPendingVerifications(ctx context.Context, input JobInput) (JobRunResult, error) {
	return s.run(ctx, jobscheduler.JobPendingVerifications, JobPathPendingVerifications, input,
		func(ctx context.Context) (map[string]any, error) {
			out, err := s.verifier.RetryPending(ctx, s.cfg.PendingVerificationBatch)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"attempted":     out.Attempted,
				"approved":      out.Approved,
				"rejected":      out.Rejected,
				"still_pending": out.StillPending,
				"failed":        out.Failed,
			}, nil
		},
		s.enqueuePendingVerifications,
	)
}

// run executes one job body, records its outcome against the dispatch that
// triggered it, and enqueues the successor even when the body failed so the
// chain survives transient errors.
func (s *JobOrchestratorService) run(
	ctx context.Context,
	jobName, jobPath string,
	input JobInput,
	body func(context.Context) (map[string]any, error),
	next func(context.Context, time.Time) (string, error),
) (JobRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService."+jobName)
	defer span.End()

	result := JobRunResult{
		Job:              jobName,
		DispatchID:       strings.TrimSpace(input.DispatchID),
		QueuedOperations: make([]string, 0, 1),
	}

	summary, runErr := body(ctx)
	result.Summary = summary
	event := jobscheduler.DispatchEvent{
		DispatchID: result.DispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		Subject:    jobName,
		Status:     jobscheduler.StatusCompleted,
		Payload:    summary,
		OccurredAt: s.now().UTC(),
	}
	if runErr != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = runErr.Error()
	}
	s.recordDispatchEvent(ctx, event)

	if !input.NoReschedule {
		op, err := next(ctx, s.now().UTC())
		if err != nil {
			s.logger.ErrorContext(ctx, "enqueue next job failed", "job", jobName, "error", err)
			if runErr == nil {
				return JobRunResult{}, err
			}
		} else {
			result.QueuedCount++
			result.QueuedOperations = append(result.QueuedOperations, op)
		}
	}

	if runErr != nil {
		return JobRunResult{}, fmt.Errorf("run job %s: %w", jobName, runErr)
	}
	return result, nil
}

// enqueueWeeklyDistribution targets the next Monday 00:01 UTC. The week of
// that moment is the dispatch subject, so every trigger in the same week
// collapses onto one delivery.
func (s *JobOrchestratorService) enqueueWeeklyDistribution(ctx context.Context, now time.Time) (string, error) {
	at := period.NextDistribution(now)
	subject := period.WeekStart(at).Format(time.DateOnly)
	return s.enqueue(ctx, jobscheduler.JobWeeklyDistribution, JobPathWeeklyDistribution, subject, at.Sub(now), now, period.Week)
}

func (s *JobOrchestratorService) enqueuePowerUpSweep(ctx context.Context, now time.Time) (string, error) {
	interval := s.cfg.PowerUpSweepInterval
	return s.enqueue(ctx, jobscheduler.JobPowerUpSweep, JobPathPowerUpSweep, "all", interval, now, interval)
}

func (s *JobOrchestratorService) enqueuePendingVerifications(ctx context.Context, now time.Time) (string, error) {
	interval := s.cfg.PendingVerificationInterval
	return s.enqueue(ctx, jobscheduler.JobPendingVerifications, JobPathPendingVerifications, "batch", interval, now, interval)
}

func (s *JobOrchestratorService) enqueue(ctx context.Context, jobName, path, subject string, delay time.Duration, now time.Time, bucket time.Duration) (string, error) {
	dedupID := dedupKey(jobName, subject, now.Add(delay), bucket)
	payload := map[string]any{
		"subject":     subject,
		"dispatch_id": dedupID,
	}
	event := jobscheduler.DispatchEvent{
		DispatchID: dedupID,
		JobName:    jobName,
		JobPath:    path,
		Subject:    subject,
		Status:     jobscheduler.StatusSent,
		Payload:    payload,
		OccurredAt: now.UTC(),
	}

	if err := s.queue.Enqueue(ctx, path, payload, delay, dedupID); err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return "", fmt.Errorf("enqueue %s subject=%s: %w", jobName, subject, err)
	}
	s.recordDispatchEvent(ctx, event)
	return jobName + ":" + subject, nil
}

func dedupKey(prefix, subject string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	subject = sanitizeDedupSegment(subject)
	return prefix + "-" + subject + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *JobOrchestratorService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
