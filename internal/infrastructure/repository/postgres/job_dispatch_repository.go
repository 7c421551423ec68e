package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	jobPath := strings.TrimSpace(event.JobPath)
	if jobPath == "" {
		jobPath = "/unknown"
	}
	subject := strings.TrimSpace(event.Subject)
	if subject == "" {
		subject = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job dispatch payload: %w", err)
	}

	model := jobDispatchInsertModel{
		DispatchID: dispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		Subject:    subject,
		Payload:    payloadJSON,
		Status:     string(event.Status),
		LastError:  optionalString(event.ErrorMessage),
		UpdatedAt:  occurredAt,
	}

	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt = &occurredAt
		model.SentTraceID = optionalString(event.TraceID)
		model.SentSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusCompleted, jobscheduler.StatusSkipped:
		model.CompletedAt = &occurredAt
		model.CompletedTraceID = optionalString(event.TraceID)
		model.CompletedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusFailed:
		model.FailedAt = &occurredAt
		model.FailedTraceID = optionalString(event.TraceID)
		model.FailedSpanID = optionalString(event.SpanID)
	}

	query, args, err := qb.InsertModel("job_dispatches", model, `ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    subject = EXCLUDED.subject,
    payload = EXCLUDED.payload,
    status = CASE
        WHEN EXCLUDED.status = 'sent' AND job_dispatches.status IN ('completed', 'failed', 'skipped') THEN job_dispatches.status
        ELSE EXCLUDED.status
    END,
    sent_at = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_at
        ELSE COALESCE(job_dispatches.sent_at, EXCLUDED.sent_at)
    END,
    completed_at = CASE
        WHEN EXCLUDED.status IN ('completed', 'skipped') THEN EXCLUDED.completed_at
        ELSE job_dispatches.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status IN ('completed', 'skipped') THEN NULL
        ELSE job_dispatches.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        WHEN EXCLUDED.status = 'sent' THEN job_dispatches.last_error
        ELSE NULL
    END,
    sent_trace_id = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_trace_id
        ELSE job_dispatches.sent_trace_id
    END,
    sent_span_id = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_span_id
        ELSE job_dispatches.sent_span_id
    END,
    completed_trace_id = CASE
        WHEN EXCLUDED.status IN ('completed', 'skipped') THEN EXCLUDED.completed_trace_id
        ELSE job_dispatches.completed_trace_id
    END,
    completed_span_id = CASE
        WHEN EXCLUDED.status IN ('completed', 'skipped') THEN EXCLUDED.completed_span_id
        ELSE job_dispatches.completed_span_id
    END,
    failed_trace_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_trace_id
        ELSE job_dispatches.failed_trace_id
    END,
    failed_span_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_span_id
        ELSE job_dispatches.failed_span_id
    END,
    updated_at = EXCLUDED.updated_at,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", dispatchID, event.Status, err)
	}

	return nil
}

func (r *JobDispatchRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]jobscheduler.DispatchEvent, error) {
	conds := []qb.Condition{qb.IsNull("deleted_at")}
	if name := strings.TrimSpace(jobName); name != "" {
		conds = append(conds, qb.Eq("job_name", name))
	}
	query, args, err := qb.Select(
		"dispatch_id", "job_name", "job_path", "subject", "payload::text AS payload", "status", "last_error",
		"sent_trace_id", "sent_span_id", "completed_trace_id", "completed_span_id",
		"failed_trace_id", "failed_span_id", "updated_at", "created_at",
	).
		From("job_dispatches").
		Where(conds...).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list job dispatches: %w", err)
	}

	out := make([]jobscheduler.DispatchEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, dispatchEventFromRow(row))
	}
	return out, nil
}

func dispatchEventFromRow(row jobDispatchTableModel) jobscheduler.DispatchEvent {
	event := jobscheduler.DispatchEvent{
		DispatchID: row.DispatchID,
		JobName:    row.JobName,
		JobPath:    row.JobPath,
		Subject:    row.Subject,
		Status:     jobscheduler.DispatchStatus(row.Status),
		Payload:    unmarshalPayload(row.Payload),
		OccurredAt: row.UpdatedAt.UTC(),
	}
	if row.LastError != nil {
		event.ErrorMessage = *row.LastError
	}

	var traceID, spanID *string
	switch event.Status {
	case jobscheduler.StatusSent:
		traceID, spanID = row.SentTraceID, row.SentSpanID
	case jobscheduler.StatusCompleted, jobscheduler.StatusSkipped:
		traceID, spanID = row.CompletedTraceID, row.CompletedSpanID
	case jobscheduler.StatusFailed:
		traceID, spanID = row.FailedTraceID, row.FailedSpanID
	}
	if traceID != nil {
		event.TraceID = *traceID
	}
	if spanID != nil {
		event.SpanID = *spanID
	}
	return event
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalPayload(raw string) map[string]any {
	out := make(map[string]any)
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
