package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
	StatusSkipped   DispatchStatus = "skipped"
)

// Scheduled job names. They double as dispatch dedup prefixes.
const (
	JobWeeklyDistribution   = "weekly-distribution"
	JobPowerUpSweep         = "powerup-sweep"
	JobPendingVerifications = "pending-verifications"
)

// DispatchEvent is the audit trail of one scheduled job delivery. Subject is
// the entity the job acted on, such as the week being distributed.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	Subject      string
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
