package memory

import (
	"context"

	"github.com/riskibarqy/questrank/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	s *Store
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.dispatches[event.DispatchID]
	if !ok {
		r.s.dispatchSeen = append(r.s.dispatchSeen, event.DispatchID)
	} else if existing.Status != jobscheduler.StatusSent && event.Status == jobscheduler.StatusSent {
		return nil
	}
	r.s.dispatches[event.DispatchID] = event
	return nil
}

func (r *JobDispatchRepository) ListRecent(_ context.Context, jobName string, limit int) ([]jobscheduler.DispatchEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]jobscheduler.DispatchEvent, 0)
	for i := len(r.s.dispatchSeen) - 1; i >= 0; i-- {
		event := r.s.dispatches[r.s.dispatchSeen[i]]
		if jobName != "" && event.JobName != jobName {
			continue
		}
		out = append(out, event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
