package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/submission"
)

type SubmissionRepository struct {
	s *Store
}

func (r *SubmissionRepository) Create(_ context.Context, sub submission.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.submissions[sub.ID]; exists {
		return fmt.Errorf("submission %s already exists", sub.ID)
	}
	r.s.submissions[sub.ID] = cloneSubmission(sub)
	return nil
}

func (r *SubmissionRepository) GetByID(_ context.Context, submissionID string) (submission.Submission, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.submissions[submissionID]
	if !ok {
		return submission.Submission{}, false, nil
	}
	return cloneSubmission(sub), true, nil
}

func (r *SubmissionRepository) Resolve(_ context.Context, submissionID string, outcome submission.Outcome) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.submissions[submissionID]
	if !ok || sub.Status != submission.StatusPending {
		return false, nil
	}
	score := outcome.Score
	verifiedAt := outcome.VerifiedAt
	sub.Status = outcome.Status
	sub.VerificationScore = &score
	sub.RejectionReason = outcome.RejectionReason
	sub.PointsAwarded = outcome.PointsAwarded
	sub.VerifiedAt = &verifiedAt
	sub.UpdatedAt = verifiedAt
	r.s.submissions[submissionID] = sub
	return true, nil
}

func (r *SubmissionRepository) SetPointsAwarded(_ context.Context, submissionID string, points int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.submissions[submissionID]
	if !ok {
		return fmt.Errorf("submission %s not found", submissionID)
	}
	sub.PointsAwarded = points
	sub.UpdatedAt = r.s.timestamp()
	r.s.submissions[submissionID] = sub
	return nil
}

func (r *SubmissionRepository) Reopen(_ context.Context, submissionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.submissions[submissionID]
	if !ok {
		return fmt.Errorf("submission %s not found", submissionID)
	}
	if sub.Status != submission.StatusApproved || sub.PointsAwarded != 0 {
		return nil
	}
	sub.Status = submission.StatusPending
	sub.FirstCompletion = false
	sub.VerificationScore = nil
	sub.VerifiedAt = nil
	sub.UpdatedAt = r.s.timestamp()
	r.s.submissions[submissionID] = sub
	return nil
}

func (r *SubmissionRepository) RecordAttempt(_ context.Context, submissionID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.submissions[submissionID]
	if !ok {
		return fmt.Errorf("submission %s not found", submissionID)
	}
	sub.Attempts++
	sub.UpdatedAt = at
	r.s.submissions[submissionID] = sub
	return nil
}

func (r *SubmissionRepository) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]submission.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]submission.Submission, 0)
	for _, sub := range r.s.submissions {
		if sub.Status == submission.StatusPending && sub.CreatedAt.Before(createdBefore) {
			out = append(out, cloneSubmission(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SubmissionRepository) ClaimFirstCompletion(_ context.Context, questID, submissionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.submissions[submissionID]
	if !ok || sub.Status != submission.StatusApproved || sub.QuestID != questID {
		return false, nil
	}
	if sub.FirstCompletion {
		return true, nil
	}
	for id, other := range r.s.submissions {
		if id != submissionID && other.QuestID == questID && other.FirstCompletion {
			return false, nil
		}
	}
	sub.FirstCompletion = true
	r.s.submissions[submissionID] = sub
	return true, nil
}

func (r *SubmissionRepository) CountApprovedByUser(_ context.Context, userID string) (int, error) {
	return r.count(func(sub submission.Submission) bool {
		return sub.UserID == userID && sub.Status == submission.StatusApproved
	}), nil
}

func (r *SubmissionRepository) CountPerfectPhotos(_ context.Context, userID string, minScore float64) (int, error) {
	return r.count(func(sub submission.Submission) bool {
		return sub.UserID == userID &&
			sub.Status == submission.StatusApproved &&
			sub.VerificationScore != nil &&
			*sub.VerificationScore >= minScore
	}), nil
}

func (r *SubmissionRepository) CountApprovedByWindow(_ context.Context, userID string) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]int)
	for _, sub := range r.s.submissions {
		if sub.UserID == userID && sub.Status == submission.StatusApproved && sub.TimeWindow != "" {
			out[sub.TimeWindow]++
		}
	}
	return out, nil
}

func (r *SubmissionRepository) count(match func(submission.Submission) bool) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, sub := range r.s.submissions {
		if match(sub) {
			count++
		}
	}
	return count
}

func cloneSubmission(sub submission.Submission) submission.Submission {
	sub.VerificationScore = cloneFloat(sub.VerificationScore)
	sub.VerifiedAt = cloneTime(sub.VerifiedAt)
	return sub
}
