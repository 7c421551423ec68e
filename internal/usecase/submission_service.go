package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/scoring"
	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/platform/id"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

const (
	verificationApproved    = "approved"
	verificationRejected    = "rejected"
	verificationUnavailable = "unavailable"

	// pendingRetryGrace keeps the batch retry away from submissions whose
	// first verification may still be in progress.
	pendingRetryGrace = time.Minute
	defaultRetryBatch = 50
)

type SubmitInput struct {
	UserID             string
	QuestID            string
	POIID              string
	BasePoints         int64
	Difficulty         scoring.Difficulty
	PhotoURL           string
	ReferencePhotoURL  string
	Latitude           float64
	Longitude          float64
	VerificationRadius float64
}

type SubmitResult struct {
	Submission   submission.Submission
	Verification *submission.VerificationResult
	Scoring      *scoring.Result
	Award        *AwardPointsResult
	// Pending is set when the verification service could not be reached.
	Pending bool
}

type RetryPendingResult struct {
	Attempted    int
	Approved     int
	Rejected     int
	StillPending int
	Failed       int
}

type pointsAwarder interface {
	AwardPoints(ctx context.Context, input AwardPointsInput) (AwardPointsResult, error)
}

type SubmissionService struct {
	submissions submission.Repository
	verifier    submission.Verifier
	points      pointsAwarder
	accounts    account.Repository
	ids         id.Generator
	recorder    Recorder
	logger      *logging.Logger
	now         func() time.Time
}

func NewSubmissionService(
	submissions submission.Repository,
	verifier submission.Verifier,
	points pointsAwarder,
	accounts account.Repository,
	ids id.Generator,
	recorder Recorder,
	logger *logging.Logger,
) *SubmissionService {
	if recorder == nil {
		recorder = NewNopRecorder()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &SubmissionService{
		submissions: submissions,
		verifier:    verifier,
		points:      points,
		accounts:    accounts,
		ids:         ids,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit stores a quest completion as pending and verifies it right away.
func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Submit", userAttr(input.UserID))
	defer span.End()

	if err := validateSubmitInput(&input); err != nil {
		return SubmitResult{}, err
	}
	acc, err := loadAccount(ctx, s.accounts, input.UserID)
	if err != nil {
		return SubmitResult{}, err
	}

	submissionID, err := s.ids.NewID()
	if err != nil {
		return SubmitResult{}, fmt.Errorf("generate submission id: %w", err)
	}

	now := s.now().UTC()
	window, _ := scoring.WindowAt(now)
	sub := submission.Submission{
		ID:                 submissionID,
		UserID:             acc.UserID,
		QuestID:            input.QuestID,
		POIID:              input.POIID,
		Status:             submission.StatusPending,
		BasePoints:         input.BasePoints,
		Difficulty:         input.Difficulty,
		PhotoURL:           input.PhotoURL,
		ReferencePhotoURL:  input.ReferencePhotoURL,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		VerificationRadius: input.VerificationRadius,
		TimeWindow:         string(window),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return SubmitResult{}, fmt.Errorf("create submission: %w", err)
	}

	return s.verify(ctx, sub)
}

// Verify retries verification of one pending submission. A resolved
// submission is returned unchanged.
func (s *SubmissionService) Verify(ctx context.Context, submissionID string) (SubmitResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Verify")
	defer span.End()

	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if sub.Status != submission.StatusPending {
		return SubmitResult{Submission: sub}, nil
	}
	return s.verify(ctx, sub)
}

func (s *SubmissionService) Get(ctx context.Context, submissionID string) (submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Get")
	defer span.End()

	return s.load(ctx, submissionID)
}

// RetryPending re-verifies a batch of pending submissions, oldest first.
func (s *SubmissionService) RetryPending(ctx context.Context, limit int) (RetryPendingResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.RetryPending")
	defer span.End()

	if limit <= 0 {
		limit = defaultRetryBatch
	}
	items, err := s.submissions.ListPending(ctx, s.now().UTC().Add(-pendingRetryGrace), limit)
	if err != nil {
		return RetryPendingResult{}, fmt.Errorf("list pending submissions: %w", err)
	}

	var result RetryPendingResult
	for _, item := range items {
		result.Attempted++
		out, err := s.verify(ctx, item)
		if err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "retry pending submission failed", "submission_id", item.ID, "error", err)
			continue
		}
		switch {
		case out.Pending:
			result.StillPending++
		case out.Submission.Status == submission.StatusApproved:
			result.Approved++
		case out.Submission.Status == submission.StatusRejected:
			result.Rejected++
		}
	}
	return result, nil
}

func (s *SubmissionService) verify(ctx context.Context, sub submission.Submission) (SubmitResult, error) {
	now := s.now().UTC()
	if err := s.submissions.RecordAttempt(ctx, sub.ID, now); err != nil {
		return SubmitResult{}, fmt.Errorf("record verification attempt: %w", err)
	}
	sub.Attempts++

	if s.verifier == nil {
		s.recorder.Verification(verificationUnavailable)
		return SubmitResult{Submission: sub, Pending: true}, nil
	}

	verdict, err := s.verifier.Verify(ctx, submission.VerificationRequest{
		SubmissionID:       sub.ID,
		POIID:              sub.POIID,
		PhotoURL:           sub.PhotoURL,
		ReferencePhotoURL:  sub.ReferencePhotoURL,
		Latitude:           sub.Latitude,
		Longitude:          sub.Longitude,
		VerificationRadius: sub.VerificationRadius,
	})
	if err != nil {
		s.recorder.Verification(verificationUnavailable)
		s.logger.WarnContext(ctx, "verification unavailable, submission stays pending", "submission_id", sub.ID, "error", err)
		return SubmitResult{Submission: sub, Pending: true}, nil
	}

	if !verdict.Passed {
		return s.reject(ctx, sub, verdict)
	}
	return s.approve(ctx, sub, verdict)
}

func (s *SubmissionService) reject(ctx context.Context, sub submission.Submission, verdict submission.VerificationResult) (SubmitResult, error) {
	now := s.now().UTC()
	reason := strings.TrimSpace(verdict.RejectionReason)
	if reason == "" {
		reason = "verification failed"
	}
	resolved, err := s.submissions.Resolve(ctx, sub.ID, submission.Outcome{
		Status:          submission.StatusRejected,
		Score:           verdict.Score,
		RejectionReason: reason,
		VerifiedAt:      now,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("reject submission: %w", err)
	}
	if !resolved {
		return s.current(ctx, sub.ID)
	}

	s.recorder.Verification(verificationRejected)
	latest, err := s.load(ctx, sub.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Submission: latest, Verification: &verdict}, nil
}

// approve resolves the submission first so a concurrent retry cannot award it
// a second time, claims the quest's first completion, then awards the points.
// AwardPoints only fails before crediting, so any failure here reopens the
// submission for the retry job.
func (s *SubmissionService) approve(ctx context.Context, sub submission.Submission, verdict submission.VerificationResult) (SubmitResult, error) {
	resolved, err := s.submissions.Resolve(ctx, sub.ID, submission.Outcome{
		Status:     submission.StatusApproved,
		Score:      verdict.Score,
		VerifiedAt: s.now().UTC(),
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("approve submission: %w", err)
	}
	if !resolved {
		return s.current(ctx, sub.ID)
	}

	calc, err := s.score(ctx, sub, verdict)
	if err != nil {
		s.reopen(ctx, sub.ID)
		return SubmitResult{}, err
	}

	if calc.FinalPoints <= 0 {
		s.recorder.Verification(verificationApproved)
		latest, err := s.load(ctx, sub.ID)
		if err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Submission: latest, Verification: &verdict, Scoring: &calc}, nil
	}

	award, err := s.points.AwardPoints(ctx, AwardPointsInput{
		UserID:       sub.UserID,
		BasePoints:   calc.FinalPoints,
		ActivityType: ActivityQuestCompletion,
	})
	if err != nil {
		s.reopen(ctx, sub.ID)
		return SubmitResult{}, fmt.Errorf("award submission points: %w", err)
	}
	if err := s.submissions.SetPointsAwarded(ctx, sub.ID, award.PointsEarned); err != nil {
		s.logger.ErrorContext(ctx, "store awarded points failed", "submission_id", sub.ID, "points", award.PointsEarned, "error", err)
	}

	s.recorder.Verification(verificationApproved)
	latest, err := s.load(ctx, sub.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Submission: latest, Verification: &verdict, Scoring: &calc, Award: &award}, nil
}

// score runs SubmissionScoring for an approved submission. The first-completion
// bonus goes to whichever submission wins the quest's claim.
func (s *SubmissionService) score(ctx context.Context, sub submission.Submission, verdict submission.VerificationResult) (scoring.Result, error) {
	first, err := s.submissions.ClaimFirstCompletion(ctx, sub.QuestID, sub.ID)
	if err != nil {
		return scoring.Result{}, fmt.Errorf("claim first completion: %w", err)
	}
	prior := 0
	if !first {
		prior = 1
	}

	acc, err := loadAccount(ctx, s.accounts, sub.UserID)
	if err != nil {
		return scoring.Result{}, err
	}
	calc, err := scoring.SubmissionScoring{}.Calculate(sub.BasePoints, scoring.Input{
		At:                       s.now().UTC(),
		StreakDays:               acc.CurrentStreak,
		Difficulty:               sub.Difficulty,
		VerificationScore:        verdict.Score,
		PriorApprovedCompletions: prior,
	})
	if err != nil {
		return scoring.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return calc, nil
}

func (s *SubmissionService) reopen(ctx context.Context, submissionID string) {
	if err := s.submissions.Reopen(ctx, submissionID); err != nil {
		s.logger.ErrorContext(ctx, "reopen submission after failed award", "submission_id", submissionID, "error", err)
	}
}

func (s *SubmissionService) current(ctx context.Context, submissionID string) (SubmitResult, error) {
	latest, err := s.load(ctx, submissionID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Submission: latest}, nil
}

func (s *SubmissionService) load(ctx context.Context, submissionID string) (submission.Submission, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return submission.Submission{}, fmt.Errorf("%w: submission id is required", ErrInvalidInput)
	}
	sub, ok, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if !ok {
		return submission.Submission{}, fmt.Errorf("%w: submission=%s", ErrNotFound, submissionID)
	}
	return sub, nil
}

func validateSubmitInput(input *SubmitInput) error {
	input.UserID = strings.TrimSpace(input.UserID)
	input.QuestID = strings.TrimSpace(input.QuestID)
	input.POIID = strings.TrimSpace(input.POIID)
	input.PhotoURL = strings.TrimSpace(input.PhotoURL)
	if input.Difficulty == "" {
		input.Difficulty = scoring.DifficultyEasy
	}

	switch {
	case input.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case input.QuestID == "":
		return fmt.Errorf("%w: quest id is required", ErrInvalidInput)
	case input.PhotoURL == "":
		return fmt.Errorf("%w: photo url is required", ErrInvalidInput)
	case input.BasePoints <= 0:
		return fmt.Errorf("%w: base points must be positive", ErrInvalidInput)
	case input.VerificationRadius < 0:
		return fmt.Errorf("%w: verification radius must not be negative", ErrInvalidInput)
	}
	if _, err := scoring.DifficultyMultiplier(input.Difficulty); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
