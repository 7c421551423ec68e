package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/submission"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub submission.Submission) error {
	createdAt := sub.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := sub.Status
	if status == "" {
		status = submission.StatusPending
	}
	query, args, err := qb.InsertModel("submissions", submissionInsertModel{
		ID:                 sub.ID,
		UserID:             sub.UserID,
		QuestID:            sub.QuestID,
		POIID:              sub.POIID,
		Status:             string(status),
		BasePoints:         sub.BasePoints,
		Difficulty:         string(sub.Difficulty),
		PhotoURL:           sub.PhotoURL,
		ReferencePhotoURL:  sub.ReferencePhotoURL,
		Latitude:           sub.Latitude,
		Longitude:          sub.Longitude,
		VerificationRadius: sub.VerificationRadius,
		TimeWindow:         sub.TimeWindow,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert submission query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert submission id=%s: %w", sub.ID, err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, submissionID string) (submission.Submission, bool, error) {
	query, args, err := qb.Select(submissionColumns...).
		From("submissions").
		Where(qb.Eq("id", submissionID)).
		ToSQL()
	if err != nil {
		return submission.Submission{}, false, fmt.Errorf("build get submission query: %w", err)
	}

	var row submissionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("get submission: %w", err)
	}
	return submissionFromRow(row), true, nil
}

func (r *SubmissionRepository) Resolve(ctx context.Context, submissionID string, outcome submission.Outcome) (bool, error) {
	verifiedAt := outcome.VerifiedAt.UTC()
	query, args, err := qb.Update("submissions").
		Set("status", string(outcome.Status)).
		Set("verification_score", outcome.Score).
		Set("rejection_reason", outcome.RejectionReason).
		Set("points_awarded", outcome.PointsAwarded).
		Set("verified_at", verifiedAt).
		Set("updated_at", verifiedAt).
		Where(qb.Eq("id", submissionID), qb.Eq("status", string(submission.StatusPending))).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build resolve submission query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("resolve submission id=%s: %w", submissionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve submission rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SubmissionRepository) SetPointsAwarded(ctx context.Context, submissionID string, points int64) error {
	query, args, err := qb.Update("submissions").
		Set("points_awarded", points).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", submissionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set points awarded query: %w", err)
	}
	return r.execOne(ctx, query, args, "set points awarded", submissionID)
}

func (r *SubmissionRepository) Reopen(ctx context.Context, submissionID string) error {
	query, args, err := qb.Update("submissions").
		Set("status", string(submission.StatusPending)).
		Set("first_completion", false).
		SetExpr("verification_score", "NULL").
		SetExpr("verified_at", "NULL").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", submissionID),
			qb.Eq("status", string(submission.StatusApproved)),
			qb.Eq("points_awarded", 0),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build reopen submission query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("reopen submission id=%s: %w", submissionID, err)
	}
	return nil
}

func (r *SubmissionRepository) RecordAttempt(ctx context.Context, submissionID string, at time.Time) error {
	query, args, err := qb.Update("submissions").
		SetExpr("attempts", "attempts + 1").
		Set("updated_at", at.UTC()).
		Where(qb.Eq("id", submissionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build record attempt query: %w", err)
	}
	return r.execOne(ctx, query, args, "record verification attempt", submissionID)
}

func (r *SubmissionRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]submission.Submission, error) {
	query, args, err := qb.Select(submissionColumns...).
		From("submissions").
		Where(
			qb.Eq("status", string(submission.StatusPending)),
			qb.Lt("created_at", createdBefore.UTC()),
		).
		OrderBy("created_at ASC", "id ASC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending submissions query: %w", err)
	}

	var rows []submissionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, submissionFromRow(row))
	}
	return out, nil
}

// ClaimFirstCompletion relies on idx_submissions_quest_first: two racing
// claims for one quest cannot both commit.
func (r *SubmissionRepository) ClaimFirstCompletion(ctx context.Context, questID, submissionID string) (bool, error) {
	query, args, err := qb.Update("submissions").
		Set("first_completion", true).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", submissionID),
			qb.Eq("quest_id", questID),
			qb.Eq("status", string(submission.StatusApproved)),
			qb.Expr("NOT EXISTS (SELECT 1 FROM submissions holder WHERE holder.quest_id = ? AND holder.first_completion AND holder.id <> ?)", questID, submissionID),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build claim first completion query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim first completion id=%s: %w", submissionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim first completion rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SubmissionRepository) CountApprovedByUser(ctx context.Context, userID string) (int, error) {
	return r.countApproved(ctx, "count approved submissions", qb.Eq("user_id", userID))
}

func (r *SubmissionRepository) CountPerfectPhotos(ctx context.Context, userID string, minScore float64) (int, error) {
	return r.countApproved(ctx, "count perfect photos",
		qb.Eq("user_id", userID),
		qb.Gte("verification_score", minScore),
	)
}

func (r *SubmissionRepository) CountApprovedByWindow(ctx context.Context, userID string) (map[string]int, error) {
	query, args, err := qb.Select("time_window", "COUNT(*) AS total").
		From("submissions").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("status", string(submission.StatusApproved)),
			qb.Expr("time_window <> ''"),
		).
		GroupBy("time_window").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count by window query: %w", err)
	}

	var rows []struct {
		TimeWindow string `db:"time_window"`
		Total      int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count approved by window: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.TimeWindow] = row.Total
	}
	return out, nil
}

func (r *SubmissionRepository) countApproved(ctx context.Context, op string, conds ...qb.Condition) (int, error) {
	conds = append(conds, qb.Eq("status", string(submission.StatusApproved)))
	query, args, err := qb.Select("COUNT(*)").
		From("submissions").
		Where(conds...).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build %s query: %w", op, err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (r *SubmissionRepository) execOne(ctx context.Context, query string, args []any, op, submissionID string) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s id=%s: %w", op, submissionID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("submission %s not found", submissionID)
	}
	return nil
}
