package httpapi

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/domain/reward"
	"github.com/riskibarqy/questrank/internal/domain/scoring"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/usecase"
)

type upsertAccountRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	City     string `json:"city" validate:"omitempty,max=100"`
}

type scoringContextRequest struct {
	Rarity         string   `json:"rarity" validate:"omitempty,oneof=common uncommon rare epic legendary"`
	PhotoQuality   *float64 `json:"photoQuality" validate:"omitempty,gte=0,lte=100"`
	DistanceMeters *float64 `json:"distanceMeters" validate:"omitempty,gte=0"`
	FirstVisit     bool     `json:"firstVisit"`
}

type awardPointsRequest struct {
	UserID       string                 `json:"userId" validate:"required"`
	BasePoints   int64                  `json:"basePoints" validate:"required,gt=0"`
	ActivityType string                 `json:"activityType" validate:"omitempty,max=64"`
	Scoring      *scoringContextRequest `json:"scoring" validate:"omitempty"`
}

type calculatePointsRequest struct {
	UserID     string                `json:"userId" validate:"required"`
	BasePoints int64                 `json:"basePoints" validate:"required,gt=0"`
	Scoring    scoringContextRequest `json:"scoring"`
}

type purchasePowerUpRequest struct {
	Type string `json:"type" validate:"required"`
}

type createSquadRequest struct {
	LeaderID string `json:"leaderId" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
	City     string `json:"city" validate:"omitempty,max=100"`
}

type joinSquadRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=leader admin member"`
}

type friendshipRequest struct {
	RequesterID string `json:"requesterId" validate:"required"`
	AddresseeID string `json:"addresseeId" validate:"required,nefield=RequesterID"`
	Status      string `json:"status" validate:"required,oneof=pending accepted rejected blocked"`
}

type submitRequest struct {
	QuestID            string  `json:"questId" validate:"required"`
	POIID              string  `json:"poiId" validate:"required"`
	BasePoints         int64   `json:"basePoints" validate:"required,gt=0"`
	Difficulty         string  `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	PhotoURL           string  `json:"photoUrl" validate:"required"`
	ReferencePhotoURL  string  `json:"referencePhotoUrl"`
	Latitude           float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude          float64 `json:"longitude" validate:"gte=-180,lte=180"`
	VerificationRadius float64 `json:"verificationRadius" validate:"gte=0"`
}

// internalJobRequest mirrors the payload enqueued by the job orchestrator.
type internalJobRequest struct {
	DispatchID   string `json:"dispatch_id"`
	Subject      string `json:"subject"`
	NoReschedule bool   `json:"no_reschedule"`
}

func (req *scoringContextRequest) toInput() *usecase.ScoringContext {
	if req == nil {
		return nil
	}
	rarity := scoring.Rarity(req.Rarity)
	if rarity == "" {
		rarity = scoring.RarityCommon
	}
	return &usecase.ScoringContext{
		Rarity:         rarity,
		PhotoQuality:   req.PhotoQuality,
		DistanceMeters: req.DistanceMeters,
		FirstVisit:     req.FirstVisit,
	}
}

type accountDTO struct {
	UserID             string     `json:"userId"`
	Username           string     `json:"username"`
	City               string     `json:"city,omitempty"`
	TotalPoints        int64      `json:"totalPoints"`
	WeeklyPoints       int64      `json:"weeklyPoints"`
	LastWeekPoints     int64      `json:"lastWeekPoints"`
	CurrentStreak      int        `json:"currentStreak"`
	LongestStreak      int        `json:"longestStreak"`
	LastSubmissionDate *time.Time `json:"lastSubmissionDate,omitempty"`
	WeeklyRank         *int       `json:"weeklyRank,omitempty"`
	LastWeekRank       *int       `json:"lastWeekRank,omitempty"`
	WeekStartDate      *time.Time `json:"weekStartDate,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func accountToDTO(v account.Account) accountDTO {
	return accountDTO{
		UserID:             v.UserID,
		Username:           v.Username,
		City:               v.City,
		TotalPoints:        v.TotalPoints,
		WeeklyPoints:       v.WeeklyPoints,
		LastWeekPoints:     v.LastWeekPoints,
		CurrentStreak:      v.CurrentStreak,
		LongestStreak:      v.LongestStreak,
		LastSubmissionDate: v.LastSubmissionDate,
		WeeklyRank:         v.WeeklyRank,
		LastWeekRank:       v.LastWeekRank,
		WeekStartDate:      v.WeekStartDate,
		CreatedAt:          v.CreatedAt,
	}
}

type bonusDTO struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

func bonusesToDTO(items []scoring.Bonus) []bonusDTO {
	out := make([]bonusDTO, 0, len(items))
	for _, item := range items {
		out = append(out, bonusDTO{Type: item.Type, Name: item.Name, Multiplier: item.Multiplier})
	}
	return out
}

type scoreDTO struct {
	Strategy        string     `json:"strategy"`
	BasePoints      int64      `json:"basePoints"`
	FinalPoints     int64      `json:"finalPoints"`
	TotalMultiplier float64    `json:"totalMultiplier"`
	Breakdown       []bonusDTO `json:"breakdown"`
}

func scoreToDTO(v scoring.Result) scoreDTO {
	return scoreDTO{
		Strategy:        v.Strategy,
		BasePoints:      v.BasePoints,
		FinalPoints:     v.FinalPoints,
		TotalMultiplier: v.TotalMultiplier,
		Breakdown:       bonusesToDTO(v.Breakdown),
	}
}

type achievementDTO struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Icon         string `json:"icon,omitempty"`
	Category     string `json:"category"`
	Requirement  int    `json:"requirement"`
	RewardPoints int64  `json:"rewardPoints"`
}

func achievementToDTO(v achievement.Achievement) achievementDTO {
	return achievementDTO{
		Key:          v.Key,
		Name:         v.Name,
		Description:  v.Description,
		Icon:         v.Icon,
		Category:     string(v.Category),
		Requirement:  v.Requirement,
		RewardPoints: v.RewardPoints,
	}
}

func achievementsToDTO(items []achievement.Achievement) []achievementDTO {
	out := make([]achievementDTO, 0, len(items))
	for _, item := range items {
		out = append(out, achievementToDTO(item))
	}
	return out
}

type unlockedAchievementDTO struct {
	achievementDTO
	UnlockedAt time.Time `json:"unlockedAt"`
}

type awardPointsDTO struct {
	UserID          string           `json:"userId"`
	ActivityType    string           `json:"activityType"`
	BasePoints      int64            `json:"basePoints"`
	PointsEarned    int64            `json:"pointsEarned"`
	Multiplier      float64          `json:"multiplier"`
	Breakdown       []bonusDTO       `json:"breakdown"`
	NewTotal        int64            `json:"newTotal"`
	WeeklyPoints    int64            `json:"weeklyPoints"`
	OldRank         int              `json:"oldRank"`
	NewRank         int              `json:"newRank"`
	RankChange      int              `json:"rankChange"`
	WeeklyRank      int              `json:"weeklyRank"`
	CurrentStreak   int              `json:"currentStreak"`
	WeekRolledOver  bool             `json:"weekRolledOver"`
	NewAchievements []achievementDTO `json:"newAchievements"`
}

func awardToDTO(v usecase.AwardPointsResult) awardPointsDTO {
	return awardPointsDTO{
		UserID:          v.UserID,
		ActivityType:    v.ActivityType,
		BasePoints:      v.BasePoints,
		PointsEarned:    v.PointsEarned,
		Multiplier:      v.Multiplier,
		Breakdown:       bonusesToDTO(v.Breakdown),
		NewTotal:        v.NewTotal,
		WeeklyPoints:    v.WeeklyPoints,
		OldRank:         v.OldRank,
		NewRank:         v.NewRank,
		RankChange:      v.RankChange,
		WeeklyRank:      v.WeeklyRank,
		CurrentStreak:   v.CurrentStreak,
		WeekRolledOver:  v.WeekRolledOver,
		NewAchievements: achievementsToDTO(v.NewAchievements),
	}
}

type leaderboardEntryDTO struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	City          string `json:"city,omitempty"`
	Points        int64  `json:"points"`
	CurrentStreak int    `json:"currentStreak"`
	RankChange    *int   `json:"rankChange,omitempty"`
	IsCurrentUser bool   `json:"isCurrentUser,omitempty"`
}

func entriesToDTO(items []leaderboard.Entry) []leaderboardEntryDTO {
	out := make([]leaderboardEntryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, leaderboardEntryDTO{
			Rank:          item.Rank,
			UserID:        item.UserID,
			Username:      item.Username,
			City:          item.City,
			Points:        item.Points,
			CurrentStreak: item.CurrentStreak,
			RankChange:    item.RankChange,
			IsCurrentUser: item.IsCurrentUser,
		})
	}
	return out
}

type leaderboardDTO struct {
	Scope          string                `json:"scope"`
	City           string                `json:"city,omitempty"`
	Entries        []leaderboardEntryDTO `json:"entries"`
	Total          int                   `json:"total"`
	Limit          int                   `json:"limit"`
	Offset         int                   `json:"offset"`
	WeekStart      *time.Time            `json:"weekStart,omitempty"`
	WeekEnd        *time.Time            `json:"weekEnd,omitempty"`
	TimeUntilReset *int64                `json:"timeUntilReset,omitempty"`
}

func leaderboardToDTO(v usecase.LeaderboardResult) leaderboardDTO {
	out := leaderboardDTO{
		Scope:   string(v.Scope),
		City:    v.City,
		Entries: entriesToDTO(v.Entries),
		Total:   v.Total,
		Limit:   v.Limit,
		Offset:  v.Offset,
	}
	if v.Week != nil {
		start, end := v.Week.Start, v.Week.End
		// Milliseconds, matching what clients render as a countdown.
		untilReset := v.Week.TimeUntilReset.Milliseconds()
		out.WeekStart = &start
		out.WeekEnd = &end
		out.TimeUntilReset = &untilReset
	}
	return out
}

type friendsLeaderboardDTO struct {
	UserID       string                `json:"userId"`
	Type         string                `json:"type"`
	Entries      []leaderboardEntryDTO `json:"entries"`
	TotalFriends int                   `json:"totalFriends"`
}

type squadEntryDTO struct {
	Rank         int    `json:"rank"`
	SquadID      string `json:"squadId"`
	Name         string `json:"name"`
	City         string `json:"city,omitempty"`
	Points       int64  `json:"points"`
	TotalPoints  int64  `json:"totalPoints"`
	WeeklyPoints int64  `json:"weeklyPoints"`
	MemberCount  int    `json:"memberCount"`
}

type squadLeaderboardDTO struct {
	Type    string          `json:"type"`
	Entries []squadEntryDTO `json:"entries"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

func squadLeaderboardToDTO(v usecase.SquadLeaderboardResult) squadLeaderboardDTO {
	out := squadLeaderboardDTO{
		Type:    string(v.Metric),
		Entries: make([]squadEntryDTO, 0, len(v.Entries)),
		Total:   v.Total,
		Limit:   v.Limit,
		Offset:  v.Offset,
	}
	for _, item := range v.Entries {
		out.Entries = append(out.Entries, squadEntryDTO{
			Rank:         item.Rank,
			SquadID:      item.SquadID,
			Name:         item.Name,
			City:         item.City,
			Points:       item.Points,
			TotalPoints:  item.TotalPoints,
			WeeklyPoints: item.WeeklyPoints,
			MemberCount:  item.MemberCount,
		})
	}
	return out
}

type positionDTO struct {
	UserID     string  `json:"userId"`
	Scope      string  `json:"scope"`
	Rank       int     `json:"rank"`
	TotalCount int     `json:"totalCount"`
	Percentile float64 `json:"percentile"`
	Points     int64   `json:"points"`
}

func positionToDTO(v leaderboard.Position) positionDTO {
	return positionDTO{
		UserID:     v.UserID,
		Scope:      string(v.Scope),
		Rank:       v.Rank,
		TotalCount: v.TotalCount,
		Percentile: v.Percentile,
		Points:     v.Points,
	}
}

type powerUpDefinitionDTO struct {
	Type            string  `json:"type"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Cost            int64   `json:"cost"`
	DurationMinutes int     `json:"durationMinutes"`
	Multiplier      float64 `json:"multiplier"`
}

func powerUpDefinitionsToDTO(items []powerup.Definition) []powerUpDefinitionDTO {
	out := make([]powerUpDefinitionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, powerUpDefinitionDTO{
			Type:            string(item.Type),
			Name:            item.Name,
			Description:     item.Description,
			Cost:            item.Cost,
			DurationMinutes: item.DurationMinutes,
			Multiplier:      item.Multiplier,
		})
	}
	return out
}

type powerUpDTO struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Type             string     `json:"type"`
	Name             string     `json:"name,omitempty"`
	Description      string     `json:"description,omitempty"`
	Multiplier       float64    `json:"multiplier"`
	DurationMinutes  int        `json:"durationMinutes"`
	Status           string     `json:"status"`
	ActivatedAt      *time.Time `json:"activatedAt,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	RemainingMinutes int        `json:"remainingMinutes"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func powerUpToDTO(v powerup.PowerUp) powerUpDTO {
	return powerUpDTO{
		ID:              v.ID,
		UserID:          v.UserID,
		Type:            string(v.Type),
		Multiplier:      v.Multiplier,
		DurationMinutes: v.DurationMinutes,
		Status:          string(v.Status),
		ActivatedAt:     v.ActivatedAt,
		ExpiresAt:       v.ExpiresAt,
		CreatedAt:       v.CreatedAt,
	}
}

func powerUpViewToDTO(v usecase.PowerUpView) powerUpDTO {
	out := powerUpToDTO(v.PowerUp)
	out.Name = v.Name
	out.Description = v.Description
	out.RemainingMinutes = v.RemainingMinutes
	return out
}

func powerUpViewsToDTO(items []usecase.PowerUpView) []powerUpDTO {
	out := make([]powerUpDTO, 0, len(items))
	for _, item := range items {
		out = append(out, powerUpViewToDTO(item))
	}
	return out
}

type purchasePowerUpDTO struct {
	PowerUp         powerUpDTO `json:"powerUp"`
	Cost            int64      `json:"cost"`
	RemainingPoints int64      `json:"remainingPoints"`
}

type activePowerUpsDTO struct {
	Items           []powerUpDTO `json:"items"`
	TotalMultiplier float64      `json:"totalMultiplier"`
}

type badgeDTO struct {
	Badge     string    `json:"badge"`
	WeekStart time.Time `json:"weekStart"`
	Rank      int       `json:"rank"`
	Bonus     int64     `json:"bonus"`
	Points    int64     `json:"points"`
	AwardedAt time.Time `json:"awardedAt"`
}

func badgesToDTO(items []reward.BadgeAward) []badgeDTO {
	out := make([]badgeDTO, 0, len(items))
	for _, item := range items {
		out = append(out, badgeDTO{
			Badge:     item.Badge,
			WeekStart: item.WeekStart,
			Rank:      item.Rank,
			Bonus:     item.Bonus,
			Points:    item.Points,
			AwardedAt: item.AwardedAt,
		})
	}
	return out
}

type squadDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	City         string    `json:"city,omitempty"`
	LeaderID     string    `json:"leaderId"`
	TotalPoints  int64     `json:"totalPoints"`
	WeeklyPoints int64     `json:"weeklyPoints"`
	MemberCount  int       `json:"memberCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func squadToDTO(v squad.Squad) squadDTO {
	return squadDTO{
		ID:           v.ID,
		Name:         v.Name,
		City:         v.City,
		LeaderID:     v.LeaderID,
		TotalPoints:  v.TotalPoints,
		WeeklyPoints: v.WeeklyPoints,
		MemberCount:  v.MemberCount,
		CreatedAt:    v.CreatedAt,
	}
}

type friendshipDTO struct {
	RequesterID string    `json:"requesterId"`
	AddresseeID string    `json:"addresseeId"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func friendshipToDTO(v social.Friendship) friendshipDTO {
	return friendshipDTO{
		RequesterID: v.RequesterID,
		AddresseeID: v.AddresseeID,
		Status:      string(v.Status),
		UpdatedAt:   v.UpdatedAt,
	}
}

type submissionDTO struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	QuestID           string     `json:"questId"`
	POIID             string     `json:"poiId"`
	Status            string     `json:"status"`
	BasePoints        int64      `json:"basePoints"`
	Difficulty        string     `json:"difficulty"`
	TimeWindow        string     `json:"timeWindow,omitempty"`
	VerificationScore *float64   `json:"verificationScore,omitempty"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	PointsAwarded     int64      `json:"pointsAwarded"`
	FirstCompletion   bool       `json:"firstCompletion"`
	Attempts          int        `json:"attempts"`
	CreatedAt         time.Time  `json:"createdAt"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty"`
}

func submissionToDTO(v submission.Submission) submissionDTO {
	return submissionDTO{
		ID:                v.ID,
		UserID:            v.UserID,
		QuestID:           v.QuestID,
		POIID:             v.POIID,
		Status:            string(v.Status),
		BasePoints:        v.BasePoints,
		Difficulty:        string(v.Difficulty),
		TimeWindow:        v.TimeWindow,
		VerificationScore: v.VerificationScore,
		RejectionReason:   v.RejectionReason,
		PointsAwarded:     v.PointsAwarded,
		FirstCompletion:   v.FirstCompletion,
		Attempts:          v.Attempts,
		CreatedAt:         v.CreatedAt,
		VerifiedAt:        v.VerifiedAt,
	}
}

type verificationDTO struct {
	Passed          bool           `json:"passed"`
	Score           float64        `json:"score"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
}

type submitDTO struct {
	Submission   submissionDTO    `json:"submission"`
	Verification *verificationDTO `json:"verification,omitempty"`
	Scoring      *scoreDTO        `json:"scoring,omitempty"`
	Award        *awardPointsDTO  `json:"award,omitempty"`
	Pending      bool             `json:"pending"`
}

func submitResultToDTO(v usecase.SubmitResult) submitDTO {
	out := submitDTO{
		Submission: submissionToDTO(v.Submission),
		Pending:    v.Pending,
	}
	if v.Verification != nil {
		out.Verification = &verificationDTO{
			Passed:          v.Verification.Passed,
			Score:           v.Verification.Score,
			RejectionReason: v.Verification.RejectionReason,
			Details:         v.Verification.Details,
		}
	}
	if v.Scoring != nil {
		score := scoreToDTO(*v.Scoring)
		out.Scoring = &score
	}
	if v.Award != nil {
		award := awardToDTO(*v.Award)
		out.Award = &award
	}
	return out
}
