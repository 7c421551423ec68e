package usecase

import "time"

// Recorder receives business metrics. The Prometheus implementation lives in
// internal/observability.
type Recorder interface {
	PointsAwarded(activityType string, points int64)
	RankQuery(scope, source string, elapsed time.Duration)
	DistributionRun(outcome string, bonusPoints int64)
	PowerUp(powerUpType, action string)
	Verification(outcome string)
	AchievementUnlocked(key string)
}

type nopRecorder struct{}

func NewNopRecorder() Recorder { return nopRecorder{} }

func (nopRecorder) PointsAwarded(string, int64) {}
func (nopRecorder) RankQuery(string, string, time.Duration) {}
func (nopRecorder) DistributionRun(string, int64) {}
func (nopRecorder) PowerUp(string, string) {}
func (nopRecorder) Verification(string) {}
func (nopRecorder) AchievementUnlocked(string) {}
