package memory

import (
	"sync"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/jobscheduler"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/domain/reward"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/domain/submission"
)

// Store keeps every aggregate behind one lock so operations that touch more
// than one of them (purchase debits, achievement credits) stay atomic, the
// same way the Postgres repositories share a transaction.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]account.Account
	powerUps     map[string]powerup.PowerUp
	unlocked     map[string]map[string]achievement.UserAchievement
	squads       map[string]squad.Squad
	members      map[string]map[string]squad.Member
	friendships  map[string]social.Friendship
	submissions  map[string]submission.Submission
	runs         map[string]reward.Run
	badges       []reward.BadgeAward
	dispatches   map[string]jobscheduler.DispatchEvent
	dispatchSeen []string

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]account.Account),
		powerUps:    make(map[string]powerup.PowerUp),
		unlocked:    make(map[string]map[string]achievement.UserAchievement),
		squads:      make(map[string]squad.Squad),
		members:     make(map[string]map[string]squad.Member),
		friendships: make(map[string]social.Friendship),
		submissions: make(map[string]submission.Submission),
		runs:        make(map[string]reward.Run),
		dispatches:  make(map[string]jobscheduler.DispatchEvent),
		now:         time.Now,
	}
}

func (s *Store) Accounts() *AccountRepository         { return &AccountRepository{s: s} }
func (s *Store) PowerUps() *PowerUpRepository         { return &PowerUpRepository{s: s} }
func (s *Store) Achievements() *AchievementRepository { return &AchievementRepository{s: s} }
func (s *Store) Squads() *SquadRepository             { return &SquadRepository{s: s} }
func (s *Store) Friendships() *FriendshipRepository   { return &FriendshipRepository{s: s} }
func (s *Store) Submissions() *SubmissionRepository   { return &SubmissionRepository{s: s} }
func (s *Store) Rewards() *RewardRepository           { return &RewardRepository{s: s} }
func (s *Store) JobDispatches() *JobDispatchRepository {
	return &JobDispatchRepository{s: s}
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
