package account

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/period"
)

// Streak is the consecutive-day submission state. Days are UTC calendar days.
type Streak struct {
	Current            int
	Longest            int
	LastSubmissionDate *time.Time
}

// Advance applies one qualifying submission at now. A second submission on the
// same UTC day leaves the state untouched and reports false.
func (s Streak) Advance(now time.Time) (Streak, bool) {
	at := now.UTC()
	if s.LastSubmissionDate == nil {
		s.Current = 1
		s.Longest = max(s.Longest, 1)
		s.LastSubmissionDate = &at
		return s, true
	}

	switch gap := period.DaysBetween(*s.LastSubmissionDate, at); {
	case gap <= 0:
		return s, false
	case gap == 1:
		s.Current++
		s.Longest = max(s.Longest, s.Current)
	default:
		s.Current = 1
		s.Longest = max(s.Longest, 1)
	}
	s.LastSubmissionDate = &at
	return s, true
}
