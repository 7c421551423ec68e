package powerup

import (
	"time"
)

type Type string

const (
	TypeDoublePoints Type = "double_points"
	TypePerfectShot  Type = "perfect_shot"
	TypeCityExplorer Type = "city_explorer"
	TypeSquadRally   Type = "squad_rally"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDoublePoints, TypePerfectShot, TypeCityExplorer, TypeSquadRally:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusUsed      Status = "used"
)

type PowerUp struct {
	ID              string
	UserID          string
	Type            Type
	Multiplier      float64
	DurationMinutes int
	Status          Status
	ActivatedAt     *time.Time
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ActiveAt reports whether p contributes its multiplier at now. A record whose
// expiry has passed is inactive even before the sweep marks it expired.
func (p PowerUp) ActiveAt(now time.Time) bool {
	return p.Status == StatusActive && p.ExpiresAt != nil && p.ExpiresAt.After(now)
}

// RemainingMinutes rounds up the time left on an active power-up.
func (p PowerUp) RemainingMinutes(now time.Time) int {
	if !p.ActiveAt(now) {
		return 0
	}
	left := p.ExpiresAt.Sub(now)
	minutes := int(left / time.Minute)
	if left%time.Minute != 0 {
		minutes++
	}
	return minutes
}

// Multipliers returns the multipliers of the records active at now.
func Multipliers(items []PowerUp, now time.Time) []float64 {
	out := make([]float64, 0, len(items))
	for _, item := range items {
		if item.ActiveAt(now) {
			out = append(out, item.Multiplier)
		}
	}
	return out
}
