package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/powerup"
)

type PowerUpRepository struct {
	s *Store
}

func (r *PowerUpRepository) Purchase(_ context.Context, p powerup.PowerUp, cost int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.powerUps[p.ID]; exists {
		return 0, fmt.Errorf("power-up %s already exists", p.ID)
	}
	acc, err := r.s.debitLocked(p.UserID, cost)
	if err != nil {
		return 0, err
	}
	r.s.powerUps[p.ID] = clonePowerUp(p)
	return acc.TotalPoints, nil
}

func (r *PowerUpRepository) GetByID(_ context.Context, userID, powerUpID string) (powerup.PowerUp, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.powerUps[powerUpID]
	if !ok || p.UserID != userID {
		return powerup.PowerUp{}, false, nil
	}
	return clonePowerUp(p), true, nil
}

func (r *PowerUpRepository) Activate(_ context.Context, userID, powerUpID string, activatedAt, expiresAt time.Time) (powerup.PowerUp, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.powerUps[powerUpID]
	if !ok || p.UserID != userID || p.Status != powerup.StatusAvailable {
		return powerup.PowerUp{}, false, nil
	}
	p.Status = powerup.StatusActive
	p.ActivatedAt = &activatedAt
	p.ExpiresAt = &expiresAt
	p.UpdatedAt = activatedAt
	r.s.powerUps[powerUpID] = p

	return clonePowerUp(p), true, nil
}

func (r *PowerUpRepository) ListActive(_ context.Context, userID string, now time.Time) ([]powerup.PowerUp, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]powerup.PowerUp, 0)
	for _, p := range r.s.powerUps {
		if p.UserID == userID && p.ActiveAt(now) {
			out = append(out, clonePowerUp(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return out, nil
}

func (r *PowerUpRepository) ListByUser(_ context.Context, userID string) ([]powerup.PowerUp, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]powerup.PowerUp, 0)
	for _, p := range r.s.powerUps {
		if p.UserID != userID {
			continue
		}
		if p.Status == powerup.StatusAvailable || p.Status == powerup.StatusActive {
			out = append(out, clonePowerUp(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PowerUpRepository) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var expired int64
	for id, p := range r.s.powerUps {
		if p.Status != powerup.StatusActive || p.ExpiresAt == nil || p.ExpiresAt.After(now) {
			continue
		}
		p.Status = powerup.StatusExpired
		p.UpdatedAt = now
		r.s.powerUps[id] = p
		expired++
	}
	return expired, nil
}

func (r *PowerUpRepository) CountActivated(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, p := range r.s.powerUps {
		if p.UserID == userID && p.ActivatedAt != nil {
			count++
		}
	}
	return count, nil
}

func clonePowerUp(p powerup.PowerUp) powerup.PowerUp {
	p.ActivatedAt = cloneTime(p.ActivatedAt)
	p.ExpiresAt = cloneTime(p.ExpiresAt)
	return p
}
