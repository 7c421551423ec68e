package httpapi

import (
	"net/http"
)

func (h *Handler) AchievementCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AchievementCatalog")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, achievementsToDTO(h.achievementService.Catalog()))
}

func (h *Handler) ListUserAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserAchievements")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.achievementService.ListUnlocked(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]unlockedAchievementDTO, 0, len(items))
	for _, item := range items {
		out = append(out, unlockedAchievementDTO{
			achievementDTO: achievementToDTO(item.Achievement),
			UnlockedAt:     item.UnlockedAt,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) CheckAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckAchievements")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	unlocked, err := h.achievementService.CheckAchievements(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "check achievements failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"userId":          userID,
		"newAchievements": achievementsToDTO(unlocked),
	})
}

func (h *Handler) ListUserBadges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserBadges")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.rewardService.Badges(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, badgesToDTO(items))
}
