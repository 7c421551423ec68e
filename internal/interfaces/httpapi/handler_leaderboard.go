package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/usecase"
)

func (h *Handler) GlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GlobalLeaderboard")
	defer span.End()

	h.writeLeaderboard(w, r.WithContext(ctx), leaderboard.ScopeGlobal, "")
}

func (h *Handler) WeeklyLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WeeklyLeaderboard")
	defer span.End()

	h.writeLeaderboard(w, r.WithContext(ctx), leaderboard.ScopeWeekly, "")
}

func (h *Handler) CityLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CityLeaderboard")
	defer span.End()

	city, err := pathParam(r, "city")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.writeLeaderboard(w, r.WithContext(ctx), leaderboard.ScopeCity, city)
}

func (h *Handler) writeLeaderboard(w http.ResponseWriter, r *http.Request, scope leaderboard.Scope, city string) {
	ctx := r.Context()

	page, err := parsePage(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.leaderboardService.GetLeaderboard(ctx, usecase.LeaderboardQuery{
		Scope:    scope,
		City:     city,
		ViewerID: strings.TrimSpace(r.URL.Query().Get("viewerId")),
		Page:     page,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "scope", scope, "city", city, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardToDTO(result))
}

func (h *Handler) FriendsLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FriendsLeaderboard")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	metric := account.Metric(strings.TrimSpace(r.URL.Query().Get("type")))

	result, err := h.leaderboardService.FriendsLeaderboard(ctx, userID, metric)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, friendsLeaderboardDTO{
		UserID:       result.UserID,
		Type:         string(result.Metric),
		Entries:      entriesToDTO(result.Entries),
		TotalFriends: result.TotalFriends,
	})
}

func (h *Handler) SquadLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SquadLeaderboard")
	defer span.End()

	page, err := parsePage(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	metric := account.Metric(strings.TrimSpace(r.URL.Query().Get("type")))

	result, err := h.leaderboardService.SquadLeaderboard(ctx, metric, page)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadLeaderboardToDTO(result))
}

func (h *Handler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserRank")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	scope := leaderboard.Scope(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope"))))

	position, err := h.leaderboardService.GetUserRank(ctx, userID, scope)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, positionToDTO(position))
}
