package httpapi

import (
	"net/http"

	"github.com/riskibarqy/questrank/internal/usecase"
)

func (h *Handler) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertAccount")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req upsertAccountRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	acc, err := h.accountService.UpsertProfile(ctx, usecase.UpsertProfileInput{
		UserID:   userID,
		Username: req.Username,
		City:     req.City,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert account failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, accountToDTO(acc))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAccount")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	acc, err := h.accountService.Get(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, accountToDTO(acc))
}

func (h *Handler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AwardPoints")
	defer span.End()

	var req awardPointsRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.pointsService.AwardPoints(ctx, usecase.AwardPointsInput{
		UserID:       req.UserID,
		BasePoints:   req.BasePoints,
		ActivityType: req.ActivityType,
		Scoring:      req.Scoring.toInput(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "award points failed", "user_id", req.UserID, "base_points", req.BasePoints, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, awardToDTO(result))
}

func (h *Handler) CalculatePoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CalculatePoints")
	defer span.End()

	var req calculatePointsRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.pointsService.PreviewScore(ctx, usecase.PreviewScoreInput{
		UserID:     req.UserID,
		BasePoints: req.BasePoints,
		Scoring:    *req.Scoring.toInput(),
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreToDTO(result))
}
