package httpapi

import (
	"net/http"

	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/usecase"
)

func (h *Handler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSquad")
	defer span.End()

	var req createSquadRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.squadService.CreateSquad(ctx, usecase.CreateSquadInput{
		LeaderID: req.LeaderID,
		Name:     req.Name,
		City:     req.City,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create squad failed", "leader_id", req.LeaderID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, squadToDTO(item))
}

func (h *Handler) GetSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSquad")
	defer span.End()

	squadID, err := pathParam(r, "squadID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.squadService.Get(ctx, squadID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(item))
}

func (h *Handler) JoinSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinSquad")
	defer span.End()

	squadID, err := pathParam(r, "squadID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req joinSquadRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.squadService.JoinSquad(ctx, usecase.JoinSquadInput{
		SquadID: squadID,
		UserID:  req.UserID,
		Role:    squad.Role(req.Role),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join squad failed", "squad_id", squadID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(item))
}

func (h *Handler) SetFriendship(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetFriendship")
	defer span.End()

	var req friendshipRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.socialService.SetFriendship(ctx, usecase.FriendshipInput{
		RequesterID: req.RequesterID,
		AddresseeID: req.AddresseeID,
		Status:      social.Status(req.Status),
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, friendshipToDTO(item))
}
