package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/questrank/internal/domain/powerup"
)

func (h *Handler) PowerUpCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PowerUpCatalog")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, powerUpDefinitionsToDTO(h.powerUpService.Catalog()))
}

func (h *Handler) ListUserPowerUps(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserPowerUps")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.powerUpService.ListByUser(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, powerUpViewsToDTO(items))
}

func (h *Handler) ListActivePowerUps(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListActivePowerUps")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	active, err := h.powerUpService.Active(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, activePowerUpsDTO{
		Items:           powerUpViewsToDTO(active.Items),
		TotalMultiplier: active.TotalMultiplier,
	})
}

func (h *Handler) PurchasePowerUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PurchasePowerUp")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req purchasePowerUpRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.powerUpService.Purchase(ctx, userID, powerup.Type(strings.TrimSpace(req.Type)))
	if err != nil {
		h.logger.WarnContext(ctx, "purchase power-up failed", "user_id", userID, "type", req.Type, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, purchasePowerUpDTO{
		PowerUp:         powerUpToDTO(result.PowerUp),
		Cost:            result.Cost,
		RemainingPoints: result.RemainingPoints,
	})
}

func (h *Handler) ActivatePowerUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ActivatePowerUp")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	powerUpID, err := pathParam(r, "powerUpID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.powerUpService.Activate(ctx, userID, powerUpID)
	if err != nil {
		h.logger.WarnContext(ctx, "activate power-up failed", "user_id", userID, "power_up_id", powerUpID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, powerUpViewToDTO(view))
}
