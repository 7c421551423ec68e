package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/questrank/internal/usecase"
)

type jobRunner func(ctx context.Context, input usecase.JobInput) (usecase.JobRunResult, error)

func (h *Handler) RunBootstrapJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBootstrapJob")
	defer span.End()

	result, err := h.jobOrchestrator.Bootstrap(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "bootstrap jobs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunWeeklyDistributionJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWeeklyDistributionJob")
	defer span.End()

	h.runJob(w, r.WithContext(ctx), "weekly distribution", h.jobOrchestrator.RunWeeklyDistribution)
}

func (h *Handler) RunPowerUpSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPowerUpSweepJob")
	defer span.End()

	h.runJob(w, r.WithContext(ctx), "power-up sweep", h.jobOrchestrator.RunPowerUpSweep)
}

func (h *Handler) RunPendingVerificationsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPendingVerificationsJob")
	defer span.End()

	h.runJob(w, r.WithContext(ctx), "pending verifications", h.jobOrchestrator.RunPendingVerifications)
}

func (h *Handler) RebuildRankIndex(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RebuildRankIndex")
	defer span.End()

	indexed, err := h.leaderboardService.RebuildRankIndex(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "rebuild rank index failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"indexed_accounts": indexed})
}

func (h *Handler) runJob(w http.ResponseWriter, r *http.Request, name string, run jobRunner) {
	ctx := r.Context()

	var req internalJobRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := run(ctx, usecase.JobInput{
		DispatchID:   strings.TrimSpace(req.DispatchID),
		NoReschedule: req.NoReschedule,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "internal job failed", "job", name, "dispatch_id", req.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
