package httpapi

import (
	"net/http"

	"github.com/riskibarqy/questrank/internal/domain/scoring"
	"github.com/riskibarqy/questrank/internal/usecase"
)

// SubmitQuest answers 202 while the submission waits for the verification
// service.
func (h *Handler) SubmitQuest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitQuest")
	defer span.End()

	userID, err := pathParam(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.submissionService.Submit(ctx, usecase.SubmitInput{
		UserID:             userID,
		QuestID:            req.QuestID,
		POIID:              req.POIID,
		BasePoints:         req.BasePoints,
		Difficulty:         scoring.Difficulty(req.Difficulty),
		PhotoURL:           req.PhotoURL,
		ReferencePhotoURL:  req.ReferencePhotoURL,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		VerificationRadius: req.VerificationRadius,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit quest failed", "user_id", userID, "quest_id", req.QuestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, submitStatus(result, http.StatusCreated), submitResultToDTO(result))
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSubmission")
	defer span.End()

	submissionID, err := pathParam(r, "submissionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.submissionService.Get(ctx, submissionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submissionToDTO(item))
}

func (h *Handler) VerifySubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifySubmission")
	defer span.End()

	submissionID, err := pathParam(r, "submissionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.submissionService.Verify(ctx, submissionID)
	if err != nil {
		h.logger.WarnContext(ctx, "verify submission failed", "submission_id", submissionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, submitStatus(result, http.StatusOK), submitResultToDTO(result))
}

func submitStatus(result usecase.SubmitResult, resolved int) int {
	if result.Pending {
		return http.StatusAccepted
	}
	return resolved
}
