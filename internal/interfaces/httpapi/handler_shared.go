package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/usecase"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Accounts     *usecase.AccountService
	Points       *usecase.PointsService
	Leaderboards *usecase.LeaderboardService
	PowerUps     *usecase.PowerUpService
	Rewards      *usecase.RewardService
	Achievements *usecase.AchievementService
	Submissions  *usecase.SubmissionService
	Social       *usecase.SocialService
	Squads       *usecase.SquadService
	Jobs         *usecase.JobOrchestratorService
}

type Handler struct {
	accountService     *usecase.AccountService
	pointsService      *usecase.PointsService
	leaderboardService *usecase.LeaderboardService
	powerUpService     *usecase.PowerUpService
	rewardService      *usecase.RewardService
	achievementService *usecase.AchievementService
	submissionService  *usecase.SubmissionService
	socialService      *usecase.SocialService
	squadService       *usecase.SquadService
	jobOrchestrator    *usecase.JobOrchestratorService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		accountService:     services.Accounts,
		pointsService:      services.Points,
		leaderboardService: services.Leaderboards,
		powerUpService:     services.PowerUps,
		rewardService:      services.Rewards,
		achievementService: services.Achievements,
		submissionService:  services.Submissions,
		socialService:      services.Social,
		squadService:       services.Squads,
		jobOrchestrator:    services.Jobs,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a strict JSON body into dst and validates it.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

// decodeOptionalBody accepts an empty body as the zero value.
func decodeOptionalBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func pathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", usecase.ErrInvalidInput, name)
	}
	return value, nil
}

// parsePage reads limit and offset. Absent values fall back to the leaderboard
// defaults; malformed ones are rejected.
func parsePage(r *http.Request) (leaderboard.Page, error) {
	var page leaderboard.Page
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return leaderboard.Page{}, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
		}
		page.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return leaderboard.Page{}, fmt.Errorf("%w: offset must be a non-negative integer", usecase.ErrInvalidInput)
		}
		page.Offset = offset
	}

	return page.Normalize(), nil
}
