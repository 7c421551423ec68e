package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, cfg RouterConfig) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if cfg.MetricsPath != "" && cfg.MetricsHandler != nil {
		mux.Handle("GET "+cfg.MetricsPath, cfg.MetricsHandler)
	}
	if !cfg.SwaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerAccountRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("PUT /v1/accounts/{userID}", handler.UpsertAccount)
	mux.HandleFunc("GET /v1/accounts/{userID}", handler.GetAccount)
	mux.HandleFunc("POST /v1/points/award", handler.AwardPoints)
	mux.HandleFunc("POST /v1/points/calculate", handler.CalculatePoints)
}

func registerLeaderboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leaderboards/global", handler.GlobalLeaderboard)
	mux.HandleFunc("GET /v1/leaderboards/weekly", handler.WeeklyLeaderboard)
	mux.HandleFunc("GET /v1/leaderboards/cities/{city}", handler.CityLeaderboard)
	mux.HandleFunc("GET /v1/leaderboards/friends/{userID}", handler.FriendsLeaderboard)
	mux.HandleFunc("GET /v1/leaderboards/squads", handler.SquadLeaderboard)
	mux.HandleFunc("GET /v1/users/{userID}/rank", handler.GetUserRank)
}

func registerPowerUpRoutes(mux *http.ServeMux, handler *Handler, purchaseLimiter *KeyedRateLimiter) {
	mux.HandleFunc("GET /v1/powerups/catalog", handler.PowerUpCatalog)
	mux.HandleFunc("GET /v1/users/{userID}/powerups", handler.ListUserPowerUps)
	mux.HandleFunc("GET /v1/users/{userID}/powerups/active", handler.ListActivePowerUps)
	mux.Handle("POST /v1/users/{userID}/powerups", RateLimitByPathValue(purchaseLimiter, "userID", http.HandlerFunc(handler.PurchasePowerUp)))
	mux.HandleFunc("POST /v1/users/{userID}/powerups/{powerUpID}/activate", handler.ActivatePowerUp)
}

func registerAchievementRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/achievements", handler.AchievementCatalog)
	mux.HandleFunc("GET /v1/users/{userID}/achievements", handler.ListUserAchievements)
	mux.HandleFunc("POST /v1/users/{userID}/achievements/check", handler.CheckAchievements)
	mux.HandleFunc("GET /v1/users/{userID}/badges", handler.ListUserBadges)
}

func registerSocialRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/squads", handler.CreateSquad)
	mux.HandleFunc("GET /v1/squads/{squadID}", handler.GetSquad)
	mux.HandleFunc("POST /v1/squads/{squadID}/members", handler.JoinSquad)
	mux.HandleFunc("PUT /v1/friendships", handler.SetFriendship)
}

func registerSubmissionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/users/{userID}/submissions", handler.SubmitQuest)
	mux.HandleFunc("GET /v1/submissions/{submissionID}", handler.GetSubmission)
	mux.HandleFunc("POST /v1/submissions/{submissionID}/verify", handler.VerifySubmission)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/bootstrap", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBootstrapJob)))
	mux.Handle("POST /v1/internal/jobs/weekly-distribution", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunWeeklyDistributionJob)))
	mux.Handle("POST /v1/internal/jobs/powerup-sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPowerUpSweepJob)))
	mux.Handle("POST /v1/internal/jobs/pending-verifications", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPendingVerificationsJob)))
	mux.Handle("POST /v1/internal/rank-index/rebuild", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RebuildRankIndex)))
}
