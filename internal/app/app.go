package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/questrank/internal/config"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/questrank/internal/infrastructure/verification"
	"github.com/riskibarqy/questrank/internal/interfaces/httpapi"
	"github.com/riskibarqy/questrank/internal/observability"
	idgen "github.com/riskibarqy/questrank/internal/platform/id"
	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/usecase"
)

const startupTaskTimeout = 30 * time.Second

// NewHTTPServer builds the API server and returns a cleanup func that
// releases the store and rank index connections.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, closeStore, err := openRepositories(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open repositories: %w", err)
	}
	if cfg.CacheEnabled {
		repos = withCache(repos, cfg.CacheTTL)
	}

	index, closeIndex, err := openRankIndex(cfg, logger)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("open rank index: %w", err)
	}

	cleanup := func() {
		if err := closeIndex(); err != nil {
			logger.Warn("close rank index failed", "error", err)
		}
		if err := closeStore(); err != nil {
			logger.Warn("close store failed", "error", err)
		}
	}

	powerUpCatalog, achievementCatalog, err := loadCatalogs(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	recorder := usecase.NewNopRecorder()
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metrics := observability.NewMetrics()
		recorder = metrics
		metricsHandler = metrics.Handler()
	}

	ids := idgen.NewUUIDGenerator()
	verifier := verification.NewClient(verification.ClientConfig{
		BaseURL:        cfg.VerificationServiceURL,
		Timeout:        cfg.VerificationTimeout,
		Logger:         logger,
		CircuitBreaker: cfg.VerificationCircuit,
	})

	accountSvc := usecase.NewAccountService(repos.accounts, index, logger)
	achievementSvc := usecase.NewAchievementService(
		achievementCatalog,
		repos.achievements,
		repos.accounts,
		repos.friendships,
		repos.squads,
		repos.powerUps,
		repos.submissions,
		index,
		recorder,
		logger,
	)
	pointsSvc := usecase.NewPointsService(repos.accounts, repos.powerUps, repos.squads, achievementSvc, index, recorder, logger)
	leaderboardSvc := usecase.NewLeaderboardService(repos.accounts, repos.squads, repos.friendships, index, recorder, logger)
	powerUpSvc := usecase.NewPowerUpService(powerUpCatalog, repos.powerUps, repos.accounts, ids, index, recorder, logger)
	rewardSvc := usecase.NewRewardService(
		repos.rewards,
		repos.accounts,
		repos.squads,
		index,
		usecase.RewardServiceConfig{WorkerCount: cfg.RewardWorkerCount},
		recorder,
		logger,
	)
	submissionSvc := usecase.NewSubmissionService(repos.submissions, verifier, pointsSvc, repos.accounts, ids, recorder, logger)
	socialSvc := usecase.NewSocialService(repos.friendships, repos.accounts)
	squadSvc := usecase.NewSquadService(repos.squads, repos.accounts, ids, logger)

	queue := usecase.NewNoopJobQueue()
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger)
	}
	jobSvc := usecase.NewJobOrchestratorService(
		rewardSvc,
		powerUpSvc,
		submissionSvc,
		queue,
		repos.dispatches,
		usecase.JobOrchestratorConfig{
			PowerUpSweepInterval:        cfg.JobPowerUpSweepInterval,
			PendingVerificationInterval: cfg.JobPendingVerifyInterval,
			PendingVerificationBatch:    cfg.JobPendingVerifyBatch,
		},
		logger,
	)

	runStartupTasks(leaderboardSvc, jobSvc, cfg.QStashEnabled, logger)

	var purchaseLimiter *httpapi.KeyedRateLimiter
	if cfg.PurchaseRateLimitRPS > 0 {
		purchaseLimiter = httpapi.NewKeyedRateLimiter(cfg.PurchaseRateLimitRPS, cfg.PurchaseRateLimitBurst)
	}

	handler := httpapi.NewHandler(httpapi.Services{
		Accounts:     accountSvc,
		Points:       pointsSvc,
		Leaderboards: leaderboardSvc,
		PowerUps:     powerUpSvc,
		Rewards:      rewardSvc,
		Achievements: achievementSvc,
		Submissions:  submissionSvc,
		Social:       socialSvc,
		Squads:       squadSvc,
		Jobs:         jobSvc,
	}, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		MetricsPath:        cfg.MetricsPath,
		MetricsHandler:     metricsHandler,
		PurchaseLimiter:    purchaseLimiter,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func loadCatalogs(cfg config.Config) (powerup.Catalog, achievement.Catalog, error) {
	powerUps := powerup.DefaultCatalog()
	if cfg.PowerUpCatalogPath != "" {
		loaded, err := powerup.LoadCatalogFile(cfg.PowerUpCatalogPath)
		if err != nil {
			return powerup.Catalog{}, achievement.Catalog{}, fmt.Errorf("load power-up catalog: %w", err)
		}
		powerUps = loaded
	}

	achievements := achievement.DefaultCatalog()
	if cfg.AchievementCatalogPath != "" {
		loaded, err := achievement.LoadCatalogFile(cfg.AchievementCatalogPath)
		if err != nil {
			return powerup.Catalog{}, achievement.Catalog{}, fmt.Errorf("load achievement catalog: %w", err)
		}
		achievements = loaded
	}

	return powerUps, achievements, nil
}

// runStartupTasks warms the rank index from storage and, when a job queue is
// configured, seeds the recurring job chains. Failures are logged only: the
// service still answers from storage.
func runStartupTasks(leaderboards *usecase.LeaderboardService, jobs *usecase.JobOrchestratorService, scheduleJobs bool, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTaskTimeout)
	defer cancel()

	indexed, err := leaderboards.RebuildRankIndex(ctx)
	if err != nil {
		logger.Warn("rank index warm-up failed", "error", err)
	} else {
		logger.Info("rank index warmed", "indexed_accounts", indexed)
	}

	if !scheduleJobs {
		return
	}
	if _, err := jobs.Bootstrap(ctx); err != nil {
		logger.Warn("job bootstrap failed", "error", err)
	}
}
