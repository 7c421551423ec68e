package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/questrank/internal/config"
	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/jobscheduler"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/domain/reward"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/infrastructure/rankindex"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/questrank/internal/platform/cache"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

const (
	dbPingTimeout    = 5 * time.Second
	redisPingTimeout = 3 * time.Second
	seedTimeout      = 30 * time.Second
)

type repositories struct {
	accounts     account.Repository
	powerUps     powerup.Repository
	achievements achievement.Repository
	squads       squad.Repository
	friendships  social.Repository
	submissions  submission.Repository
	rewards      reward.Repository
	dispatches   jobscheduler.Repository
}

func openRepositories(cfg config.Config, logger *logging.Logger) (repositories, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		if cfg.SeedDemoData {
			store.LoadSeed(time.Now().UTC())
			logger.Info("memory store seeded with demo data")
		}
		return repositories{
			accounts:     store.Accounts(),
			powerUps:     store.PowerUps(),
			achievements: store.Achievements(),
			squads:       store.Squads(),
			friendships:  store.Friendships(),
			submissions:  store.Submissions(),
			rewards:      store.Rewards(),
			dispatches:   store.JobDispatches(),
		}, func() error { return nil }, nil
	case config.StoreDriverPostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		if cfg.SeedDemoData {
			ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
			err := postgres.BootstrapSeed(ctx, db)
			cancel()
			if err != nil {
				_ = db.Close()
				return repositories{}, nil, err
			}
		}
		return repositories{
			accounts:     postgres.NewAccountRepository(db),
			powerUps:     postgres.NewPowerUpRepository(db),
			achievements: postgres.NewAchievementRepository(db),
			squads:       postgres.NewSquadRepository(db),
			friendships:  postgres.NewFriendshipRepository(db),
			submissions:  postgres.NewSubmissionRepository(db),
			rewards:      postgres.NewRewardRepository(db),
			dispatches:   postgres.NewJobDispatchRepository(db),
		}, db.Close, nil
	default:
		return repositories{}, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(cfg config.Config) (*sqlx.DB, error) {
	target := resolvePostgresTarget(cfg.DBURL, cfg.ServiceName, cfg.DBDisablePreparedBinary)
	opts := []otelsql.Option{
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if target.Name != "" {
		opts = append(opts, otelsql.WithDBName(target.Name))
	}

	db, err := otelsqlx.Open("postgres", target.DSN, opts...)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	otelsql.ReportDBStatsMetrics(db.DB, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// withCache wraps the lookup-heavy repositories in TTL read-through caches.
func withCache(repos repositories, ttl time.Duration) repositories {
	store := basecache.NewStore(ttl)
	repos.squads = cache.NewSquadRepository(repos.squads, store)
	repos.friendships = cache.NewFriendshipRepository(repos.friendships, store)
	repos.achievements = cache.NewAchievementRepository(repos.achievements, store)
	repos.rewards = cache.NewRewardRepository(repos.rewards, store)
	return repos
}

// openRankIndex returns a nil index for RANK_INDEX=none so ranking reads
// fall straight through to storage.
func openRankIndex(cfg config.Config, logger *logging.Logger) (leaderboard.RankIndex, func() error, error) {
	switch cfg.RankIndex {
	case config.RankIndexNone:
		return nil, func() error { return nil }, nil
	case config.RankIndexMemory:
		return rankindex.NewMemory(), func() error { return nil }, nil
	case config.RankIndexRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis rank index unreachable at startup, ranking falls back to storage until it recovers",
				"addr", cfg.RedisAddr,
				"error", err,
			)
		}
		return rankindex.NewRedis(client, cfg.RedisKeyPrefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rank index %q", cfg.RankIndex)
	}
}
