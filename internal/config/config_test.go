package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/platform/logging"
)

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("QSTASH_ENABLED", "false")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setMemoryEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "questrank-api" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected service defaults: %+v", cfg)
	}
	if cfg.RankIndex != RankIndexMemory {
		t.Fatalf("expected memory rank index by default, got %q", cfg.RankIndex)
	}
	if cfg.VerificationTimeout != 30*time.Second {
		t.Fatalf("unexpected verification timeout %s", cfg.VerificationTimeout)
	}
	if cfg.JobPowerUpSweepInterval != time.Minute || cfg.JobPendingVerifyInterval != 5*time.Minute {
		t.Fatalf("unexpected job intervals %s %s", cfg.JobPowerUpSweepInterval, cfg.JobPendingVerifyInterval)
	}
	if cfg.RewardWorkerCount != 8 {
		t.Fatalf("unexpected reward worker count %d", cfg.RewardWorkerCount)
	}
	if !cfg.VerificationCircuit.Enabled || cfg.VerificationCircuit.FailureThreshold != 5 {
		t.Fatalf("unexpected verification circuit %+v", cfg.VerificationCircuit)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level %v", cfg.LogLevel)
	}
	if !cfg.SeedDemoData {
		t.Fatalf("expected demo seeding enabled in dev")
	}
}

func TestLoad_PostgresRequiresDBURL(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("STORE_DRIVER", StoreDriverPostgres)
	t.Setenv("DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when STORE_DRIVER=postgres without DB_URL")
	}
}

func TestLoad_InvalidStoreDriverAndRankIndex(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown STORE_DRIVER")
	}

	setMemoryEnv(t)
	t.Setenv("RANK_INDEX", "btree")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown RANK_INDEX")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn='https://token@api.uptrace.dev/1'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected UptraceDSN %q", cfg.UptraceDSN)
	}
}

func TestLoad_QStashRequiresTokenTargetAndJobToken(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "qstash-token")
	t.Setenv("QSTASH_TARGET_BASE_URL", "https://api.example.com")
	t.Setenv("INTERNAL_JOB_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QSTASH_ENABLED=true without INTERNAL_JOB_TOKEN")
	}

	t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.QStashEnabled || cfg.QStashRetries != 3 {
		t.Fatalf("unexpected qstash config %+v", cfg)
	}
}

func TestLoad_CircuitConfigParsing(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("VERIFICATION_CIRCUIT_ENABLED", "false")
	t.Setenv("VERIFICATION_CIRCUIT_FAILURE_THRESHOLD", "3")
	t.Setenv("VERIFICATION_CIRCUIT_OPEN_TIMEOUT", "45s")
	t.Setenv("VERIFICATION_CIRCUIT_HALF_OPEN_MAX_REQ", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	got := cfg.VerificationCircuit
	if got.Enabled || got.FailureThreshold != 3 || got.OpenTimeout != 45*time.Second || got.HalfOpenMaxReq != 4 {
		t.Fatalf("unexpected circuit config %+v", got)
	}

	t.Setenv("VERIFICATION_CIRCUIT_FAILURE_THRESHOLD", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive failure threshold")
	}
}

func TestLoad_StrictParsing(t *testing.T) {
	cases := map[string]string{
		"CACHE_TTL":               "-1s",
		"CACHE_ENABLED":           "maybe",
		"REWARD_WORKER_COUNT":     "0",
		"PURCHASE_RATE_LIMIT_RPS": "fast",
		"LOG_LEVEL":               "verbose",
		"HTTP_READ_TIMEOUT":       "10",
		"REDIS_DB":                "-2",
		"PPROF_MUTEX_FRACTION":    "-1",
		"PPROF_BLOCK_RATE":        "often",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setMemoryEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoad_LogFileSettings(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/var/log/questrank/api.log")
	t.Setenv("LOG_FILE_MAX_SIZE_MB", "50")
	t.Setenv("LOG_FILE_COMPRESS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != logging.LevelDebug || cfg.LogFileMaxSizeMB != 50 || cfg.LogFileCompress {
		t.Fatalf("unexpected log settings %+v", cfg)
	}
}
