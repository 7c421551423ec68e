package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	RankIndexRedis  = "redis"
	RankIndexMemory = "memory"
	RankIndexNone   = "none"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	SwaggerEnabled     bool

	StoreDriver             string
	DBURL                   string
	DBDisablePreparedBinary bool
	SeedDemoData            bool

	RankIndex      string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	CacheEnabled   bool
	CacheTTL       time.Duration

	VerificationServiceURL string
	VerificationTimeout    time.Duration
	VerificationCircuit    resilience.CircuitBreakerConfig

	InternalJobToken         string
	QStashEnabled            bool
	QStashBaseURL            string
	QStashToken              string
	QStashTargetBaseURL      string
	QStashRetries            int
	QStashCircuit            resilience.CircuitBreakerConfig
	JobPowerUpSweepInterval  time.Duration
	JobPendingVerifyInterval time.Duration
	JobPendingVerifyBatch    int
	RewardWorkerCount        int
	PurchaseRateLimitRPS     float64
	PurchaseRateLimitBurst   int
	AchievementCatalogPath   string
	PowerUpCatalogPath       string

	LogLevel          logging.Level
	LogFile           string
	LogFileMaxSizeMB  int
	LogFileMaxBackups int
	LogFileMaxAgeDays int
	LogFileCompress   bool

	MetricsEnabled bool
	MetricsPath    string

	PprofEnabled bool
	PprofAddr    string

	// Sampling for the contention profiles. 0 leaves them off.
	PprofMutexFraction int
	PprofBlockRate     int

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                strings.TrimSpace(getEnv("SERVICE_NAME", "questrank-api")),
		ServiceVersion:             strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		HTTPAddr:                   strings.TrimSpace(getEnv("HTTP_ADDR", ":8080")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		RedisAddr:                  strings.TrimSpace(getEnv("REDIS_ADDR", "localhost:6379")),
		RedisPassword:              getEnv("REDIS_PASSWORD", ""),
		RedisKeyPrefix:             strings.TrimSpace(getEnv("REDIS_KEY_PREFIX", "questrank")),
		VerificationServiceURL:     strings.TrimSpace(getEnv("VERIFICATION_SERVICE_URL", "")),
		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		QStashBaseURL:              strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io")),
		QStashToken:                strings.TrimSpace(getEnv("QSTASH_TOKEN", "")),
		QStashTargetBaseURL:        strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", "")),
		AchievementCatalogPath:     strings.TrimSpace(getEnv("ACHIEVEMENT_CATALOG_PATH", "")),
		PowerUpCatalogPath:         strings.TrimSpace(getEnv("POWERUP_CATALOG_PATH", "")),
		LogFile:                    strings.TrimSpace(getEnv("LOG_FILE", "")),
		MetricsPath:                strings.TrimSpace(getEnv("METRICS_PATH", "/metrics")),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
	}
	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	if cfg.SwaggerEnabled, err = strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault)); err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	if cfg.ServiceName == "" {
		return Config{}, fmt.Errorf("SERVICE_NAME cannot be empty")
	}
	if cfg.HTTPAddr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = positiveDuration("HTTP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = positiveDuration("HTTP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if err := cfg.loadStorage(); err != nil {
		return Config{}, err
	}
	if err := cfg.loadRankIndex(); err != nil {
		return Config{}, err
	}
	if err := cfg.loadVerification(); err != nil {
		return Config{}, err
	}
	if err := cfg.loadJobs(); err != nil {
		return Config{}, err
	}
	if err := cfg.loadLogging(); err != nil {
		return Config{}, err
	}
	if err := cfg.loadObservability(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) loadStorage() error {
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreDriverPostgres)))
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	var err error
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", true); err != nil {
		return err
	}
	if cfg.SeedDemoData, err = getEnvAsBool("SEED_DEMO_DATA", cfg.AppEnv == EnvDev); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) loadRankIndex() error {
	cfg.RankIndex = strings.ToLower(strings.TrimSpace(getEnv("RANK_INDEX", RankIndexMemory)))
	switch cfg.RankIndex {
	case RankIndexRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RANK_INDEX=%s", RankIndexRedis)
		}
	case RankIndexMemory, RankIndexNone:
	default:
		return fmt.Errorf("invalid RANK_INDEX %q: valid values are %s, %s, %s", cfg.RankIndex, RankIndexRedis, RankIndexMemory, RankIndexNone)
	}

	var err error
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0")
	}
	if cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", true); err != nil {
		return err
	}
	if cfg.CacheTTL, err = positiveDuration("CACHE_TTL", "60s"); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) loadVerification() error {
	var err error
	if cfg.VerificationTimeout, err = positiveDuration("VERIFICATION_TIMEOUT", "30s"); err != nil {
		return err
	}
	if cfg.VerificationCircuit, err = parseCircuitConfig("VERIFICATION_CIRCUIT"); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) loadJobs() error {
	var err error
	if cfg.QStashEnabled, err = getEnvAsBool("QSTASH_ENABLED", false); err != nil {
		return err
	}
	if cfg.QStashRetries, err = getEnvAsInt("QSTASH_RETRIES", 3); err != nil {
		return fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if cfg.QStashRetries < 0 {
		return fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	if cfg.QStashCircuit, err = parseCircuitConfig("QSTASH_CIRCUIT"); err != nil {
		return err
	}
	if cfg.QStashEnabled {
		if cfg.QStashToken == "" {
			return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if cfg.QStashTargetBaseURL == "" {
			return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if cfg.InternalJobToken == "" {
			return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}

	if cfg.JobPowerUpSweepInterval, err = positiveDuration("JOB_POWERUP_SWEEP_INTERVAL", "1m"); err != nil {
		return err
	}
	if cfg.JobPendingVerifyInterval, err = positiveDuration("JOB_PENDING_VERIFICATION_INTERVAL", "5m"); err != nil {
		return err
	}
	if cfg.JobPendingVerifyBatch, err = getEnvAsInt("JOB_PENDING_VERIFICATION_BATCH", 50); err != nil {
		return fmt.Errorf("parse JOB_PENDING_VERIFICATION_BATCH: %w", err)
	}
	if cfg.JobPendingVerifyBatch < 1 {
		return fmt.Errorf("JOB_PENDING_VERIFICATION_BATCH must be >= 1")
	}
	if cfg.RewardWorkerCount, err = getEnvAsInt("REWARD_WORKER_COUNT", 8); err != nil {
		return fmt.Errorf("parse REWARD_WORKER_COUNT: %w", err)
	}
	if cfg.RewardWorkerCount < 1 {
		return fmt.Errorf("REWARD_WORKER_COUNT must be >= 1")
	}

	if cfg.PurchaseRateLimitRPS, err = strconv.ParseFloat(getEnv("PURCHASE_RATE_LIMIT_RPS", "1"), 64); err != nil {
		return fmt.Errorf("parse PURCHASE_RATE_LIMIT_RPS: %w", err)
	}
	if cfg.PurchaseRateLimitRPS < 0 {
		return fmt.Errorf("PURCHASE_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.PurchaseRateLimitBurst, err = getEnvAsInt("PURCHASE_RATE_LIMIT_BURST", 5); err != nil {
		return fmt.Errorf("parse PURCHASE_RATE_LIMIT_BURST: %w", err)
	}
	if cfg.PurchaseRateLimitRPS > 0 && cfg.PurchaseRateLimitBurst < 1 {
		return fmt.Errorf("PURCHASE_RATE_LIMIT_BURST must be >= 1 when PURCHASE_RATE_LIMIT_RPS > 0")
	}
	return nil
}

func (cfg *Config) loadLogging() error {
	var err error
	if cfg.LogLevel, err = logging.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	if cfg.LogFileMaxSizeMB, err = getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100); err != nil {
		return fmt.Errorf("parse LOG_FILE_MAX_SIZE_MB: %w", err)
	}
	if cfg.LogFileMaxBackups, err = getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5); err != nil {
		return fmt.Errorf("parse LOG_FILE_MAX_BACKUPS: %w", err)
	}
	if cfg.LogFileMaxAgeDays, err = getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 14); err != nil {
		return fmt.Errorf("parse LOG_FILE_MAX_AGE_DAYS: %w", err)
	}
	if cfg.LogFileCompress, err = getEnvAsBool("LOG_FILE_COMPRESS", true); err != nil {
		return err
	}
	if cfg.LogFile != "" && cfg.LogFileMaxSizeMB < 1 {
		return fmt.Errorf("LOG_FILE_MAX_SIZE_MB must be >= 1 when LOG_FILE is set")
	}
	return nil
}

func (cfg *Config) loadObservability() error {
	var err error
	if cfg.MetricsEnabled, err = getEnvAsBool("METRICS_ENABLED", true); err != nil {
		return err
	}
	if cfg.MetricsEnabled && !strings.HasPrefix(cfg.MetricsPath, "/") {
		return fmt.Errorf("METRICS_PATH must start with / when METRICS_ENABLED=true")
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	if cfg.PprofMutexFraction, err = getEnvAsInt("PPROF_MUTEX_FRACTION", 0); err != nil {
		return err
	}
	if cfg.PprofBlockRate, err = getEnvAsInt("PPROF_BLOCK_RATE", 0); err != nil {
		return err
	}
	if cfg.PprofMutexFraction < 0 || cfg.PprofBlockRate < 0 {
		return fmt.Errorf("PPROF_MUTEX_FRACTION and PPROF_BLOCK_RATE must be >= 0")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceCaptureRequestBody, err = getEnvAsBool("UPTRACE_CAPTURE_REQUEST_BODY", true); err != nil {
		return err
	}
	if cfg.UptraceRequestBodyMaxBytes, err = getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192); err != nil {
		return fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if cfg.UptraceRequestBodyMaxBytes <= 0 {
		return fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	return nil
}

// parseCircuitConfig reads <prefix>_ENABLED, _FAILURE_THRESHOLD, _OPEN_TIMEOUT
// and _HALF_OPEN_MAX_REQ.
func parseCircuitConfig(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := getEnvAsBool(prefix+"_ENABLED", true)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	failures, err := getEnvAsInt(prefix+"_FAILURE_THRESHOLD", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_FAILURE_THRESHOLD: %w", prefix, err)
	}
	if failures < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_FAILURE_THRESHOLD must be >= 1", prefix)
	}
	openTimeout, err := positiveDuration(prefix+"_OPEN_TIMEOUT", "15s")
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpen, err := getEnvAsInt(prefix+"_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpen < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failures,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpen,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func positiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
