package httpapi

import (
	"net/http"

	"github.com/riskibarqy/questrank/internal/platform/logging"
)

// RouterConfig carries the router options that do not belong to a service.
type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
	// MetricsPath mounts MetricsHandler when both are set.
	MetricsPath     string
	MetricsHandler  http.Handler
	PurchaseLimiter *KeyedRateLimiter
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg)
	registerAccountRoutes(mux, handler)
	registerLeaderboardRoutes(mux, handler)
	registerPowerUpRoutes(mux, handler, cfg.PurchaseLimiter)
	registerAchievementRoutes(mux, handler)
	registerSocialRoutes(mux, handler)
	registerSubmissionRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
