package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "questrank"

// Metrics records business counters on its own registry. It satisfies
// usecase.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	pointsAwarded     *prometheus.CounterVec
	rankQueryDuration *prometheus.HistogramVec
	distributionRuns  *prometheus.CounterVec
	bonusPoints       prometheus.Counter
	powerUps          *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	achievements      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		pointsAwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_awarded_total",
			Help:      "Points credited to accounts by activity type.",
		}, []string{"activity_type"}),
		rankQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rank_query_duration_seconds",
			Help:      "Latency of single-account rank lookups.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"scope", "source"}),
		distributionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reward_distribution_runs_total",
			Help:      "Weekly reward distribution runs by outcome.",
		}, []string{"outcome"}),
		bonusPoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reward_bonus_points_total",
			Help:      "Bonus points paid by weekly reward distributions.",
		}),
		powerUps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "powerups_total",
			Help:      "Power-up purchases and activations.",
		}, []string{"type", "action"}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "verification_results_total",
			Help:      "Submission verification outcomes.",
		}, []string{"outcome"}),
		achievements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked by key.",
		}, []string{"key"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PointsAwarded(activityType string, points int64) {
	if points <= 0 {
		return
	}
	m.pointsAwarded.WithLabelValues(activityType).Add(float64(points))
}

func (m *Metrics) RankQuery(scope, source string, elapsed time.Duration) {
	m.rankQueryDuration.WithLabelValues(scope, source).Observe(elapsed.Seconds())
}

func (m *Metrics) DistributionRun(outcome string, bonusPoints int64) {
	m.distributionRuns.WithLabelValues(outcome).Inc()
	if bonusPoints > 0 {
		m.bonusPoints.Add(float64(bonusPoints))
	}
}

func (m *Metrics) PowerUp(powerUpType, action string) {
	m.powerUps.WithLabelValues(powerUpType, action).Inc()
}

func (m *Metrics) Verification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AchievementUnlocked(key string) {
	m.achievements.WithLabelValues(key).Inc()
}
