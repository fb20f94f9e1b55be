package bot

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vadimoyt/atlas-bot/internal/monitor"
	"github.com/vadimoyt/atlas-bot/internal/repository"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed prometheus.Counter
	CommandsProcessed prometheus.Counter
	ChecksTotal       *prometheus.CounterVec
	MatchesTotal      prometheus.Counter
	MonitorsActive    prometheus.Gauge
	ErrorsTotal       prometheus.Counter
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atlas_bot_messages_processed_total",
			Help: "Total number of processed messages",
		}),

		CommandsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atlas_bot_commands_processed_total",
			Help: "Total number of processed commands",
		}),

		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_bot_seat_checks_total",
			Help: "Total number of seat availability checks by result",
		}, []string{"result"}),

		MatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atlas_bot_matches_found_total",
			Help: "Total number of departures found with free seats",
		}),

		MonitorsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "atlas_bot_monitors_active",
			Help: "Number of currently running monitor tasks",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atlas_bot_errors_total",
			Help: "Total number of errors",
		}),
	}
}

// checkObserver передает результаты проверок в метрики и счетчики статистики
type checkObserver struct {
	metrics *Metrics
	stats   *repository.Stats
}

func newCheckObserver(metrics *Metrics, stats *repository.Stats) monitor.Observer {
	return &checkObserver{metrics: metrics, stats: stats}
}

func (o *checkObserver) ObserveCheck(chatID int64, result string) {
	if o.metrics != nil {
		o.metrics.ChecksTotal.WithLabelValues(result).Inc()
		switch result {
		case monitor.CheckMatch:
			o.metrics.MatchesTotal.Inc()
		case monitor.CheckError, monitor.CheckNotBuildable:
			o.metrics.ErrorsTotal.Inc()
		}
	}
	if o.stats != nil {
		o.stats.IncrCheck(context.Background(), result == monitor.CheckMatch)
	}
}

func (o *checkObserver) SetActiveMonitors(n int) {
	if o.metrics != nil {
		o.metrics.MonitorsActive.Set(float64(n))
	}
}
