package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

const metricsNamespace = "menu_dashboard"

// Collector is a prometheus.Collector that also serves as the dashboards' Observer.
type Collector struct {
	mounted     *prometheus.GaugeVec
	changes     *prometheus.CounterVec
	coalesced   *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	staleFetches *prometheus.CounterVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		mounted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "mounted",
				Help:      "The number of currently mounted dashboards.",
			}, []string{"role"},
		),
		changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "change_events_total",
				Help:      "Change notifications received by mounted dashboards.",
			}, []string{"role", "table"},
		),
		coalesced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "coalesced_notifications_total",
				Help:      "Notifications absorbed into an already scheduled refetch.",
			}, []string{"role"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "refetches_total",
				Help:      "Snapshot fetches by outcome.",
			}, []string{"role", "result"},
		),
		staleFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "stale_fetches_total",
				Help:      "Fetch results discarded because a newer snapshot was already applied.",
			}, []string{"role"},
		),
	}
}

func (c *Collector) Mounted(role domain.Role) {
	c.mounted.WithLabelValues(string(role)).Inc()
}

func (c *Collector) Unmounted(role domain.Role) {
	c.mounted.WithLabelValues(string(role)).Dec()
}

func (c *Collector) ChangeReceived(role domain.Role, table string) {
	c.changes.WithLabelValues(string(role), table).Inc()
}

func (c *Collector) NotificationCoalesced(role domain.Role) {
	c.coalesced.WithLabelValues(string(role)).Inc()
}

func (c *Collector) FetchCompleted(role domain.Role, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.fetches.WithLabelValues(string(role), result).Inc()
}

func (c *Collector) StaleFetchDiscarded(role domain.Role) {
	c.staleFetches.WithLabelValues(string(role)).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.mounted.Describe(ch)
	c.changes.Describe(ch)
	c.coalesced.Describe(ch)
	c.fetches.Describe(ch)
	c.staleFetches.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mounted.Collect(ch)
	c.changes.Collect(ch)
	c.coalesced.Collect(ch)
	c.fetches.Collect(ch)
	c.staleFetches.Collect(ch)
}
