// Package metrics 汇总事件总线、调度器、集群同步和 HTTP 接口的 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	_ event.Observer     = (*Recorder)(nil)
	_ scheduler.Observer = (*Recorder)(nil)
	_ cluster.Observer   = (*Recorder)(nil)
)

// Recorder 持有独立的 Registry，多个实例之间互不冲突
type Recorder struct {
	registry *prometheus.Registry

	eventsPublished   *prometheus.CounterVec
	listenerErrors    *prometheus.CounterVec
	asyncDropped      *prometheus.CounterVec
	firings           *prometheus.CounterVec
	activeTimers      prometheus.Gauge
	isMaster          prometheus.Gauge
	notifications     *prometheus.CounterVec
	apiRequests       *prometheus.CounterVec
	apiRequestLatency *prometheus.HistogramVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_events_published_total",
				Help: "Total number of dispatched events by event and mode",
			},
			[]string{"event", "mode"},
		),
		listenerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_listener_errors_total",
				Help: "Total number of dispatches aborted by a failing listener",
			},
			[]string{"event", "mode"},
		),
		asyncDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_async_dropped_total",
				Help: "Total number of async publishes dropped because the queue was full",
			},
			[]string{"event"},
		),
		firings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_scheduler_firings_total",
				Help: "Total number of schedule firings by outcome",
			},
			[]string{"outcome"},
		),
		activeTimers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventhub_active_timers",
				Help: "Number of currently scheduled entries",
			},
		),
		isMaster: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventhub_is_master",
				Help: "Whether this instance holds the master lock (1 = master, 0 = not)",
			},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_cluster_notifications_total",
				Help: "Total number of cluster notifications by type, direction and outcome",
			},
			[]string{"type", "direction", "outcome"},
		),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_api_requests_total",
				Help: "Total number of API requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		apiRequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventhub_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.eventsPublished,
		r.listenerErrors,
		r.asyncDropped,
		r.firings,
		r.activeTimers,
		r.isMaster,
		r.notifications,
		r.apiRequests,
		r.apiRequestLatency,
	)
	return r
}

// Handler 返回 Prometheus HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) EventPublished(event, mode string) {
	r.eventsPublished.WithLabelValues(event, mode).Inc()
}

func (r *Recorder) ListenerFailed(event, mode string) {
	r.listenerErrors.WithLabelValues(event, mode).Inc()
}

func (r *Recorder) AsyncDropped(event string) {
	r.asyncDropped.WithLabelValues(event).Inc()
}

func (r *Recorder) ScheduleFired(outcome string) {
	r.firings.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ActiveTimers(n int) {
	r.activeTimers.Set(float64(n))
}

// MasterChanged 作为选举器的状态回调
func (r *Recorder) MasterChanged(isMaster bool) {
	if isMaster {
		r.isMaster.Set(1)
	} else {
		r.isMaster.Set(0)
	}
}

func (r *Recorder) NotificationSent(t cluster.Type, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.notifications.WithLabelValues(string(t), "sent", outcome).Inc()
}

func (r *Recorder) NotificationReceived(t cluster.Type, outcome string) {
	r.notifications.WithLabelValues(string(t), "received", outcome).Inc()
}

// ObserveRequest 记录一次 API 请求
func (r *Recorder) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	r.apiRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiRequestLatency.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
