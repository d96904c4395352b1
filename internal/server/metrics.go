package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "imsgen"

// Metrics 使用獨立 registry，避免多個實例重複註冊
type Metrics struct {
	registry *prometheus.Registry

	generations      *prometheus.CounterVec
	numbersGenerated prometheus.Counter
	generateDuration prometheus.Histogram
	saves            *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	historySize      prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "generations_total",
				Help:      "Total script generations.",
			},
			[]string{"status"}, // success, invalid, error
		),
		numbersGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "numbers_generated_total",
				Help:      "Total phone numbers expanded into scripts.",
			},
		),
		generateDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "generate_duration_seconds",
				Help:      "Duration of script generation.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "script_saves_total",
				Help:      "Total script file saves.",
			},
			[]string{"status"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		historySize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "retained_scripts",
				Help:      "Generated scripts currently retained in memory.",
			},
		),
	}
}

// ObserveGeneration 實現 services.Observer
func (m *Metrics) ObserveGeneration(numbers int, d time.Duration, err error) {
	switch {
	case err == nil:
		m.generations.WithLabelValues("success").Inc()
		m.numbersGenerated.Add(float64(numbers))
		m.generateDuration.Observe(d.Seconds())
	case isValidation(err):
		m.generations.WithLabelValues("invalid").Inc()
	default:
		m.generations.WithLabelValues("error").Inc()
	}
}

// ObserveSave 實現 services.Observer
func (m *Metrics) ObserveSave(err error) {
	if err != nil {
		m.saves.WithLabelValues("error").Inc()
		return
	}
	m.saves.WithLabelValues("success").Inc()
}

// Handler 輸出 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware 以 chi 路由樣式統計請求數
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
