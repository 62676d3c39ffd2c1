package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/platform/envutil"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	cartMutations    *CounterVec
	checkouts        *CounterVec
	orderRevenue     *Counter
	orderTransitions *CounterVec
	productDeletes   *CounterVec
	notifications    *CounterVec
	rateLimited      *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// Init returns the process-wide registry, or nil when METRICS_ENABLED is off.
// Every method is nil-safe, so callers never branch on it.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// New builds a registry that is not shared with Init; used by tests and tools.
func New() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	latencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	return &Metrics{
		apiRequests: NewCounterVec("bc_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"bc_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			latencyBuckets,
		),
		apiInflight: NewGauge("bc_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("bc_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("bc_api_requests_error_total", "API requests answered with 5xx."),

		aggregateOps: NewHistogramVec(
			"bc_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation/status.",
			[]string{"op", "status"},
			latencyBuckets,
		),
		aggregateConflicts: NewCounterVec("bc_aggregate_conflicts_total", "Aggregate writes rejected by a concurrency guard.", []string{"op"}),
		aggregateRetries:   NewCounterVec("bc_aggregate_retryable_total", "Aggregate writes failing with a retryable error.", []string{"op"}),

		cartMutations:    NewCounterVec("bc_cart_mutations_total", "Cart mutations by action/outcome.", []string{"action", "outcome"}),
		checkouts:        NewCounterVec("bc_checkouts_total", "Checkout attempts by outcome.", []string{"outcome"}),
		orderRevenue:     NewCounter("bc_order_revenue_total", "Sum of placed order totals."),
		orderTransitions: NewCounterVec("bc_order_transitions_total", "Order status transitions.", []string{"from", "to"}),
		productDeletes:   NewCounterVec("bc_product_deletes_total", "Product delete requests by outcome.", []string{"outcome"}),
		notifications:    NewCounterVec("bc_order_notifications_total", "Order event deliveries by backend/event/status.", []string{"backend", "event", "status"}),
		rateLimited:      NewCounterVec("bc_rate_limited_total", "Requests rejected by a rate limiter.", []string{"route"}),

		pgStats:   NewGaugeVec("bc_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("bc_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("bc_redis_ping_seconds", "Last redis ping latency."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) error {
	if m == nil {
		return nil
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	if log != nil {
		log.Info("metrics server listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		if log != nil {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
		return err
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.aggregateOps, m.aggregateConflicts, m.aggregateRetries,
		m.cartMutations, m.checkouts, m.orderRevenue, m.orderTransitions,
		m.productDeletes, m.notifications, m.rateLimited,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

func (m *Metrics) IncCartMutation(action, outcome string) {
	if m == nil {
		return
	}
	m.cartMutations.Inc(action, outcome)
}

// ObserveCheckout counts a checkout attempt; revenue is added for placed orders only.
func (m *Metrics) ObserveCheckout(outcome string, total float64) {
	if m == nil {
		return
	}
	m.checkouts.Inc(outcome)
	if outcome == "placed" && total > 0 {
		m.orderRevenue.Add(total)
	}
}

func (m *Metrics) IncOrderTransition(from, to string) {
	if m == nil {
		return
	}
	m.orderTransitions.Inc(from, to)
}

func (m *Metrics) IncProductDelete(outcome string) {
	if m == nil {
		return
	}
	m.productDeletes.Inc(outcome)
}

func (m *Metrics) IncNotification(backend, event, status string) {
	if m == nil {
		return
	}
	m.notifications.Inc(backend, event, status)
}

func (m *Metrics) IncRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.Inc(route)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings the shared client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}
