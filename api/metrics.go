package api

import (
	"net/http"
	"regexp"
	"sync"
	"time"
)

// RouteMetrics aggregates request timings for one route pattern
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsSnapshot is the payload returned by the metrics endpoint
type MetricsSnapshot struct {
	Since         time.Time      `json:"since"`
	TotalRequests int64          `json:"totalRequests"`
	TotalErrors   int64          `json:"totalErrors"`
	Routes        []RouteMetrics `json:"routes"`
}

type requestTrace struct {
	method   string
	path     string
	status   int
	start    time.Time
	duration time.Duration
}

// MetricsCollector aggregates per-route request metrics. Traces are queued
// on a buffered channel and dropped when it is full: metrics are best-effort
// and must never slow a request down.
type MetricsCollector struct {
	mu     sync.RWMutex
	routes map[string]*RouteMetrics

	totalRequests int64
	totalErrors   int64
	since         time.Time

	traceCh chan requestTrace
	stopCh  chan struct{}
}

// NewMetricsCollector starts a collector and its background processor
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		routes:  make(map[string]*RouteMetrics),
		since:   time.Now(),
		traceCh: make(chan requestTrace, 1000),
		stopCh:  make(chan struct{}),
	}
	go mc.process()
	return mc
}

// Stop shuts down the background processor
func (mc *MetricsCollector) Stop() {
	close(mc.stopCh)
}

func (mc *MetricsCollector) record(t requestTrace) {
	select {
	case mc.traceCh <- t:
	default:
		// queue full, drop the trace
	}
}

func (mc *MetricsCollector) process() {
	for {
		select {
		case t := <-mc.traceCh:
			mc.aggregate(t)
		case <-mc.stopCh:
			return
		}
	}
}

var objectIDPattern = regexp.MustCompile(`[0-9a-fA-F]{24}`)

// normalizeRoutePath collapses object IDs so all requests for one route
// pattern aggregate together
func normalizeRoutePath(path string) string {
	return objectIDPattern.ReplaceAllString(path, "{id}")
}

func (mc *MetricsCollector) aggregate(t requestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := t.method + " " + normalizeRoutePath(t.path)
	route, ok := mc.routes[key]
	if !ok {
		route = &RouteMetrics{
			Method:  t.method,
			Path:    normalizeRoutePath(t.path),
			MinTime: t.duration,
		}
		mc.routes[key] = route
	}

	route.Count++
	route.TotalTime += t.duration
	route.AvgTime = route.TotalTime / time.Duration(route.Count)
	route.LastRequest = t.start
	if t.duration < route.MinTime {
		route.MinTime = t.duration
	}
	if t.duration > route.MaxTime {
		route.MaxTime = t.duration
	}
	if t.status >= 400 {
		route.ErrorCount++
		mc.totalErrors++
	}
	mc.totalRequests++
}

// Snapshot returns a copy of the aggregated metrics
func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	routes := make([]RouteMetrics, 0, len(mc.routes))
	for _, route := range mc.routes {
		routes = append(routes, *route)
	}
	return MetricsSnapshot{
		Since:         mc.since,
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		Routes:        routes,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records a trace for every request passing through it
func (mc *MetricsCollector) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sr, r)

		mc.record(requestTrace{
			method:   r.Method,
			path:     r.URL.Path,
			status:   sr.status,
			start:    start,
			duration: time.Since(start),
		})
	})
}
