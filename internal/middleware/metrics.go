package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/pureplate/internal/application/analysis"
)

// Metrics stores application metrics. It also receives one observation per
// finished analysis from the orchestrator.
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesFresh      uint64
	AnalysesCached     uint64
	AnalysesDegraded   uint64
	QuotaHits          uint64
	StartTime          time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// ObserveAnalysis implements analysis.Recorder.
func (m *Metrics) ObserveAnalysis(outcome analysis.Outcome, cause string) {
	switch outcome {
	case analysis.OutcomeFresh:
		atomic.AddUint64(&m.AnalysesFresh, 1)
	case analysis.OutcomeCached:
		atomic.AddUint64(&m.AnalysesCached, 1)
	case analysis.OutcomeDegraded:
		atomic.AddUint64(&m.AnalysesDegraded, 1)
		if cause == "quota_exceeded" {
			atomic.AddUint64(&m.QuotaHits, 1)
		}
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]interface{} {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&m.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&m.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&m.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&m.RequestsFailed),
		"analyses_fresh":       atomic.LoadUint64(&m.AnalysesFresh),
		"analyses_cached":      atomic.LoadUint64(&m.AnalysesCached),
		"analyses_degraded":    atomic.LoadUint64(&m.AnalysesDegraded),
		"quota_hits":           atomic.LoadUint64(&m.QuotaHits),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&m.RequestsTotal, 1)
		atomic.AddUint64(&m.RequestsInProgress, 1)
		defer atomic.AddUint64(&m.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&m.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&m.RequestsFailed, 1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.Snapshot())
}
