// Package metrics keeps process-local counters and renders them in the
// Prometheus text format on /metrics.
package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type counter struct {
	name string
	help string
	v    atomic.Uint64
}

// counters renders in registration order.
var counters []*counter

func newCounter(name, help string) *counter {
	c := &counter{name: name, help: help}
	counters = append(counters, c)
	return c
}

func (c *counter) add(n uint64) { c.v.Add(n) }

var (
	classifications = newCounter("classifications_total", "Total engine classifications")

	reportsStarted   = newCounter("feasibility_report_started_total", "Total feasibility reports started")
	reportsCompleted = newCounter("feasibility_report_completed_total", "Total feasibility reports completed")
	reportsFailed    = newCounter("feasibility_report_failed_total", "Total feasibility reports failed")
	quotaRefunds     = newCounter("report_quota_refunds_total", "Report quota units handed back after a failed create")
	llmRetries       = newCounter("llm_retries_total", "LLM calls retried after a transient failure")

	workerReceived  = newCounter("worker_messages_received_total", "Queue messages received by the worker")
	workerProcessed = newCounter("worker_messages_processed_total", "Queue messages processed by the worker")
	workerFailed    = newCounter("worker_messages_failed_total", "Queue messages that failed processing")
	workerDropped   = newCounter("worker_messages_dropped_total", "Queue messages acked without success because a retry could never succeed")

	knowledgeImported = newCounter("knowledge_entries_imported_total", "Knowledge entries added or merged")

	httpPanics  = newCounter("http_panics_total", "Handler panics recovered")
	rateLimited = newCounter("http_rate_limited_total", "Requests rejected by the rate limiter")

	reportDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

func IncClassifications()        { classifications.add(1) }
func IncReportStarted()          { reportsStarted.add(1) }
func IncReportCompleted()        { reportsCompleted.add(1) }
func IncReportFailed()           { reportsFailed.add(1) }
func IncQuotaRefunds()           { quotaRefunds.add(1) }
func IncLLMRetries()             { llmRetries.add(1) }
func IncWorkerMessagesReceived() { workerReceived.add(1) }

// IncWorkerMessagesProcessed counts messages handled and deleted.
func IncWorkerMessagesProcessed() { workerProcessed.add(1) }

// IncWorkerMessagesFailed counts every message whose handling returned an
// error, dropped or not.
func IncWorkerMessagesFailed() { workerFailed.add(1) }

// IncWorkerMessagesDropped counts failed messages acked anyway.
func IncWorkerMessagesDropped() { workerDropped.add(1) }

func IncHTTPPanics()  { httpPanics.add(1) }
func IncRateLimited() { rateLimited.add(1) }

// AddKnowledgeEntriesImported counts knowledge entries added or merged.
func AddKnowledgeEntriesImported(n int) {
	if n > 0 {
		knowledgeImported.add(uint64(n))
	}
}

// ObserveReportDurationMs records a report duration in milliseconds.
func ObserveReportDurationMs(value float64) {
	reportDuration.Observe(max(value, 0))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4", []byte(Render()))
	}
}

// Render renders every counter, then the report duration histogram.
func Render() string {
	var buf bytes.Buffer
	for _, c := range counters {
		writeHeader(&buf, c.name, c.help, "counter")
		fmt.Fprintf(&buf, "%s %d\n", c.name, c.v.Load())
	}
	writeHistogram(&buf, "feasibility_report_duration_ms", "Feasibility report duration in milliseconds", reportDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu   sync.Mutex
	snap histogramSnapshot
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64 // cumulative
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{snap: histogramSnapshot{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap.count++
	h.snap.sum += value
	for i, bound := range h.snap.buckets {
		if value <= bound {
			h.snap.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.snap
	s.buckets = append([]float64(nil), s.buckets...)
	s.counts = append([]uint64(nil), s.counts...)
	return s
}

func writeHeader(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	writeHeader(buf, name, help, "histogram")
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
