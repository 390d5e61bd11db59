package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "answerdesk"

// Prometheus is a Recorder backed by its own Prometheus registry.
type Prometheus struct {
	registry     *prom.Registry
	queryTotal   *prom.CounterVec
	querySeconds *prom.HistogramVec
	logWrites    *prom.CounterVec
	logRetries   prom.Counter
	merges       *prom.CounterVec
	merged       prom.Counter
	kbSize       prom.Gauge
	kbDegraded   prom.Gauge
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a recorder with all collectors registered on a
// fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prom.NewRegistry(),
		queryTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of answered queries by outcome",
		}, []string{"outcome"}),
		querySeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "query_seconds",
			Help:      "Query answer latency in seconds",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		logWrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "question_log_writes_total",
			Help:      "Question log writes by outcome",
		}, []string{"outcome"}),
		logRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "question_log_retries_total",
			Help:      "Question log retry waits",
		}),
		merges: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "question_log_merges_total",
			Help:      "Pending question merges by result",
		}, []string{"success"}),
		merged: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "question_log_merged_questions_total",
			Help:      "Questions moved from the overflow file into the log",
		}),
		kbSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "knowledge_base_entries",
			Help:      "Number of loaded knowledge base entries",
		}),
		kbDegraded: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "knowledge_base_degraded",
			Help:      "1 when corpus embeddings fell back to zero vectors",
		}),
	}

	p.registry.MustRegister(
		p.queryTotal, p.querySeconds,
		p.logWrites, p.logRetries,
		p.merges, p.merged,
		p.kbSize, p.kbDegraded,
	)
	return p
}

func (p *Prometheus) ObserveQuery(outcome string, d time.Duration) {
	p.queryTotal.WithLabelValues(outcome).Inc()
	p.querySeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *Prometheus) IncLogWrite(outcome string) {
	p.logWrites.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) IncLogRetry() {
	p.logRetries.Inc()
}

func (p *Prometheus) ObserveMerge(merged int, success bool) {
	p.merges.WithLabelValues(strconv.FormatBool(success)).Inc()
	if merged > 0 {
		p.merged.Add(float64(merged))
	}
}

func (p *Prometheus) SetKnowledgeBase(size int, degraded bool) {
	p.kbSize.Set(float64(size))
	if degraded {
		p.kbDegraded.Set(1)
	} else {
		p.kbDegraded.Set(0)
	}
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prom.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
