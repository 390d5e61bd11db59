// Package metrics provides a minimal instrumentation interface with a no-op
// default and a Prometheus-backed implementation.
package metrics

import "time"

// Query outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	// ObserveQuery records one answered query and its latency.
	ObserveQuery(outcome string, d time.Duration)
	// IncLogWrite records the outcome of one question log write
	// ("recorded", "duplicate", "spilled", "failed").
	IncLogWrite(outcome string)
	// IncLogRetry records one retry wait of the question log.
	IncLogRetry()
	// ObserveMerge records a merge of pending questions.
	ObserveMerge(merged int, success bool)
	// SetKnowledgeBase publishes the corpus size and degraded flag.
	SetKnowledgeBase(size int, degraded bool)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) ObserveQuery(string, time.Duration) {}
func (n *noopRecorder) IncLogWrite(string)                 {}
func (n *noopRecorder) IncLogRetry()                       {}
func (n *noopRecorder) ObserveMerge(int, bool)             {}
func (n *noopRecorder) SetKnowledgeBase(int, bool)         {}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return &noopRecorder{}
}

// OrNoop returns r, or a no-op recorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return Noop()
	}
	return r
}

// TimeQuery is a helper to time a query. Call the returned func with the
// outcome once the answer is ready.
func TimeQuery(r Recorder) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		OrNoop(r).ObserveQuery(outcome, time.Since(start))
	}
}
