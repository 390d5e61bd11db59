package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	r := Noop()
	assert.NotPanics(t, func() {
		r.ObserveQuery(OutcomeHit, time.Millisecond)
		r.IncLogWrite("recorded")
		r.IncLogRetry()
		r.ObserveMerge(3, true)
		r.SetKnowledgeBase(10, false)
	})
	assert.NotNil(t, OrNoop(nil))
	assert.Equal(t, r, OrNoop(r))
}

func TestTimeQuery(t *testing.T) {
	p := NewPrometheus()
	done := TimeQuery(p)
	done(OutcomeMiss)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.queryTotal.WithLabelValues(OutcomeMiss)))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.queryTotal.WithLabelValues(OutcomeHit)))

	assert.NotPanics(t, func() { TimeQuery(nil)(OutcomeHit) })
}

func TestPrometheus_Counters(t *testing.T) {
	p := NewPrometheus()

	p.IncLogWrite("spilled")
	p.IncLogWrite("spilled")
	p.IncLogRetry()
	p.ObserveMerge(2, true)
	p.ObserveMerge(0, false)
	p.SetKnowledgeBase(42, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.logWrites.WithLabelValues("spilled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.logRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.merges.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.merges.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.merged))
	assert.Equal(t, 42.0, testutil.ToFloat64(p.kbSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.kbDegraded))

	p.SetKnowledgeBase(42, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(p.kbDegraded))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.ObserveQuery(OutcomeHit, 5*time.Millisecond)
	p.SetKnowledgeBase(3, false)

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `answerdesk_queries_total{outcome="hit"} 1`)
	assert.Contains(t, string(body), "answerdesk_knowledge_base_entries 3")
	assert.NotNil(t, p.Registry())
}
