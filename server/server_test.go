package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/answerdesk"
	"github.com/poiesic/answerdesk/ai/mock"
	"github.com/poiesic/answerdesk/answer"
	"github.com/poiesic/answerdesk/core"
	"github.com/poiesic/answerdesk/knowledge"
	"github.com/poiesic/answerdesk/metrics"
	"github.com/poiesic/answerdesk/questionlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	answers  map[string]string
	err      error
	stats    answerdesk.Stats
	rows     []core.LogRecord
	merges   int
	mergeErr error
	marked   map[string]string
	asked    []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		answers: map[string]string{"wifi password": "Ask IT desk"},
		stats:   answerdesk.Stats{KnowledgeBaseSize: 2, LoggingEnabled: true},
		marked:  map[string]string{},
	}
}

func (f *fakeBackend) GenerateAnswer(_ context.Context, q string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, q)
	if f.err != nil {
		return "", f.err
	}
	if a, ok := f.answers[q]; ok {
		return a, nil
	}
	return answer.DefaultNotFoundMessage, nil
}

func (f *fakeBackend) Stats(context.Context) answerdesk.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeBackend) Questions(context.Context) []core.LogRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.LogRecord{}, f.rows...)
}

func (f *fakeBackend) MergePending(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++
	return 0, f.mergeErr
}

func (f *fakeBackend) MarkAnswered(_ context.Context, q, note string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Question == q {
			f.marked[q] = note
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T, backend Backend, opts ...Option) *Server {
	t.Helper()
	s, err := New(backend, opts...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(newFakeBackend(), WithShutdownTimeout(0))
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
		wantAnswer string
	}{
		{"hit", `{"question":"wifi password"}`, http.StatusOK, true, "Ask IT desk"},
		{"miss", `{"question":"cafeteria"}`, http.StatusOK, true, answer.DefaultNotFoundMessage},
		{"trimmed", `{"question":"  wifi password  "}`, http.StatusOK, true, "Ask IT desk"},
		{"blank", `{"question":"   "}`, http.StatusBadRequest, false, ""},
		{"missing field", `{}`, http.StatusBadRequest, false, ""},
		{"malformed", `{"question":`, http.StatusBadRequest, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, newFakeBackend())
			rec, out := do(t, s, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOK, out["success"])
			if tt.wantOK {
				assert.Equal(t, tt.wantAnswer, out["answer"])
			} else {
				assert.NotEmpty(t, out["error"])
			}
		})
	}
}

func TestChat_BackendError(t *testing.T) {
	backend := newFakeBackend()
	backend.err = fmt.Errorf("%w: model unavailable", answerdesk.ErrRetrieval)
	s := newTestServer(t, backend)

	rec, out := do(t, s, http.MethodPost, "/api/chat", `{"question":"wifi password"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "model unavailable")
}

func TestChat_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	rec, _ := do(t, s, http.MethodGet, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(t, backend)

	rec, out := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(2), out["knowledge_base_size"])
	assert.Equal(t, false, out["degraded"])

	backend.stats.Degraded = true
	_, out = do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, "degraded", out["status"])
}

func TestUnanswered_MergesFirst(t *testing.T) {
	backend := newFakeBackend()
	backend.rows = []core.LogRecord{
		{Seq: 1, Question: "cafeteria", Timestamp: "2025-01-02 03:04:05", Status: core.StatusUnanswered},
	}
	backend.stats.Unanswered = 1
	s := newTestServer(t, backend)

	rec, out := do(t, s, http.MethodGet, "/api/unanswered", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, backend.merges)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(1), out["total"])
	assert.Equal(t, float64(1), out["unanswered_count"])

	questions := out["questions"].([]any)
	require.Len(t, questions, 1)
	row := questions[0].(map[string]any)
	assert.Equal(t, "cafeteria", row["question"])
	assert.Equal(t, "UNANSWERED", row["status"])
}

func TestUnanswered_MergeFailureStillLists(t *testing.T) {
	backend := newFakeBackend()
	backend.mergeErr = questionlog.ErrMerge
	backend.stats.PendingOverflow = true
	s := newTestServer(t, backend)

	rec, out := do(t, s, http.MethodGet, "/api/unanswered", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["pending_overflow"])
	assert.Equal(t, []any{}, out["questions"])
}

func TestUnanswered_LoggingDisabled(t *testing.T) {
	backend := newFakeBackend()
	backend.stats.LoggingEnabled = false
	s := newTestServer(t, backend)

	rec, out := do(t, s, http.MethodGet, "/api/unanswered", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Zero(t, backend.merges)
}

func TestMarkAnswered(t *testing.T) {
	backend := newFakeBackend()
	backend.rows = []core.LogRecord{{Seq: 1, Question: "cafeteria", Status: core.StatusUnanswered}}
	s := newTestServer(t, backend)

	rec, out := do(t, s, http.MethodPost, "/api/unanswered/answered", `{"question":"cafeteria","note":"menu posted"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "menu posted", backend.marked["cafeteria"])

	rec, _ = do(t, s, http.MethodPost, "/api/unanswered/answered", `{"question":"parking"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/api/unanswered/answered", `{"note":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	prom := metrics.NewPrometheus()
	prom.ObserveQuery(metrics.OutcomeHit, time.Millisecond)
	s := newTestServer(t, newFakeBackend(), WithMetricsHandler(prom.Handler()))

	rec, _ := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "answerdesk_")

	plain := newTestServer(t, newFakeBackend())
	rec, _ = do(t, plain, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEndToEnd_MissThenList(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewStaticEmbedder(map[string][]float32{
		"WiFi password?": {1, 0},
		"VPN setup":      {0, 1},
		"cafeteria":      {-1, 0},
	})
	kb, err := knowledge.Build(ctx, []core.KnowledgeEntry{
		{Question: "WiFi password?", Answer: "Ask IT desk"},
		{Question: "VPN setup", Answer: "See portal"},
	}, embedder)
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "unanswered.xlsx")
	qlog, err := questionlog.Open(ctx, logPath)
	require.NoError(t, err)
	svc, err := answerdesk.New(kb, embedder, answerdesk.WithQuestionLog(qlog), answerdesk.WithSyncLogging())
	require.NoError(t, err)
	defer svc.Close()

	// A question spilled while the log was held open elsewhere.
	overflow := questionlog.OverflowPath(logPath)
	require.NoError(t, os.WriteFile(overflow, []byte("2025-01-02 03:04:05|printer jam\n"), 0o644))

	s := newTestServer(t, svc)
	rec, out := do(t, s, http.MethodPost, "/api/chat", `{"question":"cafeteria"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, answer.DefaultNotFoundMessage, out["answer"])

	rec, out = do(t, s, http.MethodGet, "/api/unanswered", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), out["total"])
	assert.Equal(t, float64(2), out["unanswered_count"])
	assert.NoFileExists(t, overflow)

	rec, _ = do(t, s, http.MethodPost, "/api/unanswered/answered", `{"question":"printer jam","note":"fixed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.UnansweredCount(ctx))

	_, err = svc.GenerateAnswer(ctx, "")
	assert.True(t, errors.Is(err, core.ErrEmptyQuestion))
}
