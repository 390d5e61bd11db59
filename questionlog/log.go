package questionlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/answerdesk/core"
	"github.com/poiesic/answerdesk/metrics"
)

// Default retry policy.
const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = time.Second
)

// Log records unanswered questions durably. A question is written to the
// store with retries; if the store stays unavailable it is spilled to an
// overflow file and merged back later. Record, MergePending and
// MarkAnswered are serialized against each other.
type Log struct {
	mu sync.Mutex

	store      Store
	overflow   overflowFile
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Log.
type Option func(*Log) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithMaxRetries sets the total number of write attempts before spilling.
// Default is DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(l *Log) error {
		if n < 1 {
			return fmt.Errorf("%w: max retries must be at least 1, got %d", ErrInvalidRetryPolicy, n)
		}
		l.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the fixed wait between attempts.
// Default is DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Log) error {
		if d < 0 {
			return fmt.Errorf("%w: retry delay must not be negative, got %s", ErrInvalidRetryPolicy, d)
		}
		l.retryDelay = d
		return nil
	}
}

// WithOverflowPath sets the overflow file path. By default it is derived
// from the store path with OverflowPath.
func WithOverflowPath(path string) Option {
	return func(l *Log) error {
		l.overflow.path = path
		return nil
	}
}

// WithSleep replaces the wait used between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Log) error {
		if sleep != nil {
			l.sleep = sleep
		}
		return nil
	}
}

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) error {
		if now != nil {
			l.now = now
		}
		return nil
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(l *Log) error {
		l.recorder = metrics.OrNoop(r)
		return nil
	}
}

// New creates a log over store.
func New(store Store, opts ...Option) (*Log, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	l := &Log{
		store:      store,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		sleep:      sleepContext,
		now:        time.Now,
		recorder:   metrics.Noop(),
		logger:     slog.Default(),
	}
	if ps, ok := store.(pathStore); ok {
		l.overflow.path = OverflowPath(ps.Path())
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.overflow.path == "" {
		return nil, ErrOverflowPathRequired
	}
	l.logger = l.logger.With("component", "questionlog")

	return l, nil
}

// Open creates a log kept in the spreadsheet at path, creating the file
// with its header row if needed.
func Open(ctx context.Context, path string, opts ...Option) (*Log, error) {
	store := NewXLSXStore(path)
	l, err := New(store, opts...)
	if err != nil {
		return nil, err
	}
	store.logger = l.logger
	if err := store.Init(ctx); err != nil {
		// The log still works through the overflow file.
		l.logger.Warn("could not initialize question log", "path", path, "err", err)
	}
	return l, nil
}

// OverflowPath returns the overflow file path.
func (l *Log) OverflowPath() string {
	return l.overflow.path
}

// Record logs question as unanswered unless the exact text is already in
// the log. Failed attempts are retried after the retry delay; once the
// budget is spent the question is appended to the overflow file. An error
// is returned only when the overflow write fails too.
func (l *Log) Record(ctx context.Context, question string) (Outcome, error) {
	if strings.TrimSpace(question) == "" {
		return OutcomeFailed, core.ErrEmptyQuestion
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := core.FormatTimestamp(l.now())
	state := StateWriteAttempt
	attempt := 0
	outcome := OutcomeFailed
	var lastErr error

	for state != StateDone {
		switch state {
		case StateWriteAttempt:
			attempt++
			outcome, lastErr = l.attemptWrite(ctx, question, timestamp)
			state = Next(attempt, l.maxRetries, lastErr)
			if lastErr != nil {
				l.logger.Warn("question log write failed",
					"attempt", attempt, "maxAttempts", l.maxRetries,
					"locked", errors.Is(lastErr, ErrLocked), "err", lastErr)
			}

		case StateRetryWait:
			l.recorder.IncLogRetry()
			if err := l.sleep(ctx, l.retryDelay); err != nil {
				l.logger.Warn("retry wait interrupted, spilling", "err", err)
				state = StateSpill
				continue
			}
			state = StateWriteAttempt

		case StateSpill:
			l.logger.Warn("question log unavailable, spilling to overflow file",
				"attempts", attempt, "path", l.overflow.path, "err", lastErr)
			if err := l.overflow.Append(core.PendingRecord{Timestamp: timestamp, Question: question}); err != nil {
				l.logger.Error("overflow write failed, question lost", "question", question, "err", err)
				l.recorder.IncLogWrite(OutcomeFailed.String())
				return OutcomeFailed, fmt.Errorf("%w: %w", ErrSpill, err)
			}
			outcome = OutcomeSpilled
			state = StateDone
		}
	}

	l.recorder.IncLogWrite(outcome.String())
	l.logger.Debug("question handled", "outcome", outcome, "attempts", attempt)
	return outcome, nil
}

func (l *Log) attemptWrite(ctx context.Context, question, timestamp string) (Outcome, error) {
	outcome := OutcomeRecorded
	err := l.store.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		for _, r := range rows {
			if r.Question == question {
				outcome = OutcomeDuplicate
				return rows, false, nil
			}
		}
		return append(rows, core.LogRecord{
			Seq:       len(rows) + 1,
			Question:  question,
			Timestamp: timestamp,
			Status:    core.StatusUnanswered,
		}), true, nil
	})
	return outcome, err
}

// MergePending moves overflow records into the log, keeping their original
// timestamps and skipping questions already present. The overflow file is
// deleted only after the log was saved. On failure the error wraps ErrMerge
// and the overflow file is left as it was. It returns the number of rows
// added.
func (l *Log) MergePending(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.overflow.ReadAll(l.now())
	if err != nil {
		l.recorder.ObserveMerge(0, false)
		l.logger.Error("reading overflow file failed", "path", l.overflow.path, "err", err)
		return 0, fmt.Errorf("%w: %w", ErrMerge, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	added := 0
	err = l.store.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		seen := make(map[string]bool, len(rows)+len(pending))
		for _, r := range rows {
			seen[r.Question] = true
		}
		for _, p := range pending {
			if seen[p.Question] {
				continue
			}
			seen[p.Question] = true
			rows = append(rows, core.LogRecord{
				Seq:       len(rows) + 1,
				Question:  p.Question,
				Timestamp: p.Timestamp,
				Status:    core.StatusUnanswered,
			})
			added++
		}
		return rows, added > 0, nil
	})
	if err != nil {
		l.recorder.ObserveMerge(0, false)
		l.logger.Error("merging pending questions failed", "pending", len(pending), "err", err)
		return 0, fmt.Errorf("%w: %w", ErrMerge, err)
	}

	if err := l.overflow.Remove(); err != nil {
		// Rows are saved; a later merge skips them as duplicates.
		l.recorder.ObserveMerge(added, false)
		l.logger.Error("removing overflow file failed", "path", l.overflow.path, "err", err)
		return added, fmt.Errorf("%w: %w", ErrMerge, err)
	}

	l.recorder.ObserveMerge(added, true)
	l.logger.Info("merged pending questions", "pending", len(pending), "added", added)
	return added, nil
}

// HasPending reports whether an overflow file exists.
func (l *Log) HasPending() bool {
	return l.overflow.Exists()
}

// CountUnanswered returns the number of UNANSWERED rows, or 0 if the log
// cannot be read.
func (l *Log) CountUnanswered(ctx context.Context) int {
	rows, err := l.store.Read(ctx)
	if err != nil {
		l.logger.Warn("counting unanswered questions failed", "err", err)
		return 0
	}
	count := 0
	for _, r := range rows {
		if r.Status == core.StatusUnanswered {
			count++
		}
	}
	return count
}

// ListAll returns every row, or an empty list if the log cannot be read.
func (l *Log) ListAll(ctx context.Context) []core.LogRecord {
	rows, err := l.store.Read(ctx)
	if err != nil {
		l.logger.Warn("listing questions failed", "err", err)
		return []core.LogRecord{}
	}
	if rows == nil {
		return []core.LogRecord{}
	}
	return rows
}

// MarkAnswered sets every row whose question equals question exactly to
// ANSWERED, writing note when it is not empty. It reports whether any row
// changed; failures are logged and reported as false.
func (l *Log) MarkAnswered(ctx context.Context, question, note string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	err := l.store.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		for i := range rows {
			if rows[i].Question != question {
				continue
			}
			rows[i].Status = core.StatusAnswered
			if note != "" {
				rows[i].Note = note
			}
			changed = true
		}
		return rows, changed, nil
	})
	if err != nil {
		l.logger.Warn("marking question answered failed", "question", question, "err", err)
		return false
	}
	return changed
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
