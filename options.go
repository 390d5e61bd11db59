package answerdesk

import (
	"log/slog"

	"github.com/poiesic/answerdesk/answer"
	"github.com/poiesic/answerdesk/metrics"
	"github.com/poiesic/answerdesk/normalize"
	"github.com/poiesic/answerdesk/questionlog"
)

const defaultPoolSize = 4

type options struct {
	logger      *slog.Logger
	normalizer  *normalize.Normalizer
	composer    *answer.Composer
	questionLog *questionlog.Log
	recorder    metrics.Recorder
	syncLogging bool
	poolSize    int
}

// Option configures a Service.
type Option func(*options) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithNormalizer sets the query normalizer. It must match the normalizer
// the knowledge base was built with. Default is normalize.Default().
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *options) error {
		if n != nil {
			o.normalizer = n
		}
		return nil
	}
}

// WithComposer sets the answer composer.
// Default uses answer.DefaultPolicy().
func WithComposer(c *answer.Composer) Option {
	return func(o *options) error {
		if c != nil {
			o.composer = c
		}
		return nil
	}
}

// WithQuestionLog sets the log receiving unanswered questions.
// Without it misses are not recorded.
func WithQuestionLog(l *questionlog.Log) Option {
	return func(o *options) error {
		o.questionLog = l
		return nil
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) error {
		o.recorder = metrics.OrNoop(r)
		return nil
	}
}

// WithSyncLogging records misses on the calling goroutine instead of the
// background pool. GenerateAnswer then blocks for the whole retry budget
// when the log is locked.
func WithSyncLogging() Option {
	return func(o *options) error {
		o.syncLogging = true
		return nil
	}
}

// WithPoolSize sets the number of background logging workers.
// Default is 4.
func WithPoolSize(size int) Option {
	return func(o *options) error {
		if size < 1 {
			size = 1
		}
		o.poolSize = size
		return nil
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := &options{
		logger:     slog.Default(),
		normalizer: normalize.Default(),
		recorder:   metrics.Noop(),
		poolSize:   defaultPoolSize,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}
