package questionlog

import (
	"context"

	"github.com/poiesic/answerdesk/core"
)

// UpdateFunc receives the current rows and returns the rows to persist.
// When changed is false nothing is written.
type UpdateFunc func(rows []core.LogRecord) (next []core.LogRecord, changed bool, err error)

// Store is the durable, human-editable question log.
type Store interface {
	// Read returns every row in insertion order. A store that does not
	// exist yet has no rows.
	Read(ctx context.Context) ([]core.LogRecord, error)

	// Update reads the rows, applies fn and persists the result while
	// holding the store's write lock. It returns an error wrapping
	// ErrLocked when the lock is held elsewhere.
	Update(ctx context.Context, fn UpdateFunc) error
}

// pathStore is implemented by file-backed stores so the overflow path can be
// derived from the log path.
type pathStore interface {
	Path() string
}
