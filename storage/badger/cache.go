package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/answerdesk/core"
	"github.com/poiesic/answerdesk/storage"
)

// EmbeddingCache implements storage.EmbeddingCache on BadgerDB.
type EmbeddingCache struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// Option configures an EmbeddingCache.
type Option func(*EmbeddingCache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *EmbeddingCache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewEmbeddingCache creates a cache on an existing backend.
// The caller keeps ownership of the backend.
func NewEmbeddingCache(backend *Backend, opts ...Option) (*EmbeddingCache, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	c := &EmbeddingCache{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "embedding-cache")
	return c, nil
}

// OpenEmbeddingCache opens a cache stored in dir. Closing the cache closes
// the underlying database.
func OpenEmbeddingCache(dir string, opts ...Option) (*EmbeddingCache, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache at %s: %w", dir, err)
	}
	c, err := NewEmbeddingCache(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	c.ownsBackend = true
	return c, nil
}

// GetVectors returns cached vectors for the keys that are present.
func (c *EmbeddingCache) GetVectors(ctx context.Context, keys ...core.Key) (map[core.Key][]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	result := make(map[core.Key][]float32, len(keys))

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeEmbeddingKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				vector, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				result[key] = vector
				return nil
			})
			if err != nil {
				c.logger.Warn("dropping unreadable cache entry", "key", uint64(key), "err", err)
				continue
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cache lookup", "requested", len(keys), "hits", len(result))
	return result, nil
}

// PutVectors stores vectors by key.
func (c *EmbeddingCache) PutVectors(ctx context.Context, vectors map[core.Key][]float32) error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(vectors) == 0 {
		return nil
	}
	return c.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for key, vector := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeEmbeddingKey(key), storage.MarshalVector(vector)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() (int, error) {
	if c.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	return c.backend.CountPrefix([]byte(embeddingPrefix))
}

// Close closes the backend if the cache opened it.
func (c *EmbeddingCache) Close() error {
	if c.ownsBackend && !c.backend.IsClosed() {
		return c.backend.Close()
	}
	return nil
}
