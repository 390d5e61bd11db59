// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"

	"github.com/poiesic/answerdesk/core"
)

// EmbeddingCache stores embedding vectors under content-derived keys.
// Keys are produced by core.KeyFromContent over the model name and the
// normalized text, so a changed model or text never hits a stale vector.
type EmbeddingCache interface {
	// GetVectors returns the cached vectors for the given keys.
	// Missing keys are absent from the result; that is not an error.
	GetVectors(ctx context.Context, keys ...core.Key) (map[core.Key][]float32, error)

	// PutVectors stores vectors by key, replacing existing entries.
	PutVectors(ctx context.Context, vectors map[core.Key][]float32) error

	// Close releases resources held by the cache.
	Close() error
}
