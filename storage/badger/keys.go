package badger

import (
	"encoding/binary"

	"github.com/poiesic/answerdesk/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix = "embvec:"
)

// makeEmbeddingKey generates a key for a cached embedding.
// Format: prefix + 8 byte big endian content key
func makeEmbeddingKey(key core.Key) []byte {
	prefixBytes := []byte(embeddingPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(key))
	return buf
}
