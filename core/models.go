package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// TimestampLayout is the wall-clock format used in the question log and the
// overflow file.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in TimestampLayout using local time.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Key is a content-derived identifier used to address cached data.
type Key uint64

// KeyFromContent generates a deterministic Key from one or more strings using
// BLAKE2b hashing. Parts are separated by a zero byte so ("ab", "c") and
// ("a", "bc") produce different keys.
func KeyFromContent(parts ...string) Key {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	sum := h.Sum(nil)
	return Key(binary.LittleEndian.Uint64(sum))
}

// KnowledgeEntry is a single question/answer pair of the corpus together with
// the embedding of its normalized question.
type KnowledgeEntry struct {
	Question  string
	Answer    string
	Embedding []float32
}

// RankedMatch is a corpus entry scored against a query.
type RankedMatch struct {
	Index      int // Position in the corpus (insertion order)
	Question   string
	Answer     string
	Similarity float64
}

// Status is the lifecycle state of a logged question.
type Status string

const (
	// StatusUnanswered marks a question nobody has handled yet.
	StatusUnanswered Status = "UNANSWERED"
	// StatusAnswered marks a question an operator has resolved.
	StatusAnswered Status = "ANSWERED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusUnanswered || s == StatusAnswered
}

// LogRecord is one row of the durable question log.
// Seq is derived from the row position at read time and is never trusted
// from the stored column.
type LogRecord struct {
	Seq       int    `json:"seq"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
	Status    Status `json:"status"`
	Note      string `json:"note"`
}

// PendingRecord is a question spilled to the overflow file while the durable
// log was unavailable.
type PendingRecord struct {
	Timestamp string
	Question  string
}
