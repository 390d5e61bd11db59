package questionlog

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/answerdesk/core"
)

const pendingSeparator = "|"

// OverflowPath derives the overflow file path from the log path by
// replacing its extension with "_temp.txt".
func OverflowPath(logPath string) string {
	return strings.TrimSuffix(logPath, filepath.Ext(logPath)) + "_temp.txt"
}

// FormatPending renders rec as one overflow line without the newline.
// Line breaks inside the question become spaces.
func FormatPending(rec core.PendingRecord) string {
	return rec.Timestamp + pendingSeparator + flatten(rec.Question)
}

// ParsePending splits an overflow line on its first separator. The question
// may itself contain the separator. A line without a separator is a bare
// question stamped with now. ok is false for blank lines.
func ParsePending(line string, now time.Time) (rec core.PendingRecord, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return core.PendingRecord{}, false
	}
	ts, question, found := strings.Cut(line, pendingSeparator)
	if !found {
		return core.PendingRecord{Timestamp: core.FormatTimestamp(now), Question: line}, true
	}
	if strings.TrimSpace(question) == "" {
		return core.PendingRecord{}, false
	}
	ts = strings.TrimSpace(ts)
	if ts == "" {
		ts = core.FormatTimestamp(now)
	}
	return core.PendingRecord{Timestamp: ts, Question: question}, true
}

func flatten(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// overflowFile is the append-only spill target.
type overflowFile struct {
	path string
}

// Append writes one record and syncs it to disk.
func (o overflowFile) Append(rec core.PendingRecord) error {
	if err := os.MkdirAll(filepath.Dir(o.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(FormatPending(rec) + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadAll returns the pending records. A missing file has none.
func (o overflowFile) ReadAll(now time.Time) ([]core.PendingRecord, error) {
	f, err := os.Open(o.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []core.PendingRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if rec, ok := ParsePending(scanner.Text(), now); ok {
			out = append(out, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether the overflow file is present.
func (o overflowFile) Exists() bool {
	_, err := os.Stat(o.path)
	return err == nil
}

// Remove deletes the overflow file. A missing file is not an error.
func (o overflowFile) Remove() error {
	err := os.Remove(o.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
