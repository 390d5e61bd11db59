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

package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateKnowledgeEntry validates the text fields of an entry.
// Embedding is not checked; it is populated after loading.
func ValidateKnowledgeEntry(entry *KnowledgeEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}
	if strings.TrimSpace(entry.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyQuestion)
	}
	if strings.TrimSpace(entry.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyAnswer)
	}
	return nil
}

// ValidateLogRecord validates a row of the question log.
//
// Validation rules:
//   - Question must not be empty
//   - Status must be UNANSWERED or ANSWERED
//   - Timestamp must parse with TimestampLayout
//
// Seq and Note are not validated.
func ValidateLogRecord(record *LogRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidLogRecord)
	}
	if record.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLogRecord, ErrEmptyQuestion)
	}
	if !record.Status.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidLogRecord, ErrInvalidStatus, record.Status)
	}
	if _, err := time.ParseInLocation(TimestampLayout, record.Timestamp, time.Local); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogRecord, ErrInvalidTimestamp)
	}
	return nil
}
