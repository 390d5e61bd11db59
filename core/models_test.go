package core

import (
	"testing"
	"time"
)

func TestKeyFromContent(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"test content"},
		},
		{
			name:  "empty string",
			parts: []string{""},
		},
		{
			name:  "model and text",
			parts: []string{"embeddinggemma", "MIS 설치 방법"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1 := KeyFromContent(tt.parts...)
			k2 := KeyFromContent(tt.parts...)

			if k1 != k2 {
				t.Errorf("KeyFromContent() produced different keys for same content: %d vs %d", k1, k2)
			}
		})
	}
}

func TestKeyFromContent_Different(t *testing.T) {
	if KeyFromContent("content1") == KeyFromContent("content2") {
		t.Errorf("KeyFromContent() produced same key for different content")
	}
}

func TestKeyFromContent_PartBoundaries(t *testing.T) {
	if KeyFromContent("ab", "c") == KeyFromContent("a", "bc") {
		t.Errorf("KeyFromContent() ignored part boundaries")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2025, 9, 30, 14, 30, 15, 0, time.Local)
	if got := FormatTimestamp(ts); got != "2025-09-30 14:30:15" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusUnanswered.Valid() || !StatusAnswered.Valid() {
		t.Error("known statuses should be valid")
	}
	if Status("pending").Valid() {
		t.Error("unknown status should be invalid")
	}
}
