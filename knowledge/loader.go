package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/answerdesk/core"
	"github.com/xuri/excelize/v2"
)

// Accepted header names, compared case-insensitively after trimming.
var (
	questionHeaders = []string{"question", "질문"}
	answerHeaders   = []string{"answer", "답변"}
)

// LoadFile reads question/answer pairs from an .xlsx or .csv file.
// Rows are returned in file order; rows with an empty question or answer
// are skipped.
func LoadFile(path string) ([]core.KnowledgeEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV reads question/answer pairs from CSV data with a header row.
func ReadCSV(r io.Reader) ([]core.KnowledgeEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return entriesFromRows(rows)
}

func loadXLSX(path string) ([]core.KnowledgeEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrLoad, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return entriesFromRows(rows)
}

func entriesFromRows(rows [][]string) ([]core.KnowledgeEntry, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	qCol := findColumn(header, questionHeaders)
	if qCol < 0 {
		return nil, fmt.Errorf("%w: question", ErrMissingColumn)
	}
	aCol := findColumn(header, answerHeaders)
	if aCol < 0 {
		return nil, fmt.Errorf("%w: answer", ErrMissingColumn)
	}

	entries := make([]core.KnowledgeEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		question := strings.TrimSpace(cell(row, qCol))
		answer := strings.TrimSpace(cell(row, aCol))
		if question == "" || answer == "" {
			continue
		}
		entries = append(entries, core.KnowledgeEntry{
			Question: question,
			Answer:   answer,
		})
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// cell returns row[i], or "" for short rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// IsLoadFailure reports whether err is one of the knowledge source failures.
func IsLoadFailure(err error) bool {
	return errors.Is(err, ErrLoad) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrEmpty) ||
		errors.Is(err, ErrUnsupportedFormat)
}
