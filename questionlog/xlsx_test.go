package questionlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/answerdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func appendRow(rows []core.LogRecord, q string) []core.LogRecord {
	return append(rows, core.LogRecord{
		Question:  q,
		Timestamp: "2026-01-02 03:04:05",
		Status:    core.StatusUnanswered,
	})
}

func TestXLSXStore_InitAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "unanswered.xlsx")
	s := NewXLSXStore(path)

	rows, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "missing log reads as empty")

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx), "init is idempotent")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	header, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	f.Close()
	require.Len(t, header, 1)
	assert.Equal(t, Headers, header[0])

	rows, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXLSXStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewXLSXStore(filepath.Join(t.TempDir(), "q.xlsx"), WithSheet("Log"))

	err := s.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		rows = appendRow(rows, "first")
		rows = appendRow(rows, "second | with pipe")
		return rows, true, nil
	})
	require.NoError(t, err)

	rows, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, core.LogRecord{Seq: 1, Question: "first", Timestamp: "2026-01-02 03:04:05", Status: core.StatusUnanswered}, rows[0])
	assert.Equal(t, 2, rows[1].Seq)
	assert.Equal(t, "second | with pipe", rows[1].Question)

	// unchanged updates do not rewrite the file
	before, err := os.Stat(s.Path())
	require.NoError(t, err)
	err = s.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		return nil, false, nil
	})
	require.NoError(t, err)
	after, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	rows, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// no temporary file is left behind
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestXLSXStore_OwnerFileLocks(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewXLSXStore(filepath.Join(dir, "q.xlsx"))
	require.NoError(t, s.Init(ctx))

	owner := filepath.Join(dir, "~$q.xlsx")
	require.NoError(t, os.WriteFile(owner, []byte("user"), 0644))

	err := s.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		return appendRow(rows, "x"), true, nil
	})
	assert.ErrorIs(t, err, ErrLocked)

	// reads are not blocked by an open editor
	_, err = s.Read(ctx)
	assert.NoError(t, err)

	require.NoError(t, os.Remove(owner))
	err = s.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		return appendRow(rows, "x"), true, nil
	})
	assert.NoError(t, err)
}

func TestXLSXStore_PreservesHumanEdits(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "q.xlsx")

	// a sheet edited by hand: renamed, blank row, foreign status, stale numbers
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range [][]any{
		{"No", "Question", "Timestamp", "Status", "Note"},
		{7, "printer jam", "2026-01-01 10:00:00", "ANSWERED", "replaced toner"},
		{},
		{9, "badge lost", "2026-01-01 11:00:00", "IN PROGRESS", ""},
	} {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	f.Close()

	s := NewXLSXStore(path)
	rows, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Seq)
	assert.Equal(t, core.StatusAnswered, rows[0].Status)
	assert.Equal(t, "replaced toner", rows[0].Note)
	assert.Equal(t, 2, rows[1].Seq)
	assert.Equal(t, core.Status("IN PROGRESS"), rows[1].Status)

	err = s.Update(ctx, func(rows []core.LogRecord) ([]core.LogRecord, bool, error) {
		return appendRow(rows, "new"), true, nil
	})
	require.NoError(t, err)

	rows, err = s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "printer jam", rows[0].Question)
	assert.Equal(t, core.Status("IN PROGRESS"), rows[1].Status)
	assert.Equal(t, "new", rows[2].Question)
}
