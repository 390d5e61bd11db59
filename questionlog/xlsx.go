package questionlog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/answerdesk/core"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name used for new logs.
const DefaultSheet = "Questions"

// Headers is the header row of the log worksheet.
var Headers = []string{"No", "Question", "Timestamp", "Status", "Note"}

// XLSXStore keeps the question log in a spreadsheet so operators can review
// it in an office application.
type XLSXStore struct {
	path   string
	sheet  string
	logger *slog.Logger
}

var _ Store = (*XLSXStore)(nil)

// XLSXOption configures an XLSXStore.
type XLSXOption func(*XLSXStore)

// WithSheet sets the worksheet name used when creating the log.
func WithSheet(name string) XLSXOption {
	return func(s *XLSXStore) {
		if name != "" {
			s.sheet = name
		}
	}
}

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) XLSXOption {
	return func(s *XLSXStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewXLSXStore creates a store for the spreadsheet at path.
func NewXLSXStore(path string, opts ...XLSXOption) *XLSXStore {
	s := &XLSXStore{
		path:   path,
		sheet:  DefaultSheet,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the spreadsheet path.
func (s *XLSXStore) Path() string {
	return s.path
}

// Init creates the directory and an empty log with a header row if the
// spreadsheet does not exist yet.
func (s *XLSXStore) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return classify(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	s.logger.Info("creating question log", "path", s.path)
	return s.write(nil)
}

// Read returns every data row. Reading does not take the write lock.
func (s *XLSXStore) Read(ctx context.Context) ([]core.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// Update applies fn under an exclusive lock on the spreadsheet and saves
// the result through a temporary file renamed into place.
func (s *XLSXStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if owner := s.ownerFile(); owner != "" {
		return fmt.Errorf("%w: %s is open in another application", ErrLocked, filepath.Base(s.path))
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	release, err := acquireLock(s.path)
	if err != nil {
		return classify(err)
	}
	defer release()

	rows, err := s.read()
	if err != nil {
		return err
	}
	next, changed, err := fn(rows)
	if err != nil || !changed {
		return err
	}
	return s.write(next)
}

// ownerFile returns the path of an office lock file ("~$name.xlsx") next to
// the spreadsheet, or "" if there is none.
func (s *XLSXStore) ownerFile() string {
	owner := filepath.Join(filepath.Dir(s.path), "~$"+filepath.Base(s.path))
	if _, err := os.Stat(owner); err == nil {
		return owner
	}
	return ""
}

func (s *XLSXStore) read() ([]core.LogRecord, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, classify(err)
	}
	defer f.Close()

	sheet := s.sheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	var rows []core.LogRecord
	for i, r := range raw {
		if i == 0 && isHeader(r) {
			continue
		}
		if isBlank(r) {
			continue
		}
		rows = append(rows, core.LogRecord{
			Seq:       len(rows) + 1,
			Question:  cell(r, 1),
			Timestamp: cell(r, 2),
			Status:    core.Status(strings.TrimSpace(cell(r, 3))),
			Note:      cell(r, 4),
		})
	}
	return rows, nil
}

func (s *XLSXStore) write(rows []core.LogRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), s.sheet); err != nil {
		return err
	}
	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{i + 1, r.Question, r.Timestamp, string(r.Status), r.Note}
		if err := f.SetSheetRow(s.sheet, "A"+strconv.Itoa(i+2), &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(s.sheet, "B", "B", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(s.sheet, "C", "C", 20); err != nil {
		return err
	}

	ext := filepath.Ext(s.path)
	tmp := filepath.Join(filepath.Dir(s.path), "."+strings.TrimSuffix(filepath.Base(s.path), ext)+".tmp"+ext)
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return classify(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return classify(err)
	}
	return nil
}

// classify maps permission failures, which office applications cause on
// some platforms while holding a file, to ErrLocked.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrLocked) {
		return err
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrLocked, err)
	}
	return err
}

// isHeader accepts the English header and the Korean one used by older logs.
func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	h := strings.TrimSpace(row[1])
	return strings.EqualFold(h, Headers[1]) || h == "질문"
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
