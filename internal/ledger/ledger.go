package ledger

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
)

const sheetName = "Job Postings"

// Fixed 8-column layout. Column 7 (Job URL) is the dedup key; the tracker
// never records travel or salary, so those columns carry placeholders.
var headers = []string{
	"Priority", "Job Title", "Company", "Location",
	"Travel Required", "Salary/Rate", "Job URL", "Date Added",
}

var columnWidths = []float64{10, 50, 30, 30, 15, 15, 50, 15}

const (
	urlColumn        = 7
	travelNotTracked = "Not specified"
	salaryNotTracked = "Not Listed"
)

// Ledger is the append-only spreadsheet of recorded postings. It performs no
// key checking on append; the pipeline filters against ExistingKeys first.
// A file lock makes the single-writer assumption explicit: two concurrent
// runs against the same workbook would race on the save.
type Ledger struct {
	path string
	lock *flock.Flock
}

func New(path string) *Ledger {
	return &Ledger{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (l *Ledger) Path() string { return l.path }

// ExistingKeys returns the set of posting URLs already recorded. A workbook
// that does not exist yet yields the empty set; it will be created on the
// first append.
func (l *Ledger) ExistingKeys() (map[string]struct{}, error) {
	if err := l.lock.Lock(); err != nil {
		return nil, fmt.Errorf("ledger lock: %w", err)
	}
	defer func() { _ = l.lock.Unlock() }()

	keys := map[string]struct{}{}

	f, err := excelize.OpenFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read ledger rows: %w", err)
	}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) >= urlColumn && row[urlColumn-1] != "" {
			keys[row[urlColumn-1]] = struct{}{}
		}
	}
	return keys, nil
}

// Append adds one row per record, in the given order, after the last existing
// row. Tier 1 and tier 2 rows get their priority cell visually marked. The
// save goes through a temp file and rename so a failure mid-save leaves the
// previous workbook untouched.
func (l *Ledger) Append(records []domain.Posting) error {
	if len(records) == 0 {
		return nil
	}

	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("ledger lock: %w", err)
	}
	defer func() { _ = l.lock.Unlock() }()

	f, err := excelize.OpenFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		f, err = newWorkbook()
	}
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("read ledger rows: %w", err)
	}
	next := len(rows) + 1

	highStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"90EE90"}},
	})
	if err != nil {
		return fmt.Errorf("ledger style: %w", err)
	}
	mediumStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFFE0"}},
	})
	if err != nil {
		return fmt.Errorf("ledger style: %w", err)
	}

	for _, p := range records {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		row := []any{
			int(p.Priority),
			p.Title,
			p.Company,
			p.Location,
			travelNotTracked,
			salaryNotTracked,
			p.URL,
			p.Added.Format("2006-01-02"),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("append ledger row: %w", err)
		}

		switch p.Priority {
		case domain.TierHigh:
			if err := f.SetCellStyle(sheetName, cell, cell, highStyle); err != nil {
				return err
			}
		case domain.TierMedium:
			if err := f.SetCellStyle(sheetName, cell, cell, mediumStyle); err != nil {
				return err
			}
		}
		next++
	}

	return l.saveAtomic(f)
}

func (l *Ledger) saveAtomic(f *excelize.File) error {
	tmp := l.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// newWorkbook builds an empty ledger with the canonical header row: styled,
// fixed column widths, header frozen.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0066CC"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	return f, nil
}
