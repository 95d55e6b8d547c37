package excel

import (
	"time"

	"github.com/xuri/excelize/v2"

	"formintake/domain/cellref"
	"formintake/internal/errors"
	"formintake/ports"
)

// Opener opens xlsx workbooks read-only through excelize. Formula cells
// yield their last-calculated values; nothing is recalculated.
type Opener struct{}

// NewOpener returns the excelize-backed workbook opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the workbook at path. Failure here is fatal for the file.
func (o *Opener) Open(path string) (ports.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.FileError("failed to open workbook"), "open %s: %v", path, err)
	}
	return &workbook{file: f}, nil
}

type workbook struct {
	file *excelize.File
}

func (w *workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *workbook) Sheet(name string) (ports.Worksheet, error) {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, errors.SchemaError("worksheet not found: " + name)
	}
	return &worksheet{file: w.file, name: name}, nil
}

func (w *workbook) Properties() ports.DocProperties {
	props := ports.DocProperties{}
	dp, err := w.file.GetDocProps()
	if err != nil || dp == nil {
		return props
	}
	props.Title = dp.Title
	props.Creator = dp.Creator
	if dp.Modified != "" {
		if t, err := time.Parse(time.RFC3339, dp.Modified); err == nil {
			props.Modified = t
		}
	}
	return props
}

func (w *workbook) Close() error {
	return w.file.Close()
}

type worksheet struct {
	file *excelize.File
	name string
}

func (s *worksheet) Name() string {
	return s.name
}

func (s *worksheet) CellValue(address string) (string, error) {
	// Normalize anchored addresses ($B$2) before handing to excelize.
	ref, err := cellref.Resolve(address)
	if err != nil {
		return "", err
	}
	value, err := s.file.GetCellValue(s.name, ref.String())
	if err != nil {
		return "", errors.Wrapf(err, "read cell %s!%s", s.name, ref)
	}
	return value, nil
}

func (s *worksheet) Dimensions() (int, int) {
	rows, err := s.file.GetRows(s.name)
	if err != nil {
		return 0, 0
	}
	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	return len(rows), maxCols
}
