package ports

import (
	"context"
	"time"

	"formintake/domain/record"
)

// Worksheet is the narrow capability surface this core needs from one
// sheet of a workbook. Any spreadsheet-reading library can satisfy it.
type Worksheet interface {
	// Name returns the worksheet's tab name.
	Name() string

	// CellValue returns the display value of the cell at an Excel-style
	// address ("B2", "$AA$15"). Formula cells yield their last-calculated
	// value. Empty cells yield "".
	CellValue(address string) (string, error)

	// Dimensions returns the used range of the sheet as (rows, cols).
	Dimensions() (rows, cols int)
}

// DocProperties carries workbook-level document properties.
type DocProperties struct {
	Title    string
	Creator  string
	Modified time.Time
}

// Workbook is the capability surface for an open workbook handle. The
// handle must be closed deterministically when processing ends.
type Workbook interface {
	SheetNames() []string
	Sheet(name string) (Worksheet, error)
	Properties() DocProperties
	Close() error
}

// WorkbookOpener opens a workbook read-only from a file path.
type WorkbookOpener interface {
	Open(path string) (Workbook, error)
}

// RecordSink is the persistence seam for extracted results. Writing to a
// database is a collaborator concern; this core only defines the contract.
type RecordSink interface {
	Store(ctx context.Context, result *record.ParseResult) error
}
