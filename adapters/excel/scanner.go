package excel

import (
	"strings"

	"formintake/domain/cellref"
	"formintake/ports"
)

// ScanKeyValues walks a key/value region downward from startCell: the key
// is read from the start column, the value one column to the right. The
// scan advances a row at a time and stops at the first empty key cell —
// that sentinel is the region's only terminator, so maxRows exists to
// bound malformed sheets (0 means no bound).
//
// Keys with empty value cells are kept with the empty value. Duplicate
// keys are last-write-wins.
func ScanKeyValues(sheet ports.Worksheet, startCell string, maxRows int) (map[string]interface{}, error) {
	start, err := cellref.Resolve(startCell)
	if err != nil {
		return nil, err
	}

	valueCol := cellref.ColumnLetters(start.Rank() + 1)
	region := make(map[string]interface{})

	for row := start.Row; maxRows <= 0 || row < start.Row+maxRows; row++ {
		key, err := sheet.CellValue(cellref.Format(start.Col, row))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(key) == "" {
			break
		}

		value, err := sheet.CellValue(cellref.Format(valueCol, row))
		if err != nil {
			return nil, err
		}
		region[strings.TrimSpace(key)] = value
	}

	return region, nil
}
