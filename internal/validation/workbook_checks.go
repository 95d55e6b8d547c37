package validation

import (
	"fmt"
	"strings"

	"formintake/domain/record"
	"formintake/ports"
)

// maxSheetNameLen is Excel's worksheet name limit.
const maxSheetNameLen = 31

// illegalSheetNameChars are the characters Excel forbids in sheet names.
const illegalSheetNameChars = `[]:*?/\`

// CheckWorkbook runs the workbook-level check group: at least one sheet,
// sheet count within the configured cap, every sheet name legal, and
// every required tab present by name.
func (a *Aggregator) CheckWorkbook(wb ports.Workbook, requiredTabs []string) []record.ValidationResult {
	var results []record.ValidationResult

	names := wb.SheetNames()
	if len(names) == 0 {
		results = append(results, record.Failure("sheet_count", a.message("workbook_no_sheets"), record.SeverityError))
		return results
	}
	results = append(results, record.Pass("sheet_count", fmt.Sprintf("workbook has %d worksheets", len(names))))

	if len(names) > a.cfg.MaxTabs {
		results = append(results, record.Failure("sheet_count", a.message("workbook_too_many"), record.SeverityError).
			WithContext(map[string]interface{}{
				"actual": len(names),
				"max":    a.cfg.MaxTabs,
			}))
	}

	var invalidNames []string
	for _, name := range names {
		if !legalSheetName(name) {
			invalidNames = append(invalidNames, name)
		}
	}
	if len(invalidNames) > 0 {
		results = append(results, record.Failure("sheet_names", a.message("workbook_bad_names"), record.SeverityError).
			WithContext(map[string]interface{}{"invalid_names": invalidNames}))
	} else {
		results = append(results, record.Pass("sheet_names", "all worksheet names are legal"))
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	var missing []string
	for _, tab := range requiredTabs {
		if !present[tab] {
			missing = append(missing, tab)
		}
	}
	if len(missing) > 0 {
		results = append(results, record.Failure("required_tabs", a.message("workbook_missing"), record.SeverityError).
			WithContext(map[string]interface{}{"missing_tabs": missing}))
	} else if len(requiredTabs) > 0 {
		results = append(results, record.Pass("required_tabs", "all required tabs present"))
	}

	return results
}

func legalSheetName(name string) bool {
	if name == "" || len(name) > maxSheetNameLen {
		return false
	}
	return !strings.ContainsAny(name, illegalSheetNameChars)
}
