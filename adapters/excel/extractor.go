package excel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"formintake/adapters/coercer"
	"formintake/domain/record"
	"formintake/domain/schema"
	"formintake/internal/config"
	apperrors "formintake/internal/errors"
	"formintake/ports"
)

// DropDownDefault is the sentinel stored for a drop-down field whose cell
// value is absent or fails coercion: "please select this value".
const DropDownDefault = "please_select"

// compoundLatLong is the field name that triggers compound splitting into
// the two synthetic coordinate fields.
const (
	compoundLatLong  = "lat_and_long"
	syntheticLatKey  = "lat_arb"
	syntheticLongKey = "long_arb"
)

// Extractor reads declared fields out of content tabs against their
// resolved schemas.
type Extractor struct {
	coercer *coercer.Coercer
	policy  config.MissingValuePolicy
	logger  *zap.Logger
}

// NewExtractor builds an extractor with the given missing-value policy.
func NewExtractor(policy config.MissingValuePolicy, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{coercer: coercer.New(), policy: policy, logger: logger}
}

// ExtractTabs extracts each (tab, schema) pair in schemaMap. A schema
// that does not resolve is logged as a warning and its tab is left
// entirely absent from the returned contents — one bad tab never aborts
// the others. A nil registry and a failed compound split are hard errors.
func (e *Extractor) ExtractTabs(
	wb ports.Workbook,
	schemaMap map[string]string,
	reg *schema.Registry,
	procStats *record.ProcessingStats,
) (map[string]map[string]interface{}, []record.ValidationResult, error) {
	contents := make(map[string]map[string]interface{})
	var results []record.ValidationResult

	// Deterministic tab order keeps validation output stable.
	tabs := make([]string, 0, len(schemaMap))
	for tab := range schemaMap {
		tabs = append(tabs, tab)
	}
	sort.Strings(tabs)

	for _, tab := range tabs {
		schemaName := schemaMap[tab]
		started := time.Now()

		sch, err := reg.Resolve(schemaName)
		if err != nil {
			if errors.Is(err, schema.ErrSchemaNotFound) {
				e.logger.Warn("schema not resolvable, skipping tab",
					zap.String("tab", tab),
					zap.String("schema", schemaName))
				results = append(results, record.Failure(
					"schema_resolution",
					fmt.Sprintf("schema %q for tab %q not found, tab skipped", schemaName, tab),
					record.SeverityWarning,
				).WithLocation(tab))
				continue
			}
			return nil, results, err
		}

		tabContents, tabResults, err := e.extractTab(wb, tab, sch, procStats)
		results = append(results, tabResults...)
		if err != nil {
			return nil, results, err
		}
		// A declared tab whose worksheet is physically missing is skipped
		// the same way an unresolved schema is: warned, entirely absent,
		// never counted.
		if tabContents == nil {
			continue
		}

		contents[tab] = tabContents
		if procStats != nil {
			procStats.TabsProcessed++
			procStats.RecordTabDuration(time.Since(started))
		}
	}

	return contents, results, nil
}

// ExtractTab extracts a single tab against an already-resolved schema.
// Used both by ExtractTabs and by callers doing partial re-processing.
func (e *Extractor) ExtractTab(wb ports.Workbook, tab string, sch schema.Schema) (map[string]interface{}, []record.ValidationResult, error) {
	return e.extractTab(wb, tab, sch, nil)
}

func (e *Extractor) extractTab(
	wb ports.Workbook,
	tab string,
	sch schema.Schema,
	procStats *record.ProcessingStats,
) (map[string]interface{}, []record.ValidationResult, error) {
	sheet, err := wb.Sheet(tab)
	if err != nil {
		return nil, []record.ValidationResult{
			record.Failure(
				"worksheet",
				fmt.Sprintf("tab %q declared in schema map but missing from workbook", tab),
				record.SeverityWarning,
			).WithLocation(tab),
		}, nil
	}

	contents := make(map[string]interface{}, len(sch.Fields))
	var results []record.ValidationResult

	for _, field := range sch.Fields {
		raw, err := sheet.CellValue(field.ValueAddress)
		if err != nil {
			results = append(results, record.Failure(
				field.Name,
				fmt.Sprintf("failed to read cell %s: %v", field.ValueAddress, err),
				record.SeverityError,
			).WithLocation(field.ValueAddress))
			if procStats != nil {
				procStats.ProcessingErrors++
			}
			continue
		}

		if procStats != nil {
			procStats.CellsProcessed++
			procStats.FieldsProcessed++
		}

		value, fieldResults := e.coerceField(field, raw)
		results = append(results, fieldResults...)

		if field.Name == compoundLatLong {
			if err := splitCompound(contents, value); err != nil {
				return nil, results, err
			}
			continue
		}

		contents[field.Name] = value
	}

	return contents, results, nil
}

// coerceField applies the declared type to a raw cell value and the
// default-value policy for missing or invalid values.
func (e *Extractor) coerceField(field schema.FieldDefinition, raw string) (interface{}, []record.ValidationResult) {
	res := e.coercer.Coerce(raw, field.ValueType)
	if res.IsValid {
		if s, ok := res.Value.(string); ok {
			return sanitizeString(s), nil
		}
		return res.Value, nil
	}

	missing := strings.TrimSpace(raw) == ""

	var results []record.ValidationResult
	if !missing || e.policy == config.MissingError {
		severity := record.SeverityError
		if missing && field.IsDropDown {
			severity = record.SeverityWarning
		}
		results = append(results, record.Failure(field.Name, res.Message, severity).
			WithLocation(field.ValueAddress).
			WithContext(res.Context))
	}

	// Drop-down fields fall back to the "please select" sentinel; plain
	// fields keep what the user typed, or the empty-string default.
	if field.IsDropDown {
		return DropDownDefault, results
	}
	if missing {
		if e.policy == config.MissingNull {
			return nil, results
		}
		return "", results
	}
	return sanitizeString(raw), results
}

// splitCompound splits a "lat,long" value into the two synthetic
// coordinate fields. Empty (or whitespace-only) input produces no
// synthetic fields; anything other than exactly two comma-separated
// parts is a hard failure.
func splitCompound(contents map[string]interface{}, value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" || s == DropDownDefault {
		return nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return apperrors.DataError(fmt.Sprintf(
			"compound field %q must have exactly two comma-separated parts, got %d in %q",
			compoundLatLong, len(parts), s,
		))
	}

	contents[syntheticLatKey] = parts[0]
	contents[syntheticLongKey] = parts[1]
	return nil
}
