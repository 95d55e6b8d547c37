package validation

import (
	"fmt"
	"sort"
	"strings"

	"formintake/domain/cellref"
	"formintake/domain/record"
	"formintake/domain/schema"
)

// nameCategories maps field-name substrings to the semantic category used
// by the consistency heuristic. Fields sharing a category are expected to
// share one declared type.
var nameCategories = []string{"date", "email", "count"}

// CheckSchema runs the schema-level check group against one schema
// definition: required keys, field completeness, supported types, cell
// reference legality and bounds. rows/cols are the worksheet-declared
// bounds; zero disables the bounds check.
func (a *Aggregator) CheckSchema(sch schema.Schema, rows, cols int) []record.ValidationResult {
	var results []record.ValidationResult

	if sch.SchemaName == "" {
		results = append(results, record.Failure("schema_name", "schema is missing schema_name", record.SeverityError))
	}
	if sch.TabName == "" {
		results = append(results, record.Failure("tab_name", "schema is missing tab_name", record.SeverityError).
			WithLocation(sch.SchemaName))
	}
	if len(sch.Fields) == 0 {
		results = append(results, record.Failure("fields", "schema declares no fields", record.SeverityError).
			WithLocation(sch.SchemaName))
		return results
	}

	for _, field := range sch.Fields {
		results = append(results, a.checkField(sch, field, rows, cols)...)
	}

	results = append(results, a.checkNameCategoryConsistency(sch)...)
	return results
}

func (a *Aggregator) checkField(sch schema.Schema, field schema.FieldDefinition, rows, cols int) []record.ValidationResult {
	var results []record.ValidationResult
	location := fmt.Sprintf("%s.%s", sch.SchemaName, field.Name)

	if field.Name == "" {
		results = append(results, record.Failure("field_name", "field definition is missing a name", record.SeverityError).
			WithLocation(sch.SchemaName))
		return results
	}

	if field.ValueAddress == "" {
		results = append(results, record.Failure(field.Name, "field is missing a cell reference", record.SeverityError).
			WithLocation(location))
	} else if ref, err := cellref.Resolve(field.ValueAddress); err != nil {
		results = append(results, record.Failure(field.Name,
			fmt.Sprintf("cell reference %q is not valid", field.ValueAddress), record.SeverityError).
			WithLocation(location).
			WithContext(map[string]interface{}{"value_address": field.ValueAddress}))
	} else if rows > 0 && cols > 0 && (ref.Row > rows || ref.Rank() > cols) {
		results = append(results, record.Failure(field.Name,
			fmt.Sprintf("cell reference %s is outside worksheet bounds (%d rows, %d cols)", field.ValueAddress, rows, cols),
			record.SeverityError).
			WithLocation(location).
			WithContext(map[string]interface{}{
				"value_address": field.ValueAddress,
				"sheet_rows":    rows,
				"sheet_cols":    cols,
			}))
	}

	if !field.ValueType.IsSupported() {
		results = append(results, record.Failure(field.Name,
			fmt.Sprintf("data type %q is not supported", field.ValueType), record.SeverityError).
			WithLocation(location).
			WithContext(map[string]interface{}{"value_type": string(field.ValueType)}))
	}

	return results
}

// checkNameCategoryConsistency groups fields by name-substring category
// (date/email/count) and reports mixed declared types within a category.
// The heuristic can false-positive on unrelated fields that share a
// substring, so its output is WARNING at most, never blocking.
func (a *Aggregator) checkNameCategoryConsistency(sch schema.Schema) []record.ValidationResult {
	var results []record.ValidationResult

	for _, category := range nameCategories {
		types := make(map[schema.ValueType][]string)
		for _, field := range sch.Fields {
			if strings.Contains(strings.ToLower(field.Name), category) {
				types[field.ValueType] = append(types[field.ValueType], field.Name)
			}
		}
		if len(types) <= 1 {
			continue
		}

		var variants []string
		for vt, names := range types {
			sort.Strings(names)
			variants = append(variants, fmt.Sprintf("%s: %s", vt, strings.Join(names, ",")))
		}
		sort.Strings(variants)

		results = append(results, record.Failure("type_consistency",
			fmt.Sprintf("fields in category %q declare mixed types", category), record.SeverityWarning).
			WithLocation(sch.SchemaName).
			WithContext(map[string]interface{}{
				"category": category,
				"variants": variants,
			}))
	}

	return results
}
