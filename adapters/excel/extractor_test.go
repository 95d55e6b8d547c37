package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"formintake/domain/record"
	"formintake/domain/schema"
	"formintake/internal/config"
	apperrors "formintake/internal/errors"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(map[string]schema.Schema{
		"health_visit_v2": {
			SchemaName: "health_visit_v2",
			TabName:    "Visit Details",
			Fields: []schema.FieldDefinition{
				{Name: "sector", ValueAddress: "B2", ValueType: schema.ValueTypeString},
				{Name: "visit_count", ValueAddress: "B3", ValueType: schema.ValueTypeInteger},
				{Name: "facility_type", ValueAddress: "B4", ValueType: schema.ValueTypeString, IsDropDown: true},
			},
		},
		"site_location_v1": {
			SchemaName: "site_location_v1",
			TabName:    "Location",
			Fields: []schema.FieldDefinition{
				{Name: "lat_and_long", ValueAddress: "B2", ValueType: schema.ValueTypeString},
			},
		},
	}, map[string]string{"health_visit": "health_visit_v2"})
	require.NoError(t, err)
	return reg
}

func newTestExtractor() *Extractor {
	return NewExtractor(config.MissingSkip, zap.NewNop())
}

func TestExtractTabs(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{
		"B2": "health",
		"B3": "12.0",
		"B4": "clinic",
	})

	stats := record.NewProcessingStats()
	contents, results, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Visit Details": "health_visit_v2"}, testRegistry(t), stats)
	require.NoError(t, err)
	assert.Empty(t, results)

	visit := contents["Visit Details"]
	require.NotNil(t, visit)
	assert.Equal(t, "health", visit["sector"])
	assert.Equal(t, 12, visit["visit_count"])
	assert.Equal(t, "clinic", visit["facility_type"])

	assert.Equal(t, 1, stats.TabsProcessed)
	assert.Equal(t, 3, stats.FieldsProcessed)
}

func TestExtractTabsPartialFailureIsolation(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{"B2": "health", "B3": "3", "B4": "clinic"})
	wb.addSheet("Mystery Tab", map[string]string{"B2": "whatever"})

	contents, results, err := newTestExtractor().ExtractTabs(wb, map[string]string{
		"Visit Details": "health_visit_v2",
		"Mystery Tab":   "no_such_schema",
	}, testRegistry(t), nil)
	require.NoError(t, err, "one unresolvable schema never aborts the others")

	assert.Contains(t, contents, "Visit Details")
	assert.NotContains(t, contents, "Mystery Tab", "unresolved tab must be entirely absent, not empty")

	require.Len(t, results, 1)
	assert.Equal(t, record.SeverityWarning, results[0].Severity)
	assert.Equal(t, "Mystery Tab", results[0].Location)
}

func TestExtractTabsMissingWorksheet(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{"B2": "health", "B3": "3", "B4": "clinic"})
	// "Location" is declared in the schema map but has no worksheet.

	stats := record.NewProcessingStats()
	contents, results, err := newTestExtractor().ExtractTabs(wb, map[string]string{
		"Visit Details": "health_visit_v2",
		"Location":      "site_location_v1",
	}, testRegistry(t), stats)
	require.NoError(t, err, "a physically missing worksheet never aborts the others")

	assert.Contains(t, contents, "Visit Details")
	assert.NotContains(t, contents, "Location", "missing worksheet must be entirely absent, not a nil entry")
	assert.Equal(t, 1, stats.TabsProcessed, "a skipped tab is never counted")

	require.Len(t, results, 1)
	assert.Equal(t, record.SeverityWarning, results[0].Severity)
	assert.Equal(t, "Location", results[0].Location)
}

func TestExtractTabDropDownDefault(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{"B2": "health", "B3": "5"}) // B4 empty

	contents, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Visit Details": "health_visit_v2"}, testRegistry(t), nil)
	require.NoError(t, err)

	visit := contents["Visit Details"]
	assert.Equal(t, DropDownDefault, visit["facility_type"], "empty drop-down gets the sentinel")
}

func TestExtractTabMissingNonDropDown(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{"B3": "5", "B4": "clinic"}) // B2 empty

	contents, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Visit Details": "health_visit_v2"}, testRegistry(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "", contents["Visit Details"]["sector"], "missing plain field defaults to empty string")
}

func TestExtractTabInvalidValuePreservesRaw(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{"B2": "health", "B3": "twelve", "B4": "clinic"})

	contents, results, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Visit Details": "health_visit_v2"}, testRegistry(t), nil)
	require.NoError(t, err)

	// Callers may need to show the user what they typed.
	assert.Equal(t, "twelve", contents["Visit Details"]["visit_count"])

	require.Len(t, results, 1)
	assert.Equal(t, "visit_count", results[0].FieldName)
	assert.True(t, results[0].IsError())
	assert.Equal(t, "B3", results[0].Location)
}

func TestExtractTabCompoundSplit(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Location", map[string]string{"B2": "37.7749,-122.4194"})

	contents, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Location": "site_location_v1"}, testRegistry(t), nil)
	require.NoError(t, err)

	loc := contents["Location"]
	assert.Equal(t, "37.7749", loc["lat_arb"])
	assert.Equal(t, "-122.4194", loc["long_arb"])
}

func TestExtractTabCompoundSplitEmptyInput(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Location", map[string]string{"B2": "   "})

	contents, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Location": "site_location_v1"}, testRegistry(t), nil)
	require.NoError(t, err)

	loc := contents["Location"]
	assert.NotContains(t, loc, "lat_arb")
	assert.NotContains(t, loc, "long_arb")
}

func TestExtractTabCompoundSplitWrongPartCount(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Location", map[string]string{"B2": "37.7,-122.4,extra"})

	_, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Location": "site_location_v1"}, testRegistry(t), nil)
	require.Error(t, err, "anything other than exactly two parts is a hard failure")
	assert.Equal(t, apperrors.CodeDataError, apperrors.GetCode(err))
}

func TestExtractTabSanitizesValues(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", map[string]string{
		"B2": "hea\x00lth\x07",
		"B3": "1",
		"B4": "clinic",
	})

	contents, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Visit Details": "health_visit_v2"}, testRegistry(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "health", contents["Visit Details"]["sector"])
}

func TestExtractTabsNilRegistry(t *testing.T) {
	wb := newFakeWorkbook()
	wb.addSheet("Visit Details", nil)

	_, _, err := newTestExtractor().ExtractTabs(wb,
		map[string]string{"Visit Details": "health_visit_v2"}, nil, nil)
	require.Error(t, err, "nil registry is a programming error, not a skip")
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}
