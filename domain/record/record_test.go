package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		raw       string
		want      Severity
		expectErr bool
	}{
		{raw: "ERROR", want: SeverityError},
		{raw: "error", want: SeverityError},
		{raw: " Warning ", want: SeverityWarning},
		{raw: "info", want: SeverityInfo},
		{raw: "fatal", expectErr: true},
		{raw: "", expectErr: true},
	}
	for _, tt := range tests {
		sev, err := ParseSeverity(tt.raw)
		if tt.expectErr {
			assert.Error(t, err, "raw %q", tt.raw)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, sev)
	}
}

func TestNewValidationResultRejectsBadSeverity(t *testing.T) {
	_, err := NewValidationResult("sector", false, "missing", "catastrophic")
	assert.Error(t, err)

	v, err := NewValidationResult("sector", false, "missing", "warning")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, v.Severity)
	assert.False(t, v.IsError())
}

func TestValidationResultImmutableHelpers(t *testing.T) {
	base := Failure("visit_date", "bad date", SeverityError)

	located := base.WithLocation("B3").WithContext(map[string]interface{}{"raw": "not-a-date"})
	assert.Empty(t, base.Location)
	assert.Nil(t, base.Context)
	assert.Equal(t, "B3", located.Location)
	assert.Equal(t, "not-a-date", located.Context["raw"])
	assert.True(t, located.IsError())
}

func TestValidationResultToDict(t *testing.T) {
	v := Failure("file_size", "file too large", SeverityError).
		WithLocation("feedback.xlsx").
		WithContext(map[string]interface{}{"actual_mb": 2.0, "max_mb": 1.0})

	d := v.ToDict()
	assert.Equal(t, "file_size", d["field_name"])
	assert.Equal(t, false, d["is_valid"])
	assert.Equal(t, "ERROR", d["severity"])

	// The projection must be JSON-serializable with no opaque values.
	_, err := json.Marshal(d)
	require.NoError(t, err)
}

func TestProcessingStatsDerived(t *testing.T) {
	s := NewProcessingStats()
	s.CellsProcessed = 100
	s.FieldsProcessed = 10
	s.ValidationErrors = 2
	s.RecordTabDuration(10 * time.Millisecond)
	s.RecordTabDuration(30 * time.Millisecond)
	s.Finish()

	assert.InDelta(t, 0.8, s.SuccessRatio(), 1e-9)
	assert.GreaterOrEqual(t, s.Elapsed(), time.Duration(0))

	summary := s.TimingSummary()
	assert.InDelta(t, 20.0, summary["tab_ms_mean"], 1e-9)
	assert.InDelta(t, 20.0, summary["tab_ms_median"], 1e-9)

	d := s.ToDict()
	assert.Equal(t, 100, d["cells_processed"])
	_, err := json.Marshal(d)
	require.NoError(t, err)
}

func TestProcessingStatsEmpty(t *testing.T) {
	s := NewProcessingStats()
	assert.Equal(t, 1.0, s.SuccessRatio())
	assert.Empty(t, s.TimingSummary())
}

func TestParseResultDerivedLists(t *testing.T) {
	results := []ValidationResult{
		Failure("sector", "sector is required", SeverityError),
		Failure("contact_email", "suspicious format", SeverityWarning),
		Pass("schema_map", "all schemas resolved"),
	}
	parsed := NewParsedWorkbook(
		map[string]string{"sector": "health"},
		map[string]string{"Visit Details": "health_visit_v2"},
		map[string]map[string]interface{}{"Visit Details": {"sector": "health"}},
	)

	stats := NewProcessingStats()
	stats.Finish()
	r := NewParseResult("feedback.xlsx", false, parsed, results, stats, 5*time.Millisecond)

	assert.NotEmpty(t, r.ResultID)
	assert.Equal(t, []string{"sector is required"}, r.Errors())
	assert.Equal(t, []string{"suspicious format"}, r.Warnings())

	d := r.ToDict()
	assert.Equal(t, false, d["success"])
	assert.Equal(t, "feedback.xlsx", d["file_path"])
	_, err := json.Marshal(d)
	require.NoError(t, err)
}
