package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formintake/internal/config"
	"formintake/ports"
)

type stubWorkbook struct {
	sheets []string
}

func (w *stubWorkbook) SheetNames() []string { return w.sheets }
func (w *stubWorkbook) Sheet(name string) (ports.Worksheet, error) {
	return nil, nil
}
func (w *stubWorkbook) Properties() ports.DocProperties { return ports.DocProperties{} }
func (w *stubWorkbook) Close() error                    { return nil }

func TestCheckWorkbookNoSheets(t *testing.T) {
	a := newTestAggregator(config.Default())
	results := a.CheckWorkbook(&stubWorkbook{}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, "sheet_count", results[0].FieldName)
	assert.True(t, results[0].IsError())
}

func TestCheckWorkbookTooManyTabs(t *testing.T) {
	cfg := config.Default()
	cfg.MaxTabs = 2
	a := newTestAggregator(cfg)

	results := a.CheckWorkbook(&stubWorkbook{sheets: []string{"A", "B", "C"}}, nil)
	require.True(t, HasErrors(results))

	var found bool
	for _, r := range results {
		if r.FieldName == "sheet_count" && !r.IsValid {
			found = true
			assert.Equal(t, 3, r.Context["actual"])
			assert.Equal(t, 2, r.Context["max"])
		}
	}
	assert.True(t, found)
}

func TestCheckWorkbookIllegalNames(t *testing.T) {
	a := newTestAggregator(config.Default())
	long := strings.Repeat("x", 32)

	results := a.CheckWorkbook(&stubWorkbook{sheets: []string{"Fine", "Bad:Name", "Also[Bad]", long}}, nil)
	require.True(t, HasErrors(results))

	var found bool
	for _, r := range results {
		if r.FieldName == "sheet_names" && !r.IsValid {
			found = true
			assert.ElementsMatch(t, []string{"Bad:Name", "Also[Bad]", long}, r.Context["invalid_names"])
		}
	}
	assert.True(t, found)
}

func TestCheckWorkbookRequiredTabs(t *testing.T) {
	a := newTestAggregator(config.Default())
	wb := &stubWorkbook{sheets: []string{"Visit Details", "Summary"}}

	results := a.CheckWorkbook(wb, []string{"Visit Details", "Budget"})
	require.True(t, HasErrors(results))

	var found bool
	for _, r := range results {
		if r.FieldName == "required_tabs" && !r.IsValid {
			found = true
			assert.Equal(t, []string{"Budget"}, r.Context["missing_tabs"])
		}
	}
	assert.True(t, found)

	results = a.CheckWorkbook(wb, []string{"Visit Details", "Summary"})
	assert.False(t, HasErrors(results))
}
