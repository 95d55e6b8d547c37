package validation

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"formintake/internal/config"
)

func newTestAggregator(cfg *config.Config, opts ...Option) *Aggregator {
	return NewAggregator(cfg, zap.NewNop(), opts...)
}

func writeZip(t *testing.T, path string, entries []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte("<x/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestCheckFileMissing(t *testing.T) {
	a := newTestAggregator(config.Default())
	results := a.CheckFile(filepath.Join(t.TempDir(), "nope.xlsx"))

	require.Len(t, results, 1)
	assert.Equal(t, "file_exists", results[0].FieldName)
	assert.True(t, results[0].IsError())
}

func TestCheckFileWellFormedXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.xlsx")
	writeZip(t, path, []string{"xl/workbook.xml", "xl/worksheets/sheet1.xml"})

	results := newTestAggregator(config.Default()).CheckFile(path)
	assert.False(t, HasErrors(results))
}

func TestCheckFileBadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0o644))

	results := newTestAggregator(config.Default()).CheckFile(path)
	require.True(t, HasErrors(results))

	var found bool
	for _, r := range results {
		if r.FieldName == "file_extension" && !r.IsValid {
			found = true
			assert.Equal(t, ".csv", r.Context["extension"])
		}
	}
	assert.True(t, found)
}

func TestCheckFileZipMissingWorkbookXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hollow.xlsx")
	writeZip(t, path, []string{"xl/worksheets/sheet1.xml"})

	results := newTestAggregator(config.Default()).CheckFile(path)
	require.True(t, HasErrors(results))

	var found bool
	for _, r := range results {
		if r.FieldName == "file_structure" && !r.IsValid {
			found = true
			assert.Equal(t, false, r.Context["has_workbook_xml"])
			assert.Equal(t, true, r.Context["has_worksheets"])
		}
	}
	assert.True(t, found)
}

func TestCheckFileNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))

	results := newTestAggregator(config.Default()).CheckFile(path)
	assert.True(t, HasErrors(results))
}

func TestCheckFileOLESignature(t *testing.T) {
	dir := t.TempDir()

	legacy := filepath.Join(dir, "legacy.xls")
	header := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 512)...)
	require.NoError(t, os.WriteFile(legacy, header, 0o644))
	results := newTestAggregator(config.Default()).CheckFile(legacy)
	assert.False(t, HasErrors(results))

	bogus := filepath.Join(dir, "bogus.xls")
	require.NoError(t, os.WriteFile(bogus, []byte("MZ not ole"), 0o644))
	results = newTestAggregator(config.Default()).CheckFile(bogus)
	assert.True(t, HasErrors(results))

	// Shorter than the signature itself.
	truncated := filepath.Join(dir, "truncated.xls")
	require.NoError(t, os.WriteFile(truncated, []byte{0xD0, 0xCF, 0x11}, 0o644))
	results = newTestAggregator(config.Default()).CheckFile(truncated)
	assert.True(t, HasErrors(results))
}

func TestCheckFileCustomMessages(t *testing.T) {
	a := newTestAggregator(config.Default(), WithMessages(Messages{"file_not_found": "no such upload"}))
	results := a.CheckFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Len(t, results, 1)
	assert.Equal(t, "no such upload", results[0].Message)
}
