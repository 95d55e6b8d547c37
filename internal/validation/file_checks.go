package validation

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"formintake/domain/record"
)

// ole2Magic is the OLE2 compound-file signature legacy .xls files begin with.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// CheckFile runs the file-level check group against a path: existence,
// regular-file-ness, readability, extension allow-list, size cap, and
// workbook structural integrity. Each check emits its own result; a
// missing file short-circuits the rest because nothing else can be
// checked without it.
func (a *Aggregator) CheckFile(path string) []record.ValidationResult {
	var results []record.ValidationResult

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return append(results, record.Failure("file_exists", a.message("file_not_found"), record.SeverityError).
			WithLocation(path).
			WithContext(map[string]interface{}{"path": path}))
	}
	if err != nil {
		return append(results, record.Failure("file_exists", err.Error(), record.SeverityError).
			WithLocation(path))
	}
	results = append(results, record.Pass("file_exists", "file exists"))

	if !info.Mode().IsRegular() {
		results = append(results, record.Failure("file_type", a.message("file_not_regular"), record.SeverityError).
			WithLocation(path))
		return results
	}

	if f, err := os.Open(path); err != nil {
		results = append(results, record.Failure("file_readable", a.message("file_not_readable"), record.SeverityError).
			WithLocation(path).
			WithContext(map[string]interface{}{"error": err.Error()}))
		return results
	} else {
		f.Close()
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !a.cfg.ExtensionAllowed(ext) {
		results = append(results, record.Failure("file_extension", a.message("file_bad_ext"), record.SeverityError).
			WithLocation(path).
			WithContext(map[string]interface{}{
				"extension": ext,
				"allowed":   a.cfg.AllowedExtensions,
			}))
	}

	if info.Size() > a.cfg.MaxFileSizeBytes() {
		actualMB := float64(info.Size()) / (1024 * 1024)
		results = append(results, record.Failure("file_size", a.message("file_too_large"), record.SeverityError).
			WithLocation(path).
			WithContext(map[string]interface{}{
				"actual_mb": actualMB,
				"max_mb":    a.cfg.MaxFileSizeMB,
			}))
	}

	results = append(results, a.checkStructure(path, ext)...)

	if HasErrors(results) {
		a.logger.Warn("file checks failed", zap.String("path", path))
	}
	return results
}

// checkStructure verifies workbook container integrity: .xlsx must be a
// well-formed zip holding xl/workbook.xml and at least one worksheet
// part; .xls must begin with the OLE2 magic bytes.
func (a *Aggregator) checkStructure(path, ext string) []record.ValidationResult {
	switch ext {
	case ".xlsx":
		return a.checkZipStructure(path)
	case ".xls":
		return a.checkOLEStructure(path)
	}
	return nil
}

func (a *Aggregator) checkZipStructure(path string) []record.ValidationResult {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return []record.ValidationResult{
			record.Failure("file_structure", a.message("file_bad_structure"), record.SeverityError).
				WithLocation(path).
				WithContext(map[string]interface{}{"detail": "not a valid zip archive", "error": err.Error()}),
		}
	}
	defer zr.Close()

	hasWorkbook := false
	hasWorksheet := false
	for _, f := range zr.File {
		if f.Name == "xl/workbook.xml" {
			hasWorkbook = true
		}
		if strings.HasPrefix(f.Name, "xl/worksheets/") && f.Name != "xl/worksheets/" {
			hasWorksheet = true
		}
	}

	if !hasWorkbook || !hasWorksheet {
		return []record.ValidationResult{
			record.Failure("file_structure", a.message("file_bad_structure"), record.SeverityError).
				WithLocation(path).
				WithContext(map[string]interface{}{
					"has_workbook_xml": hasWorkbook,
					"has_worksheets":   hasWorksheet,
				}),
		}
	}
	return []record.ValidationResult{record.Pass("file_structure", "xlsx container is well-formed")}
}

func (a *Aggregator) checkOLEStructure(path string) []record.ValidationResult {
	f, err := os.Open(path)
	if err != nil {
		return []record.ValidationResult{
			record.Failure("file_structure", a.message("file_not_readable"), record.SeverityError).
				WithLocation(path),
		}
	}
	defer f.Close()

	header := make([]byte, len(ole2Magic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, ole2Magic) {
		return []record.ValidationResult{
			record.Failure("file_structure", a.message("file_bad_structure"), record.SeverityError).
				WithLocation(path).
				WithContext(map[string]interface{}{
					"detail":   "missing OLE2 compound-file signature",
					"expected": fmt.Sprintf("% X", ole2Magic),
				}),
		}
	}
	return []record.ValidationResult{record.Pass("file_structure", "xls OLE2 signature present")}
}
