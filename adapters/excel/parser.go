package excel

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"formintake/domain/record"
	"formintake/domain/schema"
	"formintake/internal/config"
	apperrors "formintake/internal/errors"
	"formintake/ports"
)

// Reserved metadata keys for workbook document properties.
const (
	metaKeyDocTitle    = "_doc_title"
	metaKeyDocCreator  = "_doc_creator"
	metaKeyDocModified = "_doc_modified"
)

// Parser orchestrates a workbook parse as a linear pass: open, read the
// metadata region, read the schema-map region, extract each content tab,
// assemble. There is no retry; open failure is fatal for the file.
type Parser struct {
	opener    ports.WorkbookOpener
	extractor *Extractor
	cfg       *config.Config
	logger    *zap.Logger
}

// NewParser wires a parser against a workbook opener and configuration.
func NewParser(opener ports.WorkbookOpener, cfg *config.Config, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		opener:    opener,
		extractor: NewExtractor(cfg.MissingValuePolicy, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// Parse opens the workbook at path and produces the parsed value plus
// every validation result raised along the way. The workbook handle is
// released before return regardless of outcome.
func (p *Parser) Parse(path string, reg *schema.Registry, procStats *record.ProcessingStats) (*record.ParsedWorkbook, []record.ValidationResult, error) {
	wb, err := p.opener.Open(path)
	if err != nil {
		if procStats != nil {
			procStats.ProcessingErrors++
		}
		return nil, nil, err
	}
	defer wb.Close()

	return p.ParseWorkbook(wb, reg, procStats)
}

// ParseWorkbook runs the post-open stages against an already-open handle.
// The caller owns the handle's lifecycle.
func (p *Parser) ParseWorkbook(wb ports.Workbook, reg *schema.Registry, procStats *record.ProcessingStats) (*record.ParsedWorkbook, []record.ValidationResult, error) {
	var results []record.ValidationResult

	metadata, metaResults := p.readRegion(wb, p.cfg.MetadataTab, p.cfg.MetadataStartCell, "metadata")
	results = append(results, metaResults...)
	p.captureDocProperties(wb, metadata)

	schemaMapRaw, schemaResults := p.readRegion(wb, p.cfg.SchemaMapTab, p.cfg.SchemaMapStartCell, "schema_map")
	results = append(results, schemaResults...)

	schemaMap := make(map[string]string, len(schemaMapRaw))
	for tab, name := range schemaMapRaw {
		schemaMap[tab] = fmt.Sprintf("%v", name)
	}

	contents, extractResults, err := p.extractor.ExtractTabs(wb, schemaMap, reg, procStats)
	results = append(results, extractResults...)
	if err != nil {
		return nil, results, err
	}

	if procStats != nil {
		procStats.RowsProcessed += len(metadata) + len(schemaMap)
	}

	usedSchemas := make(map[string]string, len(contents))
	for tab := range contents {
		usedSchemas[tab] = schemaMap[tab]
	}

	p.logger.Info("workbook parsed",
		zap.Int("metadata_keys", len(metadata)),
		zap.Int("declared_tabs", len(schemaMap)),
		zap.Int("extracted_tabs", len(contents)))

	return record.NewParsedWorkbook(metadata, usedSchemas, contents), results, nil
}

// readRegion scans one fixed key/value region, tolerating an absent tab
// with a warning result rather than failing the parse.
func (p *Parser) readRegion(wb ports.Workbook, tab, startCell, label string) (map[string]string, []record.ValidationResult) {
	sheet, err := wb.Sheet(tab)
	if err != nil {
		return map[string]string{}, []record.ValidationResult{
			record.Failure(label, fmt.Sprintf("%s tab %q not found in workbook", label, tab), record.SeverityWarning).
				WithLocation(tab),
		}
	}

	region, err := ScanKeyValues(sheet, startCell, p.cfg.MaxScanRows)
	if err != nil {
		return map[string]string{}, []record.ValidationResult{
			record.Failure(label, fmt.Sprintf("failed to scan %s region: %v", label, err), record.SeverityError).
				WithLocation(fmt.Sprintf("%s!%s", tab, startCell)).
				WithContext(map[string]interface{}{"error_code": apperrors.GetCode(err)}),
		}
	}

	out := make(map[string]string, len(region))
	for k, v := range region {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out, nil
}

// captureDocProperties folds workbook document properties into metadata
// under reserved keys, never clobbering user-declared entries.
func (p *Parser) captureDocProperties(wb ports.Workbook, metadata map[string]string) {
	props := wb.Properties()
	if props.Title != "" {
		if _, exists := metadata[metaKeyDocTitle]; !exists {
			metadata[metaKeyDocTitle] = props.Title
		}
	}
	if props.Creator != "" {
		if _, exists := metadata[metaKeyDocCreator]; !exists {
			metadata[metaKeyDocCreator] = props.Creator
		}
	}
	if !props.Modified.IsZero() {
		if _, exists := metadata[metaKeyDocModified]; !exists {
			metadata[metaKeyDocModified] = props.Modified.Format(time.RFC3339)
		}
	}
}
