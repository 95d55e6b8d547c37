package record

import (
	"time"

	"github.com/google/uuid"
)

// ParsedWorkbook is the orchestrator's output: top-level metadata, the
// tab-to-schema mapping actually used, and per-tab extracted field values.
// Constructed once per parse; treated as immutable afterward.
type ParsedWorkbook struct {
	Metadata    map[string]string                 `json:"metadata"`
	Schemas     map[string]string                 `json:"schemas"`
	TabContents map[string]map[string]interface{} `json:"tab_contents"`
}

// NewParsedWorkbook normalizes nil maps so consumers never see them.
func NewParsedWorkbook(metadata, schemas map[string]string, contents map[string]map[string]interface{}) *ParsedWorkbook {
	if metadata == nil {
		metadata = map[string]string{}
	}
	if schemas == nil {
		schemas = map[string]string{}
	}
	if contents == nil {
		contents = map[string]map[string]interface{}{}
	}
	return &ParsedWorkbook{Metadata: metadata, Schemas: schemas, TabContents: contents}
}

// ToDict projects the parsed workbook into a fully-expanded map.
func (p *ParsedWorkbook) ToDict() map[string]interface{} {
	metadata := make(map[string]interface{}, len(p.Metadata))
	for k, v := range p.Metadata {
		metadata[k] = v
	}
	schemas := make(map[string]interface{}, len(p.Schemas))
	for k, v := range p.Schemas {
		schemas[k] = v
	}
	contents := make(map[string]interface{}, len(p.TabContents))
	for tab, fields := range p.TabContents {
		tabDict := make(map[string]interface{}, len(fields))
		for name, val := range fields {
			tabDict[name] = val
		}
		contents[tab] = tabDict
	}
	return map[string]interface{}{
		"metadata":     metadata,
		"schemas":      schemas,
		"tab_contents": contents,
	}
}

// ParseResult bundles everything a ProcessFile call produced: the parsed
// data, the ordered validation results, and processing statistics.
// Constructed once at the end of processing; read-only.
type ParseResult struct {
	ResultID          string                            `json:"result_id"`
	Success           bool                              `json:"success"`
	FilePath          string                            `json:"file_path"`
	Metadata          map[string]string                 `json:"metadata"`
	Schemas           map[string]string                 `json:"schemas"`
	TabContents       map[string]map[string]interface{} `json:"tab_contents"`
	ValidationResults []ValidationResult                `json:"validation_results"`
	Stats             *ProcessingStats                  `json:"processing_stats"`
	ProcessingTime    time.Duration                     `json:"processing_time"`
}

// NewParseResult assembles the final bundle. Success is derived by the
// caller's policy and passed in; the errors/warnings views are derived
// from the validation results on demand.
func NewParseResult(filePath string, success bool, parsed *ParsedWorkbook, results []ValidationResult, procStats *ProcessingStats, elapsed time.Duration) *ParseResult {
	if parsed == nil {
		parsed = NewParsedWorkbook(nil, nil, nil)
	}
	if procStats == nil {
		procStats = NewProcessingStats()
		procStats.Finish()
	}
	return &ParseResult{
		ResultID:          uuid.New().String(),
		Success:           success,
		FilePath:          filePath,
		Metadata:          parsed.Metadata,
		Schemas:           parsed.Schemas,
		TabContents:       parsed.TabContents,
		ValidationResults: results,
		Stats:             procStats,
		ProcessingTime:    elapsed,
	}
}

// Errors returns the messages of every ERROR-severity failure, in order.
func (r *ParseResult) Errors() []string {
	var msgs []string
	for _, v := range r.ValidationResults {
		if v.IsError() {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}

// Warnings returns the messages of every WARNING-severity failure, in order.
func (r *ParseResult) Warnings() []string {
	var msgs []string
	for _, v := range r.ValidationResults {
		if !v.IsValid && v.Severity == SeverityWarning {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}

// ToDict projects the whole result into a JSON-serializable map with no
// opaque values: the wire contract for HTTP or storage layers.
func (r *ParseResult) ToDict() map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(r.ValidationResults))
	for _, v := range r.ValidationResults {
		results = append(results, v.ToDict())
	}
	parsed := &ParsedWorkbook{Metadata: r.Metadata, Schemas: r.Schemas, TabContents: r.TabContents}
	d := parsed.ToDict()
	d["result_id"] = r.ResultID
	d["success"] = r.Success
	d["file_path"] = r.FilePath
	d["validation_results"] = results
	d["processing_stats"] = r.Stats.ToDict()
	d["processing_time_ms"] = float64(r.ProcessingTime.Nanoseconds()) / 1e6
	d["errors"] = r.Errors()
	d["warnings"] = r.Warnings()
	return d
}
