package excel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"formintake/adapters/coercer"
	"formintake/domain/record"
	"formintake/domain/schema"
	"formintake/internal/config"
	"formintake/internal/logging"
	"formintake/internal/validation"
	"formintake/ports"
)

// Processor is the top-level entry point: file checks, workbook parse,
// schema and data checks, assembled into one ParseResult per file. A
// Processor is safe for concurrent use; every ProcessFile call owns its
// own stats and result lists, sharing only the read-only registry.
type Processor struct {
	cfg       *config.Config
	registry  *schema.Registry
	opener    ports.WorkbookOpener
	parser    *Parser
	validator *validation.Aggregator
	logger    *zap.Logger
}

// ProcessorOption customizes a Processor at construction.
type ProcessorOption func(*Processor)

// WithOpener swaps the workbook opener (used by tests and alternative
// backends).
func WithOpener(opener ports.WorkbookOpener) ProcessorOption {
	return func(p *Processor) {
		p.opener = opener
	}
}

// WithValidator swaps the validation aggregator, e.g. to install a
// custom message table.
func WithValidator(v *validation.Aggregator) ProcessorOption {
	return func(p *Processor) {
		p.validator = v
	}
}

// NewProcessor wires a processor against a configuration and the
// process-wide schema registry.
func NewProcessor(cfg *config.Config, registry *schema.Registry, logger *zap.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		var err error
		if logger, err = logging.New(cfg.Env); err != nil {
			logger = logging.NewNop()
		}
	}
	p := &Processor{
		cfg:       cfg,
		registry:  registry,
		opener:    NewOpener(),
		validator: validation.NewAggregator(cfg, logger),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.parser = NewParser(p.opener, cfg, logger)
	return p
}

// ProcessOption customizes a single ProcessFile call.
type ProcessOption func(*processOptions)

type processOptions struct {
	requiredTabs   []string
	registry       *schema.Registry
	requiredFields map[string][]string
	constraints    map[string]map[string]coercer.Constraints
	formats        map[string]map[string]string
	rules          map[string][]validation.BusinessRule
}

// WithRequiredTabs declares tabs that must exist in the workbook.
func WithRequiredTabs(tabs ...string) ProcessOption {
	return func(o *processOptions) {
		o.requiredTabs = tabs
	}
}

// WithRegistry overrides the process-wide registry for one call.
func WithRegistry(reg *schema.Registry) ProcessOption {
	return func(o *processOptions) {
		o.registry = reg
	}
}

// WithRequiredFields declares per-tab required field names.
func WithRequiredFields(tab string, fields ...string) ProcessOption {
	return func(o *processOptions) {
		if o.requiredFields == nil {
			o.requiredFields = map[string][]string{}
		}
		o.requiredFields[tab] = fields
	}
}

// WithConstraints declares per-tab field constraint sets.
func WithConstraints(tab string, cons map[string]coercer.Constraints) ProcessOption {
	return func(o *processOptions) {
		if o.constraints == nil {
			o.constraints = map[string]map[string]coercer.Constraints{}
		}
		o.constraints[tab] = cons
	}
}

// WithFormats declares per-tab field format names (see
// validation.FormatPatterns).
func WithFormats(tab string, formats map[string]string) ProcessOption {
	return func(o *processOptions) {
		if o.formats == nil {
			o.formats = map[string]map[string]string{}
		}
		o.formats[tab] = formats
	}
}

// WithBusinessRules declares per-tab business rules.
func WithBusinessRules(tab string, rules ...validation.BusinessRule) ProcessOption {
	return func(o *processOptions) {
		if o.rules == nil {
			o.rules = map[string][]validation.BusinessRule{}
		}
		o.rules[tab] = append(o.rules[tab], rules...)
	}
}

// ProcessFile validates and parses one workbook file end to end.
func (p *Processor) ProcessFile(path string, opts ...ProcessOption) *record.ParseResult {
	options := &processOptions{registry: p.registry}
	for _, opt := range opts {
		opt(options)
	}

	started := time.Now()
	procStats := record.NewProcessingStats()

	p.logger.Info("processing file", zap.String("path", path))

	results := p.validator.CheckFile(path)
	if validation.HasErrors(results) && p.cfg.StrictMode {
		// The one short-circuit: failed file checks skip workbook opening.
		p.logger.Warn("file checks failed in strict mode, skipping workbook", zap.String("path", path))
		return p.assemble(path, nil, results, procStats, started)
	}

	wb, err := p.opener.Open(path)
	if err != nil {
		procStats.ProcessingErrors++
		results = append(results, record.Failure("file_open",
			fmt.Sprintf("failed to open workbook: %v", err), record.SeverityError).
			WithLocation(path))
		return p.assemble(path, nil, results, procStats, started)
	}
	defer wb.Close()

	results = append(results, p.validator.CheckWorkbook(wb, options.requiredTabs)...)

	parsed, parseResults, err := p.parser.ParseWorkbook(wb, options.registry, procStats)
	results = append(results, parseResults...)
	if err != nil {
		procStats.ProcessingErrors++
		results = append(results, record.Failure("parse",
			fmt.Sprintf("workbook parse failed: %v", err), record.SeverityError).
			WithLocation(path))
		return p.assemble(path, nil, results, procStats, started)
	}

	results = append(results, p.checkSchemas(wb, parsed, options.registry)...)
	results = append(results, p.checkData(parsed, options)...)

	return p.assemble(path, parsed, results, procStats, started)
}

// ProcessTab extracts a single tab. When sch is nil the tab name is
// resolved through the processor's registry, honoring aliases.
func (p *Processor) ProcessTab(wb ports.Workbook, tab string, sch *schema.Schema) (map[string]interface{}, []record.ValidationResult, error) {
	extractor := NewExtractor(p.cfg.MissingValuePolicy, p.logger)

	if sch == nil {
		resolved, err := p.registry.Resolve(tab)
		if err != nil {
			return nil, nil, err
		}
		sch = &resolved
	}

	return extractor.ExtractTab(wb, tab, *sch)
}

// ProcessFiles processes independent files concurrently with bounded
// parallelism. Results are positionally aligned with paths; a file's
// failure shows up in its own result, never in a sibling's.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string, opts ...ProcessOption) ([]*record.ParseResult, error) {
	results := make([]*record.ParseResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrentFiles)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessFile(path, opts...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// checkSchemas runs schema-level checks for every schema actually used,
// with bounds taken from each schema's worksheet.
func (p *Processor) checkSchemas(wb ports.Workbook, parsed *record.ParsedWorkbook, reg *schema.Registry) []record.ValidationResult {
	var results []record.ValidationResult
	for tab, schemaName := range parsed.Schemas {
		sch, err := reg.Resolve(schemaName)
		if err != nil {
			continue // already reported during extraction
		}
		rows, cols := 0, 0
		if sheet, err := wb.Sheet(tab); err == nil {
			rows, cols = sheet.Dimensions()
		}
		results = append(results, p.validator.CheckSchema(sch, rows, cols)...)
	}
	return results
}

// checkData runs the data-level check group over extracted tab contents.
func (p *Processor) checkData(parsed *record.ParsedWorkbook, options *processOptions) []record.ValidationResult {
	var results []record.ValidationResult
	for tab, data := range parsed.TabContents {
		results = append(results, p.validator.CheckRequired(tab, data, options.requiredFields[tab])...)
		results = append(results, p.validator.CheckConstraints(tab, data, options.constraints[tab])...)
		results = append(results, p.validator.CheckFormats(tab, data, options.formats[tab])...)
		results = append(results, p.validator.CheckBusinessRules(tab, data, options.rules[tab])...)
	}
	return results
}

// assemble finalizes stats and applies the success policy.
func (p *Processor) assemble(path string, parsed *record.ParsedWorkbook, results []record.ValidationResult, procStats *record.ProcessingStats, started time.Time) *record.ParseResult {
	for _, r := range results {
		if r.IsValid {
			continue
		}
		switch r.Severity {
		case record.SeverityError:
			procStats.ValidationErrors++
		case record.SeverityWarning:
			procStats.Warnings++
		}
	}
	procStats.Finish()

	success := validation.Success(results, p.cfg.StrictMode)
	elapsed := time.Since(started)

	p.logger.Info("file processed",
		zap.String("path", path),
		zap.Bool("success", success),
		zap.Int("validation_results", len(results)),
		zap.Duration("elapsed", elapsed))

	return record.NewParseResult(path, success, parsed, results, procStats, elapsed)
}
