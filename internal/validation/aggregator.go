package validation

import (
	"go.uber.org/zap"

	"formintake/domain/record"
	"formintake/internal/config"
)

// Messages is the error-message substitution table. It is explicit
// configuration passed to the aggregator — never module-level state — so
// concurrent callers cannot observe each other's customizations.
type Messages map[string]string

// DefaultMessages returns the built-in message table.
func DefaultMessages() Messages {
	return Messages{
		"file_not_found":     "file does not exist",
		"file_not_regular":   "path is not a regular file",
		"file_not_readable":  "file is not readable",
		"file_bad_ext":       "file extension is not allowed",
		"file_too_large":     "file exceeds the maximum allowed size",
		"file_bad_structure": "file structure is not a valid workbook",
		"workbook_no_sheets": "workbook contains no worksheets",
		"workbook_too_many":  "workbook exceeds the maximum tab count",
		"workbook_bad_names": "workbook contains illegal worksheet names",
		"workbook_missing":   "required tabs are missing",
		"field_required":     "required field is missing or empty",
	}
}

// Aggregator runs the file, workbook, schema, and data check groups and
// collects their results into flat ordered lists.
type Aggregator struct {
	cfg      *config.Config
	messages Messages
	logger   *zap.Logger
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithMessages overrides entries of the default message table.
func WithMessages(overrides Messages) Option {
	return func(a *Aggregator) {
		for k, v := range overrides {
			a.messages[k] = v
		}
	}
}

// NewAggregator builds an aggregator bound to one configuration.
func NewAggregator(cfg *config.Config, logger *zap.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{cfg: cfg, messages: DefaultMessages(), logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) message(key string) string {
	if msg, ok := a.messages[key]; ok {
		return msg
	}
	return key
}

// HasErrors reports whether any result is an ERROR-severity failure.
func HasErrors(results []record.ValidationResult) bool {
	for _, r := range results {
		if r.IsError() {
			return true
		}
	}
	return false
}

// Success applies the aggregate policy: true iff there are zero ERROR
// results, or strict mode is off. WARNING and INFO never affect success.
func Success(results []record.ValidationResult, strict bool) bool {
	if !strict {
		return true
	}
	return !HasErrors(results)
}
