package record

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies a validation result
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// ParseSeverity normalizes a raw severity string to the closed set
func ParseSeverity(raw string) (Severity, error) {
	switch Severity(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeverityError:
		return SeverityError, nil
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityInfo:
		return SeverityInfo, nil
	}
	return "", fmt.Errorf("invalid severity: %q", raw)
}

// ValidationResult is one field/tab/file-scoped validation outcome. Values
// are never mutated after construction, only collected into ordered lists;
// the With* helpers return copies.
type ValidationResult struct {
	FieldName string                 `json:"field_name"`
	IsValid   bool                   `json:"is_valid"`
	Message   string                 `json:"message"`
	Severity  Severity               `json:"severity"`
	Location  string                 `json:"location,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewValidationResult constructs a result, rejecting severities outside
// the ERROR/WARNING/INFO set.
func NewValidationResult(fieldName string, isValid bool, message, severity string) (ValidationResult, error) {
	sev, err := ParseSeverity(severity)
	if err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{
		FieldName: fieldName,
		IsValid:   isValid,
		Message:   message,
		Severity:  sev,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Failure builds an invalid result at the given severity.
func Failure(fieldName, message string, severity Severity) ValidationResult {
	return ValidationResult{
		FieldName: fieldName,
		IsValid:   false,
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
	}
}

// Pass builds a valid INFO result.
func Pass(fieldName, message string) ValidationResult {
	return ValidationResult{
		FieldName: fieldName,
		IsValid:   true,
		Message:   message,
		Severity:  SeverityInfo,
		Timestamp: time.Now().UTC(),
	}
}

// WithLocation returns a copy annotated with a cell reference or tab name.
func (v ValidationResult) WithLocation(location string) ValidationResult {
	v.Location = location
	return v
}

// WithContext returns a copy carrying free-form diagnostic key/values.
func (v ValidationResult) WithContext(ctx map[string]interface{}) ValidationResult {
	merged := make(map[string]interface{}, len(v.Context)+len(ctx))
	for k, val := range v.Context {
		merged[k] = val
	}
	for k, val := range ctx {
		merged[k] = val
	}
	v.Context = merged
	return v
}

// IsError reports whether the result is an ERROR-severity failure.
func (v ValidationResult) IsError() bool {
	return !v.IsValid && v.Severity == SeverityError
}

// ToDict projects the result into a JSON-serializable map.
func (v ValidationResult) ToDict() map[string]interface{} {
	d := map[string]interface{}{
		"field_name": v.FieldName,
		"is_valid":   v.IsValid,
		"message":    v.Message,
		"severity":   string(v.Severity),
		"timestamp":  v.Timestamp.Format(time.RFC3339),
	}
	if v.Location != "" {
		d["location"] = v.Location
	}
	if len(v.Context) > 0 {
		ctx := make(map[string]interface{}, len(v.Context))
		for k, val := range v.Context {
			ctx[k] = val
		}
		d["context"] = ctx
	}
	return d
}
