package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"formintake/adapters/coercer"
	"formintake/domain/record"
)

// FormatPatterns are the known data-format regexes applied by CheckFormats.
var FormatPatterns = map[string]*regexp.Regexp{
	"email":       regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`),
	"phone":       regexp.MustCompile(`^\+?[0-9][0-9\-\s().]{6,19}$`),
	"url":         regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`),
	"zip":         regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`),
	"ssn":         regexp.MustCompile(`^[0-9]{3}-[0-9]{2}-[0-9]{4}$`),
	"credit_card": regexp.MustCompile(`^[0-9]{13,19}$`),
}

// BusinessRule is one named predicate evaluated over a whole extracted
// record. Rules are independent: each is evaluated and reported on its
// own, and a predicate that fails or panics becomes an ERROR result for
// that rule only.
type BusinessRule struct {
	Name      string
	Predicate func(data map[string]interface{}) (bool, error)
	Message   string
}

// CheckRequired reports every required field that is absent or empty.
func (a *Aggregator) CheckRequired(tab string, data map[string]interface{}, required []string) []record.ValidationResult {
	var results []record.ValidationResult
	for _, name := range required {
		value, present := data[name]
		if !present || isBlank(value) {
			results = append(results, record.Failure(name, a.message("field_required"), record.SeverityError).
				WithLocation(tab).
				WithContext(map[string]interface{}{"present": present}))
		}
	}
	return results
}

// CheckConstraints applies per-field constraint sets to extracted data.
// Fields without a constraint entry, or absent from the data, are skipped.
func (a *Aggregator) CheckConstraints(tab string, data map[string]interface{}, constraints map[string]coercer.Constraints) []record.ValidationResult {
	var results []record.ValidationResult

	names := make([]string, 0, len(constraints))
	for name := range constraints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := data[name]
		if !ok || isBlank(value) {
			continue
		}
		res := coercer.ValidateConstraints(name, value, constraints[name])
		if !res.IsValid {
			results = append(results, res.WithLocation(tab))
		}
	}
	return results
}

// CheckFormats validates fields against named format patterns: formats
// maps field name to a FormatPatterns key.
func (a *Aggregator) CheckFormats(tab string, data map[string]interface{}, formats map[string]string) []record.ValidationResult {
	var results []record.ValidationResult

	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		format := formats[name]
		pattern, known := FormatPatterns[format]
		if !known {
			results = append(results, record.Failure(name,
				fmt.Sprintf("unknown data format %q", format), record.SeverityWarning).
				WithLocation(tab))
			continue
		}

		value, ok := data[name]
		if !ok || isBlank(value) {
			continue
		}
		s := fmt.Sprintf("%v", value)
		if !pattern.MatchString(s) {
			results = append(results, record.Failure(name,
				fmt.Sprintf("value %q does not match %s format", s, format), record.SeverityError).
				WithLocation(tab).
				WithContext(map[string]interface{}{"value": s, "format": format}))
		}
	}
	return results
}

// CheckBusinessRules evaluates each rule independently against the whole
// record. A nil predicate, a returned error, or a panic is caught and
// reported as that rule's own ERROR; remaining rules still run.
func (a *Aggregator) CheckBusinessRules(tab string, data map[string]interface{}, rules []BusinessRule) []record.ValidationResult {
	var results []record.ValidationResult
	for _, rule := range rules {
		results = append(results, a.evalRule(tab, data, rule))
	}
	return results
}

func (a *Aggregator) evalRule(tab string, data map[string]interface{}, rule BusinessRule) (result record.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("business rule panicked",
				zap.String("rule", rule.Name),
				zap.Any("panic", r))
			result = record.Failure(rule.Name,
				fmt.Sprintf("business rule %q failed to evaluate: %v", rule.Name, r), record.SeverityError).
				WithLocation(tab)
		}
	}()

	if rule.Predicate == nil {
		return record.Failure(rule.Name,
			fmt.Sprintf("business rule %q has no predicate", rule.Name), record.SeverityError).
			WithLocation(tab)
	}

	ok, err := rule.Predicate(data)
	if err != nil {
		return record.Failure(rule.Name,
			fmt.Sprintf("business rule %q failed to evaluate: %v", rule.Name, err), record.SeverityError).
			WithLocation(tab)
	}
	if !ok {
		return record.Failure(rule.Name, rule.Message, record.SeverityError).
			WithLocation(tab)
	}
	return record.Pass(rule.Name, fmt.Sprintf("business rule %q satisfied", rule.Name))
}

func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
