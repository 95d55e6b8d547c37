package coercer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"formintake/domain/record"
)

// Constraints declares the value-level rules layered on top of type
// coercion. Zero-value fields mean "no constraint".
type Constraints struct {
	MinValue  *float64                `json:"min_value,omitempty"`
	MaxValue  *float64                `json:"max_value,omitempty"`
	MinLength *int                    `json:"min_length,omitempty"`
	MaxLength *int                    `json:"max_length,omitempty"`
	Enum      []string                `json:"enum,omitempty"`
	Pattern   string                  `json:"pattern,omitempty"`
	Custom    func(interface{}) error `json:"-"`
}

// ValidateConstraints checks every declared constraint against an already
// coerced value and collects all violations into one aggregate result —
// it never stops at the first failure.
func ValidateConstraints(fieldName string, value interface{}, cons Constraints) record.ValidationResult {
	var violations []string

	if cons.MinValue != nil || cons.MaxValue != nil {
		if num, ok := asFloat(value); ok {
			if cons.MinValue != nil && num < *cons.MinValue {
				violations = append(violations, fmt.Sprintf("value %v below minimum %v", num, *cons.MinValue))
			}
			if cons.MaxValue != nil && num > *cons.MaxValue {
				violations = append(violations, fmt.Sprintf("value %v above maximum %v", num, *cons.MaxValue))
			}
		} else {
			violations = append(violations, fmt.Sprintf("value %v is not numeric, cannot check range", value))
		}
	}

	if cons.MinLength != nil || cons.MaxLength != nil {
		s := toString(value)
		if cons.MinLength != nil && len(s) < *cons.MinLength {
			violations = append(violations, fmt.Sprintf("length %d below minimum %d", len(s), *cons.MinLength))
		}
		if cons.MaxLength != nil && len(s) > *cons.MaxLength {
			violations = append(violations, fmt.Sprintf("length %d above maximum %d", len(s), *cons.MaxLength))
		}
	}

	if len(cons.Enum) > 0 {
		s := toString(value)
		found := false
		for _, allowed := range cons.Enum {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			violations = append(violations, fmt.Sprintf("value %q not in allowed set [%s]", s, strings.Join(cons.Enum, ", ")))
		}
	}

	if cons.Pattern != "" {
		re, err := regexp.Compile(cons.Pattern)
		if err != nil {
			violations = append(violations, fmt.Sprintf("invalid constraint pattern %q: %v", cons.Pattern, err))
		} else if !re.MatchString(toString(value)) {
			violations = append(violations, fmt.Sprintf("value %q does not match pattern %q", toString(value), cons.Pattern))
		}
	}

	if cons.Custom != nil {
		if err := cons.Custom(value); err != nil {
			violations = append(violations, err.Error())
		}
	}

	if len(violations) == 0 {
		return record.Pass(fieldName, "all constraints satisfied")
	}

	return record.Failure(fieldName, strings.Join(violations, "; "), record.SeverityError).
		WithContext(map[string]interface{}{
			"value":      value,
			"violations": violations,
		})
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
