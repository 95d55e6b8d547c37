package coercer

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"formintake/domain/schema"
)

// Result is the outcome of coercing one raw cell value against a declared
// target type. The original raw value is preserved in Context even when
// coercion fails, so callers can show the user what they typed.
type Result struct {
	Value   interface{}            `json:"value"`
	IsValid bool                   `json:"is_valid"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// datetimeFormats is the ordered list of layouts tried for datetime and
// date targets; first match wins.
var datetimeFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

var timeFormats = []string{
	"15:04:05",
	"15:04",
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	trueTokens  = map[string]bool{"true": true, "1": true, "yes": true, "on": true}
	falseTokens = map[string]bool{"false": true, "0": true, "no": true, "off": true}
)

// Coercer converts raw cell values to their declared field types.
type Coercer struct{}

// New returns a Coercer with the standard format tables.
func New() *Coercer {
	return &Coercer{}
}

// Coerce attempts to convert raw to the target type. A nil or empty raw
// value is invalid against every type; the caller decides whether that is
// fatal based on field optionality.
func (c *Coercer) Coerce(raw interface{}, target schema.ValueType) Result {
	if isEmpty(raw) {
		return Result{
			Value:   raw,
			IsValid: false,
			Message: "value is None/empty",
			Context: map[string]interface{}{"raw": raw, "target_type": string(target)},
		}
	}

	switch target {
	case schema.ValueTypeString:
		return c.coerceString(raw)
	case schema.ValueTypeInteger:
		return c.coerceInteger(raw)
	case schema.ValueTypeFloat:
		return c.coerceFloat(raw)
	case schema.ValueTypeBoolean:
		return c.coerceBoolean(raw)
	case schema.ValueTypeDatetime, schema.ValueTypeDate:
		return c.coerceDatetime(raw, target, datetimeFormats)
	case schema.ValueTypeTime:
		return c.coerceDatetime(raw, target, timeFormats)
	case schema.ValueTypeEmail:
		return c.coercePattern(raw, target, emailPattern, "email")
	case schema.ValueTypeURL:
		return c.coerceURL(raw)
	}

	return conversionFailure(raw, target)
}

func (c *Coercer) coerceString(raw interface{}) Result {
	if s, ok := raw.(string); ok {
		return valid(s)
	}
	return valid(toString(raw))
}

func (c *Coercer) coerceInteger(raw interface{}) Result {
	switch v := raw.(type) {
	case int:
		return valid(v)
	case int64:
		return valid(int(v))
	case float64:
		return valid(int(v))
	case string:
		// Float-then-int tolerates "123.0" style numeric strings. ParseFloat
		// also accepts "NaN"/"Inf", whose int cast is garbage, so non-finite
		// values are rejected.
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return conversionFailure(raw, schema.ValueTypeInteger)
			}
			return valid(int(f))
		}
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return valid(i)
		}
	}
	return conversionFailure(raw, schema.ValueTypeInteger)
}

func (c *Coercer) coerceFloat(raw interface{}) Result {
	switch v := raw.(type) {
	case float64:
		return valid(v)
	case float32:
		return valid(float64(v))
	case int:
		return valid(float64(v))
	case int64:
		return valid(float64(v))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return valid(f)
		}
	}
	return conversionFailure(raw, schema.ValueTypeFloat)
}

func (c *Coercer) coerceBoolean(raw interface{}) Result {
	switch v := raw.(type) {
	case bool:
		return valid(v)
	case string:
		token := strings.ToLower(strings.TrimSpace(v))
		if trueTokens[token] {
			return valid(true)
		}
		if falseTokens[token] {
			return valid(false)
		}
		return Result{
			Value:   raw,
			IsValid: false,
			Message: fmt.Sprintf("TYPE_CONVERSION_FAILED: %q is not a recognized boolean token", v),
			Context: map[string]interface{}{"raw": raw, "target_type": string(schema.ValueTypeBoolean)},
		}
	case int:
		return valid(v != 0)
	case int64:
		return valid(v != 0)
	case float64:
		return valid(v != 0)
	}
	return conversionFailure(raw, schema.ValueTypeBoolean)
}

func (c *Coercer) coerceDatetime(raw interface{}, target schema.ValueType, formats []string) Result {
	switch v := raw.(type) {
	case time.Time:
		return valid(v)
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range formats {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return valid(t)
			}
		}
		return Result{
			Value:   raw,
			IsValid: false,
			Message: fmt.Sprintf("TYPE_CONVERSION_FAILED: %q does not match any %s format", v, target),
			Context: map[string]interface{}{"raw": v, "target_type": string(target), "formats": formats},
		}
	}
	return conversionFailure(raw, target)
}

func (c *Coercer) coercePattern(raw interface{}, target schema.ValueType, pattern *regexp.Regexp, kind string) Result {
	s := toString(raw)
	if pattern.MatchString(s) {
		return valid(s)
	}
	return Result{
		Value:   raw,
		IsValid: false,
		Message: fmt.Sprintf("TYPE_CONVERSION_FAILED: %q is not a valid %s", s, kind),
		Context: map[string]interface{}{"raw": raw, "target_type": string(target)},
	}
}

func (c *Coercer) coerceURL(raw interface{}) Result {
	s := toString(raw)
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return valid(s)
	}
	return Result{
		Value:   raw,
		IsValid: false,
		Message: fmt.Sprintf("TYPE_CONVERSION_FAILED: %q is not a valid url", s),
		Context: map[string]interface{}{"raw": raw, "target_type": string(schema.ValueTypeURL)},
	}
}

func valid(value interface{}) Result {
	return Result{Value: value, IsValid: true}
}

func conversionFailure(raw interface{}, target schema.ValueType) Result {
	return Result{
		Value:   raw,
		IsValid: false,
		Message: fmt.Sprintf("TYPE_CONVERSION_FAILED: cannot convert %v to %s", raw, target),
		Context: map[string]interface{}{"raw": raw, "target_type": string(target)},
	}
}

func isEmpty(raw interface{}) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// toString converts any raw cell value to its string representation.
func toString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
