package schema

import (
	"fmt"

	"formintake/domain/cellref"
	"formintake/internal/errors"
)

// ValueType defines the declared storage type for a field's cell value
type ValueType string

const (
	ValueTypeString   ValueType = "string"
	ValueTypeInteger  ValueType = "integer"
	ValueTypeFloat    ValueType = "float"
	ValueTypeBoolean  ValueType = "boolean"
	ValueTypeDatetime ValueType = "datetime"
	ValueTypeDate     ValueType = "date"
	ValueTypeTime     ValueType = "time"
	ValueTypeEmail    ValueType = "email"
	ValueTypeURL      ValueType = "url"
)

// SupportedValueTypes lists every type a field definition may declare.
var SupportedValueTypes = []ValueType{
	ValueTypeString,
	ValueTypeInteger,
	ValueTypeFloat,
	ValueTypeBoolean,
	ValueTypeDatetime,
	ValueTypeDate,
	ValueTypeTime,
	ValueTypeEmail,
	ValueTypeURL,
}

// ParseValueType validates a raw type name against the closed enumeration
func ParseValueType(raw string) (ValueType, error) {
	for _, vt := range SupportedValueTypes {
		if string(vt) == raw {
			return vt, nil
		}
	}
	return "", errors.SchemaError(fmt.Sprintf("unsupported value type: %q", raw))
}

// IsSupported reports whether vt is one of the declared value types.
func (vt ValueType) IsSupported() bool {
	_, err := ParseValueType(string(vt))
	return err == nil
}

// FieldDefinition is one declared field inside a schema: where its value
// lives on the worksheet and what type it must coerce to.
type FieldDefinition struct {
	Name         string    `json:"name"`
	ValueAddress string    `json:"value_address"`
	ValueType    ValueType `json:"value_type"`
	IsDropDown   bool      `json:"is_drop_down"`
	LabelAddress string    `json:"label_address,omitempty"`
}

// Validate checks the field's required properties and address legality
func (f FieldDefinition) Validate() error {
	if f.Name == "" {
		return errors.SchemaError("field definition missing name")
	}
	if f.ValueAddress == "" {
		return errors.SchemaError(fmt.Sprintf("field %q missing value address", f.Name))
	}
	if _, err := cellref.Resolve(f.ValueAddress); err != nil {
		return errors.Wrapf(err, "field %q has invalid value address %q", f.Name, f.ValueAddress)
	}
	if !f.ValueType.IsSupported() {
		return errors.SchemaError(fmt.Sprintf("field %q has unsupported value type %q", f.Name, f.ValueType))
	}
	return nil
}

// Schema is a named collection of field definitions targeting one tab
type Schema struct {
	SchemaName string            `json:"schema_name"`
	TabName    string            `json:"tab_name"`
	Fields     []FieldDefinition `json:"fields"`
}

// Validate enforces the schema invariants: non-empty names, at least one
// field, and every field individually valid.
func (s Schema) Validate() error {
	if s.SchemaName == "" {
		return errors.SchemaError("schema missing schema_name")
	}
	if s.TabName == "" {
		return errors.SchemaError(fmt.Sprintf("schema %q missing tab_name", s.SchemaName))
	}
	if len(s.Fields) == 0 {
		return errors.SchemaError(fmt.Sprintf("schema %q has no fields", s.SchemaName))
	}
	for _, f := range s.Fields {
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "schema %q", s.SchemaName)
		}
	}
	return nil
}

// Field returns the definition with the given name, if present.
func (s Schema) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}
