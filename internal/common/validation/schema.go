package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema declares the shape of an object payload.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Default     interface{}         `json:"default,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSONSchema. It is immutable and safe for concurrent use.
type Schema struct {
	interchange map[string]interface{}
	compiled    *gojsonschema.Schema
}

// Compile converts the declaration into its interchange form and prepares a validator.
// A missing root type is reported as "object".
func Compile(s JSONSchema) (*Schema, error) {
	return CompileMap(s.toMap())
}

// CompileMap compiles an interchange schema document, e.g. one read from a tool manifest.
func CompileMap(doc map[string]interface{}) (*Schema, error) {
	interchange := cloneMap(doc)
	if t, ok := interchange["type"].(string); !ok || t == "" {
		interchange["type"] = "object"
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(interchange))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Schema{interchange: interchange, compiled: compiled}, nil
}

// Interchange returns a copy of the JSON Schema document handed to invocation hosts.
func (s *Schema) Interchange() map[string]interface{} {
	return cloneMap(s.interchange)
}

// MarshalJSON renders the interchange document.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.interchange)
}

// Validate checks an untyped payload (decoded JSON or Go values) against the schema.
func (s *Schema) Validate(payload interface{}) *ValidationResult {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Message: fmt.Sprintf("payload is not a JSON document: %v", err),
				Code:    "INVALID_DOCUMENT",
			}},
		}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(re),
			Message: re.Description(),
			Code:    codeOf(re.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}
}

// ValidateInput compiles schema and validates input in one step.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	compiled, err := Compile(schema)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Message: err.Error(), Code: "INVALID_SCHEMA"}},
		}
	}
	return compiled.Validate(input)
}

func fieldOf(re gojsonschema.ResultError) string {
	field := re.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		field = ""
	}
	// required and additionalProperties errors are reported against the parent object.
	if prop, ok := re.Details()["property"].(string); ok {
		switch re.Type() {
		case "required", "additional_property_not_allowed":
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}

func codeOf(errType string) string {
	switch errType {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	case "pattern":
		return "PATTERN_MISMATCH"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "number_gte":
		return "MINIMUM_VIOLATION"
	case "number_lte":
		return "MAXIMUM_VIOLATION"
	default:
		return strings.ToUpper(errType)
	}
}

func (s JSONSchema) toMap() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = p.toMap()
	}

	doc := map[string]interface{}{
		"type":                 s.Type,
		"properties":           props,
		"additionalProperties": s.AdditionalProperties,
	}
	if len(s.Required) > 0 {
		doc["required"] = stringsToAny(s.Required)
	}
	return doc
}

func (p Property) toMap() map[string]interface{} {
	m := map[string]interface{}{"type": p.Type}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Default != nil {
		m["default"] = p.Default
	}
	if p.Minimum != nil {
		m["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		m["maximum"] = *p.Maximum
	}
	if len(p.Enum) > 0 {
		m["enum"] = stringsToAny(p.Enum)
	}
	if p.Pattern != nil {
		m["pattern"] = *p.Pattern
	}
	if p.MinLength != nil {
		m["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		m["maxLength"] = *p.MaxLength
	}
	if p.Items != nil {
		m["items"] = p.Items.toMap()
	}
	if len(p.Properties) > 0 {
		nested := make(map[string]interface{}, len(p.Properties))
		for name, np := range p.Properties {
			nested[name] = np.toMap()
		}
		m["properties"] = nested
	}
	if len(p.Required) > 0 {
		m["required"] = stringsToAny(p.Required)
	}
	return m
}

func stringsToAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func cloneMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		if err.Field == "" {
			messages[i] = err.Message
			continue
		}
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Fields returns the distinct offending field names in report order.
func (vr *ValidationResult) Fields() []string {
	seen := make(map[string]bool, len(vr.Errors))
	fields := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		if err.Field == "" || seen[err.Field] {
			continue
		}
		seen[err.Field] = true
		fields = append(fields, err.Field)
	}
	return fields
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

var (
	toolNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]{0,63}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	e164Pattern     = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// ValidateToolName checks a tool name is usable as a function name and a Zeebe job type.
func ValidateToolName(name string) error {
	if !toolNamePattern.MatchString(name) {
		return fmt.Errorf("tool name %q must start with a letter and contain only letters, digits, '_', '-' or '.'", name)
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone validates an E.164 phone number, the format SNS SMS expects.
func ValidatePhone(phone string) bool {
	return e164Pattern.MatchString(phone)
}
