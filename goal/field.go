package goal

import (
	"strings"

	"github.com/goalchain/goalchain/types"
)

// Validator normalizes a raw extracted value. Reject a value by returning a
// *types.ValidationError; any other error is treated as an infrastructure
// failure and aborts the turn instead of re-prompting.
type Validator func(raw any) (any, error)

// Field is a single named slot a goal wants filled. Fields are declared when
// the goal is defined and hold no per-conversation state; values live in the
// orchestrator's collected data.
type Field struct {
	Name        string
	Description string
	FormatHint  string
	Optional    bool

	validator Validator
}

type FieldOption func(*Field)

func WithFormatHint(hint string) FieldOption {
	return func(f *Field) { f.FormatHint = hint }
}

func WithValidator(v Validator) FieldOption {
	return func(f *Field) { f.validator = v }
}

func OptionalField() FieldOption {
	return func(f *Field) { f.Optional = true }
}

func NewField(name, description string, opts ...FieldOption) Field {
	f := Field{
		Name:        name,
		Description: description,
	}
	for _, opt := range opts {
		opt(&f)
	}
	// "(optional)" in the description marks the field optional as well.
	if strings.Contains(strings.ToLower(description), "(optional)") {
		f.Optional = true
	}
	return f
}

// Validate runs the field's validator against a raw value. Without a
// validator any non-empty value satisfies the field.
func (f Field) Validate(raw any) (any, error) {
	if f.validator == nil {
		if isEmptyValue(raw) {
			return nil, &types.ValidationError{
				Field:   f.Name,
				Message: "a value for " + f.Description + " is required",
			}
		}
		return raw, nil
	}
	value, err := f.validator(raw)
	if err != nil {
		if ve, ok := err.(*types.ValidationError); ok && ve.Field == "" {
			ve.Field = f.Name
		}
		return nil, err
	}
	return value, nil
}

func isEmptyValue(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// FieldSpec is the prompt-facing description of a field.
type FieldSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FormatHint  string `json:"format_hint,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

func (f Field) Spec() FieldSpec {
	return FieldSpec{
		Name:        f.Name,
		Description: f.Description,
		FormatHint:  f.FormatHint,
		Optional:    f.Optional,
	}
}
