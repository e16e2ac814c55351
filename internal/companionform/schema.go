package companionform

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/suPer8Hu/companion-studio/internal/companion"
)

// Field names as used by the rendering layer.
type Field string

const (
	FieldName         Field = "name"
	FieldDescription  Field = "description"
	FieldInstructions Field = "instructions"
	FieldSeed         Field = "seed"
	FieldSrc          Field = "src"
	FieldCategoryID   Field = "categoryId"
)

// Fields lists every form field in display order.
var Fields = []Field{
	FieldName,
	FieldDescription,
	FieldInstructions,
	FieldSeed,
	FieldSrc,
	FieldCategoryID,
}

// ErrUnknownField is returned by SetField for names outside Fields.
var ErrUnknownField = errors.New("unknown form field")

type rule struct {
	tag     string
	message string
}

// string length rules count runes
var schema = map[Field]rule{
	FieldName:         {tag: "required", message: "Name is required"},
	FieldDescription:  {tag: "required", message: "Description is required"},
	FieldInstructions: {tag: "min=200", message: "Instrunctions is required at 200 characters minimum"},
	FieldSeed:         {tag: "min=200", message: "Seed is required at 200 characters minimum"},
	FieldSrc:          {tag: "required", message: "Image is required"},
	FieldCategoryID:   {tag: "required", message: "Category is required"},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is a single (field, message) violation.
type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the set of violations found in one validation pass.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, string(fe.Field)+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Map returns the violations keyed by field.
func (v ValidationErrors) Map() map[Field]string {
	out := make(map[Field]string, len(v))
	for _, fe := range v {
		out[fe.Field] = fe.Message
	}
	return out
}

func (v ValidationErrors) Has(f Field) bool {
	for _, fe := range v {
		if fe.Field == f {
			return true
		}
	}
	return false
}

// ValidateFields checks every rule independently and collects all
// violations, in field display order.
func ValidateFields(f companion.Fields) ValidationErrors {
	var errs ValidationErrors
	for _, name := range Fields {
		if msg, ok := checkField(name, valueOf(f, name)); !ok {
			errs = append(errs, FieldError{Field: name, Message: msg})
		}
	}
	return errs
}

func checkField(name Field, value string) (string, bool) {
	r := schema[name]
	if err := validate.Var(value, r.tag); err != nil {
		return r.message, false
	}
	return "", true
}

func valueOf(f companion.Fields, name Field) string {
	switch name {
	case FieldName:
		return f.Name
	case FieldDescription:
		return f.Description
	case FieldInstructions:
		return f.Instructions
	case FieldSeed:
		return f.Seed
	case FieldSrc:
		return f.Src
	case FieldCategoryID:
		return f.CategoryID
	}
	return ""
}

func setValue(f *companion.Fields, name Field, value string) error {
	switch name {
	case FieldName:
		f.Name = value
	case FieldDescription:
		f.Description = value
	case FieldInstructions:
		f.Instructions = value
	case FieldSeed:
		f.Seed = value
	case FieldSrc:
		f.Src = value
	case FieldCategoryID:
		f.CategoryID = value
	default:
		return ErrUnknownField
	}
	return nil
}

func sortedErrors(m map[Field]string) ValidationErrors {
	order := make(map[Field]int, len(Fields))
	for i, f := range Fields {
		order[f] = i
	}
	out := make(ValidationErrors, 0, len(m))
	for f, msg := range m {
		out = append(out, FieldError{Field: f, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Field] < order[out[j].Field] })
	return out
}
