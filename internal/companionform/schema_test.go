package companionform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/suPer8Hu/companion-studio/internal/companion"
)

func validFields() companion.Fields {
	return companion.Fields{
		Name:         "Sebastian",
		Description:  "A blogger",
		Instructions: strings.Repeat("a", 200),
		Seed:         strings.Repeat("b", 200),
		Src:          "img.png",
		CategoryID:   "c1",
	}
}

func TestValidateFields_Valid(t *testing.T) {
	assert.Empty(t, ValidateFields(validFields()))

	f := validFields()
	f.Instructions = strings.Repeat("é", 200) // counted as characters, not bytes
	f.Seed = strings.Repeat("🙂", 200)
	assert.Empty(t, ValidateFields(f))
}

func TestValidateFields_MissingNameIsIndependent(t *testing.T) {
	cases := map[string]func(*companion.Fields){
		"others valid":   func(*companion.Fields) {},
		"others missing": func(f *companion.Fields) { f.Src, f.CategoryID = "", "" },
		"short texts":    func(f *companion.Fields) { f.Instructions, f.Seed = "x", "y" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := validFields()
			mutate(&f)
			f.Name = ""

			errs := ValidateFields(f)
			var nameErrs []FieldError
			for _, fe := range errs {
				if fe.Field == FieldName {
					nameErrs = append(nameErrs, fe)
				}
			}
			assert.Equal(t, []FieldError{{Field: FieldName, Message: "Name is required"}}, nameErrs)
		})
	}
}

func TestValidateFields_Messages(t *testing.T) {
	errs := ValidateFields(companion.Fields{})
	assert.Equal(t, ValidationErrors{
		{Field: FieldName, Message: "Name is required"},
		{Field: FieldDescription, Message: "Description is required"},
		{Field: FieldInstructions, Message: "Instrunctions is required at 200 characters minimum"},
		{Field: FieldSeed, Message: "Seed is required at 200 characters minimum"},
		{Field: FieldSrc, Message: "Image is required"},
		{Field: FieldCategoryID, Message: "Category is required"},
	}, errs)
}

func TestValidateFields_LengthBoundary(t *testing.T) {
	f := validFields()
	f.Instructions = strings.Repeat("a", 199)
	f.Seed = strings.Repeat("b", 199)

	errs := ValidateFields(f)
	assert.Len(t, errs, 2)
	assert.True(t, errs.Has(FieldInstructions))
	assert.True(t, errs.Has(FieldSeed))
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: FieldSrc, Message: "Image is required"}}
	assert.Equal(t, "validation failed: src: Image is required", errs.Error())
	assert.Equal(t, map[Field]string{FieldSrc: "Image is required"}, errs.Map())
}
