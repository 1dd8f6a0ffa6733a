package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTemplate() map[string]interface{} {
	return map[string]interface{}{
		"id":   "t1",
		"name": "Invoice",
		"fields": []interface{}{
			map[string]interface{}{"name": "Vendor", "type": "string"},
			map[string]interface{}{"name": "Amount", "type": "number"},
		},
		"annotation_schema": map[string]interface{}{},
	}
}

func TestValidate_ValidTemplatePasses(t *testing.T) {
	r := Validate(validTemplate())
	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, "t1", r.TemplateID)
}

func TestValidate_MissingRequiredKeys(t *testing.T) {
	r := Validate(map[string]interface{}{"name": "Invoice"})
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors, `missing required top-level key "id"`)
	assert.Contains(t, r.Errors, `missing required top-level key "fields"`)
}

func TestValidate_EmptyFieldsListIsError(t *testing.T) {
	tmpl := validTemplate()
	tmpl["fields"] = []interface{}{}
	r := Validate(tmpl)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors, `"fields" must be a non-empty list`)
}

func TestValidate_DuplicateFieldNamesCaseInsensitive(t *testing.T) {
	tmpl := validTemplate()
	tmpl["fields"] = []interface{}{
		map[string]interface{}{"name": "Vendor", "type": "string"},
		map[string]interface{}{"name": "vendor", "type": "string"},
	}
	r := Validate(tmpl)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "duplicated")
}

func TestValidate_CategoricalWithoutOptionsIsError(t *testing.T) {
	tmpl := validTemplate()
	tmpl["fields"] = []interface{}{
		map[string]interface{}{"name": "Status", "type": "categorical"},
	}
	r := Validate(tmpl)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "categorical")
}

func TestValidate_MissingAnnotationSchemaIsWarningNotError(t *testing.T) {
	tmpl := validTemplate()
	delete(tmpl, "annotation_schema")
	r := Validate(tmpl)
	assert.True(t, r.Valid)
	assert.Contains(t, r.Warnings, "missing annotation_schema")
}

func TestValidate_UnknownTopLevelKeyIsWarning(t *testing.T) {
	tmpl := validTemplate()
	tmpl["extra_field"] = "x"
	r := Validate(tmpl)
	assert.True(t, r.Valid)
	assert.Contains(t, r.Warnings, `unknown top-level key "extra_field"`)
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	tmpl := validTemplate()
	before := len(tmpl)
	Validate(tmpl)
	assert.Equal(t, before, len(tmpl))
}
