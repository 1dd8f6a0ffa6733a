// Package template implements a pure-function linter for dataset templates
// (spec §4.4): it never mutates its input and performs no I/O.
package template

import (
	"fmt"
	"sort"
	"strings"
)

var allowedFieldTypes = map[string]bool{
	"string":      true,
	"number":      true,
	"boolean":     true,
	"categorical": true,
	"array":       true,
}

var knownTopLevelKeys = map[string]bool{
	"id":                true,
	"name":              true,
	"fields":            true,
	"annotation_schema": true,
	"description":       true,
}

// Result is the outcome of validating a template.
type Result struct {
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	TemplateID string   `json:"template_id,omitempty"`
}

// Validate lints template, a decoded JSON object, against the dataset
// template rules. It never mutates template.
func Validate(tmpl map[string]interface{}) Result {
	var errors, warnings []string

	id, _ := tmpl["id"].(string)

	for _, key := range []string{"id", "name", "fields"} {
		if _, ok := tmpl[key]; !ok {
			errors = append(errors, fmt.Sprintf("missing required top-level key %q", key))
		}
	}

	if rawFields, ok := tmpl["fields"]; ok {
		fieldErrors, fieldWarnings := validateFields(rawFields)
		errors = append(errors, fieldErrors...)
		warnings = append(warnings, fieldWarnings...)
	}

	if _, ok := tmpl["annotation_schema"]; !ok {
		warnings = append(warnings, "missing annotation_schema")
	}

	for key := range tmpl {
		if !knownTopLevelKeys[key] {
			warnings = append(warnings, fmt.Sprintf("unknown top-level key %q", key))
		}
	}
	sort.Strings(warnings)

	return Result{
		Valid:      len(errors) == 0,
		Errors:     errors,
		Warnings:   warnings,
		TemplateID: id,
	}
}

func validateFields(raw interface{}) (errors, warnings []string) {
	fields, ok := raw.([]interface{})
	if !ok {
		return []string{"\"fields\" must be a list"}, nil
	}
	if len(fields) == 0 {
		return []string{"\"fields\" must be a non-empty list"}, nil
	}

	seenNames := make(map[string]bool, len(fields))
	for i, rawField := range fields {
		field, ok := rawField.(map[string]interface{})
		if !ok {
			errors = append(errors, fmt.Sprintf("field at index %d must be an object", i))
			continue
		}

		name, _ := field["name"].(string)
		if strings.TrimSpace(name) == "" {
			errors = append(errors, fmt.Sprintf("field at index %d is missing a non-empty \"name\"", i))
		} else {
			lower := strings.ToLower(name)
			if seenNames[lower] {
				errors = append(errors, fmt.Sprintf("field name %q is duplicated (case-insensitive)", name))
			}
			seenNames[lower] = true
		}

		fieldType, _ := field["type"].(string)
		if !allowedFieldTypes[fieldType] {
			errors = append(errors, fmt.Sprintf("field %q has unknown type %q", fieldLabel(name, i), fieldType))
		}

		if fieldType == "categorical" {
			options, ok := field["options"].([]interface{})
			if !ok || len(options) == 0 {
				errors = append(errors, fmt.Sprintf("field %q is categorical but has no non-empty \"options\"", fieldLabel(name, i)))
			}
		}
	}
	return errors, warnings
}

func fieldLabel(name string, index int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", index)
}
