// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the JSON Patch operation type flushed to the
// backend's PATCH /sections endpoint, together with the shared validator
// instance for the datatypes package.
package datatypes

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxPatchValueBytes bounds the serialized size of a single patch
	// value to keep a runaway form from building unbounded requests.
	MaxPatchValueBytes = 256 * 1024

	// SectionsPathPrefix is the root of every patch path this module
	// produces or parses.
	SectionsPathPrefix = "/sections"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// validate is the validator for submission datatypes, configured once at
// package init with the custom patch path rule.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("sectionpath", validateSectionPath)
}

// validateSectionPath accepts only paths rooted under /sections.
func validateSectionPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	return path == SectionsPathPrefix || strings.HasPrefix(path, SectionsPathPrefix+"/")
}

// =============================================================================
// Patch Operations
// =============================================================================

// PatchOpType enumerates the JSON Patch verbs the submission endpoint
// understands.
type PatchOpType string

const (
	// PatchOpAdd inserts a value at a path.
	PatchOpAdd PatchOpType = "add"

	// PatchOpReplace overwrites the value at a path.
	PatchOpReplace PatchOpType = "replace"

	// PatchOpRemove deletes the value at a path.
	PatchOpRemove PatchOpType = "remove"
)

// PatchOperation is one entry of a JSON Patch request body.
//
// Path is always rooted under /sections and scoped to a single section,
// optionally down to a field and field index:
//
//	/sections/traditionalpageone
//	/sections/traditionalpageone/dc.title
//	/sections/traditionalpageone/dc.title/0
type PatchOperation struct {
	Op    PatchOpType `json:"op" validate:"required,oneof=add replace remove"`
	Path  string      `json:"path" validate:"required,sectionpath"`
	Value any         `json:"value,omitempty"`
}

// Validate checks the operation against its struct tags.
func (p PatchOperation) Validate() error {
	return validate.Struct(p)
}

// SectionID extracts the section id a patch path is scoped under, or ""
// when the path is not section-scoped.
func (p PatchOperation) SectionID() string {
	rest, ok := strings.CutPrefix(p.Path, SectionsPathPrefix+"/")
	if !ok {
		return ""
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i]
	}
	return rest
}
