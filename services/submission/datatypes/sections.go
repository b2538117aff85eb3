// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the submission service.
//
// This file contains section-level types: the section type enumeration,
// visibility rules, opaque section payloads, and per-section validation
// errors parsed from backend responses.
package datatypes

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Section Types
// =============================================================================

// SectionType identifies the kind of wizard section a definition describes.
//
// The values mirror the section type names delivered by the backend inside
// a submission definition. The state core treats section payloads opaquely;
// only a handful of types carry behavior the orchestrator cares about
// (upload suppression, metadata sync, Sherpa clearing).
type SectionType string

const (
	// SectionTypeSubmissionForm is a metadata entry form section.
	SectionTypeSubmissionForm SectionType = "submission-form"

	// SectionTypeUpload is a file upload section. Its payload carries a
	// "files" array of uploaded bitstream descriptors.
	SectionTypeUpload SectionType = "upload"

	// SectionTypeLicense is the distribution license grant section.
	SectionTypeLicense SectionType = "license"

	// SectionTypeCcLicense is the Creative Commons license picker section.
	SectionTypeCcLicense SectionType = "cclicense"

	// SectionTypeAccessCondition configures item/bitstream access policies.
	SectionTypeAccessCondition SectionType = "accessCondition"

	// SectionTypeSherpaPolicies shows publisher open-access policies. Its
	// payload is entirely server-computed; an absent key in a save response
	// means the policies must be cleared client-side.
	SectionTypeSherpaPolicies SectionType = "sherpaPolicies"

	// SectionTypeIdentifiers shows minted identifiers (handle, DOI).
	SectionTypeIdentifiers SectionType = "identifiers"

	// SectionTypeCollection is the owning collection picker section.
	SectionTypeCollection SectionType = "collection"

	// SectionTypeUtils is a hidden utility section used for bulk edits.
	SectionTypeUtils SectionType = "utils"
)

// IsFormBased reports whether the section's errors correlate to fields of
// an external form. Only form-based sections take part in touched-field
// error filtering; every other type always shows its server errors.
func (t SectionType) IsFormBased() bool {
	return t == SectionTypeSubmissionForm
}

// =============================================================================
// Visibility
// =============================================================================

// VisibilityValue restricts how a section is presented in a given scope.
type VisibilityValue string

const (
	// VisibilityNone applies no restriction.
	VisibilityNone VisibilityValue = ""

	// VisibilityHidden removes the section from every visible list.
	VisibilityHidden VisibilityValue = "HIDDEN"

	// VisibilityReadOnly shows the section but forbids edits.
	VisibilityReadOnly VisibilityValue = "READONLY"
)

// SectionVisibility carries the per-scope visibility of a section.
//
// Main applies to the submitter's workspace view, Other to every other
// scope (typically workflow reviewers).
type SectionVisibility struct {
	Main  VisibilityValue `json:"main"`
	Other VisibilityValue `json:"other"`
}

// Hidden reports whether the section must be excluded from all externally
// visible section lists regardless of its enabled state.
func (v *SectionVisibility) Hidden() bool {
	return v != nil && v.Main == VisibilityHidden && v.Other == VisibilityHidden
}

// =============================================================================
// Section Payloads
// =============================================================================

// SectionData is the opaque payload of a section.
//
// The shape depends on the section type and is owned by section-specific
// form logic outside this module. The state core stores and forwards it
// without interpretation; typed views (Files, MetadataView) decode the
// few shapes the orchestrator needs to inspect.
type SectionData map[string]any

// IsEmpty reports whether the payload carries no keys.
func (d SectionData) IsEmpty() bool {
	return len(d) == 0
}

// Clone returns a shallow copy one level deep, enough to keep reducer
// outputs from aliasing the stored payload's top-level map.
func (d SectionData) Clone() SectionData {
	if d == nil {
		return nil
	}
	out := make(SectionData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// UploadFile describes one uploaded bitstream inside an upload section.
type UploadFile struct {
	UUID     string         `json:"uuid"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Sizes    []string       `json:"sizeBytes,omitempty"`
	URL      string         `json:"url,omitempty"`
}

// Files decodes the "files" array of an upload-type payload.
//
// Returns (nil, false) when the payload has no files key, which callers
// must treat differently from an empty array: the former means the section
// never held uploads, the latter that every upload was removed.
func (d SectionData) Files() ([]UploadFile, bool) {
	raw, ok := d["files"]
	if !ok {
		return nil, false
	}

	// The payload arrives either as decoded JSON (slice of maps) or as
	// already-typed UploadFile values when built by the reducer.
	switch v := raw.(type) {
	case []UploadFile:
		return v, true
	case []any:
		files := make([]UploadFile, 0, len(v))
		for _, entry := range v {
			b, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			var f UploadFile
			if err := json.Unmarshal(b, &f); err != nil {
				continue
			}
			files = append(files, f)
		}
		return files, true
	default:
		return nil, false
	}
}

// WithFiles returns a copy of the payload with its files array replaced.
func (d SectionData) WithFiles(files []UploadFile) SectionData {
	out := d.Clone()
	if out == nil {
		out = SectionData{}
	}
	out["files"] = files
	return out
}

// =============================================================================
// Section Errors
// =============================================================================

// SectionError is a single validation error scoped to a section.
//
// Path follows the backend convention
// "/sections/<sectionId>[/<fieldId>[/<fieldIndex>]]".
type SectionError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorDescriptor is the raw error shape delivered by the backend: one
// message attached to one or more section paths.
type ErrorDescriptor struct {
	Message string   `json:"message"`
	Paths   []string `json:"paths"`
}

// ContainsError reports whether errs holds an entry deeply equal to e.
func ContainsError(errs []SectionError, e SectionError) bool {
	for _, cur := range errs {
		if cur == e {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for log output.
func (e SectionError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
