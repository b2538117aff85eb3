// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package errorpaths turns backend validation error descriptors into
// structured, section-scoped errors.
//
// The backend reports validation failures as a flat list of
// {message, paths} descriptors where each path follows the convention
// "/sections/<sectionId>[/<fieldId>[/<fieldIndex>]]". This package parses
// those paths and regroups the flat list by section id, which is what lets
// the orchestrator fan a single server error list out into per-section
// state updates.
package errorpaths

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

// sectionsToken is the path segment that anchors every parseable path.
const sectionsToken = "sections"

// SectionErrorPath is the parsed form of one error path string.
type SectionErrorPath struct {
	// SectionID is the section the error is scoped to. Always set.
	SectionID string

	// FieldID is the form field inside the section, or "" for a
	// section-level error.
	FieldID string

	// FieldIndex is the value index within the field. Defaults to 0
	// when the path names a field without an index.
	FieldIndex int

	// OriginalPath is the unmodified input path.
	OriginalPath string
}

// IsFieldScoped reports whether the path names a specific form field.
func (p SectionErrorPath) IsFieldScoped() bool {
	return p.FieldID != ""
}

// Parse parses a single error path string.
//
// The path is split on "/" and interpreted relative to the "sections"
// segment: two or more trailing tokens mean a field-scoped error
// (sectionId/fieldId[/fieldIndex], index defaulting to 0), a single
// trailing token a section-level error.
func Parse(path string) (SectionErrorPath, error) {
	tokens := make([]string, 0, 4)
	for _, t := range strings.Split(path, "/") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}

	anchor := -1
	for i, t := range tokens {
		if t == sectionsToken {
			anchor = i
			break
		}
	}
	if anchor < 0 || anchor == len(tokens)-1 {
		return SectionErrorPath{}, fmt.Errorf("error path %q is not section-scoped", path)
	}

	rest := tokens[anchor+1:]
	parsed := SectionErrorPath{
		SectionID:    rest[0],
		OriginalPath: path,
	}
	if len(rest) >= 2 {
		parsed.FieldID = rest[1]
		if len(rest) >= 3 {
			idx, err := strconv.Atoi(rest[2])
			if err != nil {
				return SectionErrorPath{}, fmt.Errorf("error path %q has non-numeric field index: %w", path, err)
			}
			parsed.FieldIndex = idx
		}
	}
	return parsed, nil
}

// Group regroups a flat descriptor list into per-section error lists.
//
// Each descriptor contributes one SectionError per path, retaining the
// original path string and message. Paths that fail to parse are skipped;
// a malformed path from the server must not poison the rest of the list.
func Group(descriptors []datatypes.ErrorDescriptor) map[string][]datatypes.SectionError {
	grouped := make(map[string][]datatypes.SectionError)
	for _, desc := range descriptors {
		for _, path := range desc.Paths {
			parsed, err := Parse(path)
			if err != nil {
				continue
			}
			grouped[parsed.SectionID] = append(grouped[parsed.SectionID], datatypes.SectionError{
				Path:    path,
				Message: desc.Message,
			})
		}
	}
	return grouped
}
