// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for identifiers that end
// up in backend URLs.
//
// Submission and collection ids arrive from HTTP path parameters and are
// interpolated into REST paths; validating them here prevents path
// traversal and request smuggling through crafted ids.
package validation

import (
	"fmt"
	"regexp"
)

// resourceIDPattern matches backend resource identifiers: numeric ids
// and UUIDs, plus the dotted forms some repositories use as handles.
// Max length: 64 characters.
var resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]{0,63}$`)

// ValidateResourceID validates a submission, item, or collection id
// before it is used to build a backend URL.
//
// Valid ids:
//   - 1-64 characters
//   - Letters, digits
//   - Dots (.) and hyphens (-) after the first character
//
// Returns an error if the id is invalid.
//
// Example:
//
//	if err := validation.ValidateResourceID(submissionID); err != nil {
//	    return nil, fmt.Errorf("invalid submission id: %w", err)
//	}
func ValidateResourceID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if len(id) > 64 {
		return fmt.Errorf("id too long (%d chars, max 64)", len(id))
	}
	if !resourceIDPattern.MatchString(id) {
		return fmt.Errorf("id contains invalid characters: %q", id)
	}
	return nil
}
