// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package formstate is the boundary to the external per-field form
// subsystem. The state core only needs two things from it: whether a
// field has been touched by the user (which gates server-error display on
// non-manual saves), and a sink for fine-grained field error add/remove
// operations so the field-level error UI is only touched for genuinely
// new or resolved errors.
package formstate

import "sync"

// Tracker is the contract the submission core consumes. The real form
// subsystem implements it; Memory below is the in-process default.
type Tracker interface {
	// IsFieldTouched reports whether the user has interacted with the
	// field on the given form.
	IsFieldTouched(formID, fieldID string) bool

	// AddFieldError attaches a display error to one field value.
	AddFieldError(formID, fieldID string, fieldIndex int, message string)

	// RemoveFieldError detaches a display error from one field value.
	RemoveFieldError(formID, fieldID string, fieldIndex int)
}

// =============================================================================
// In-memory Tracker
// =============================================================================

type fieldKey struct {
	formID  string
	fieldID string
}

type errorKey struct {
	formID     string
	fieldID    string
	fieldIndex int
}

// Memory is a Tracker backed by in-process maps. It backs tests and the
// reference daemon; a browser-embedded deployment would swap in the real
// form layer instead.
type Memory struct {
	mu      sync.Mutex
	touched map[fieldKey]bool
	errors  map[errorKey]string
}

// NewMemory returns an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{
		touched: make(map[fieldKey]bool),
		errors:  make(map[errorKey]string),
	}
}

// Touch marks a field as interacted with.
func (m *Memory) Touch(formID, fieldID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[fieldKey{formID, fieldID}] = true
}

// IsFieldTouched implements Tracker.
func (m *Memory) IsFieldTouched(formID, fieldID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched[fieldKey{formID, fieldID}]
}

// AddFieldError implements Tracker.
func (m *Memory) AddFieldError(formID, fieldID string, fieldIndex int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{formID, fieldID, fieldIndex}] = message
}

// RemoveFieldError implements Tracker.
func (m *Memory) RemoveFieldError(formID, fieldID string, fieldIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errors, errorKey{formID, fieldID, fieldIndex})
}

// FieldError returns the display error currently attached to one field
// value, if any. Exposed for tests and the debug endpoint.
func (m *Memory) FieldError(formID, fieldID string, fieldIndex int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.errors[errorKey{formID, fieldID, fieldIndex}]
	return msg, ok
}

var _ Tracker = (*Memory)(nil)
