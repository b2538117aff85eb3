// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store holds the submission state and the pure reducer that is
// the only way to mutate it.
//
// State is a map from submission id to SubmissionEntry. The reducer is
// copy-on-write: a transition clones only the path from the state root to
// the leaf it changes, so unrelated entries (and prior snapshots handed to
// readers) are never touched. Transitions targeting an unknown submission
// or section id return the input state unchanged; effects can race with
// teardown and their late results must be absorbed silently.
package store

import (
	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

// =============================================================================
// State Types
// =============================================================================

// SectionState is the per-section slice of a submission entry.
type SectionState struct {
	// Header is the i18n header key of the section.
	Header string

	// ConfigURL points at the section's configuration resource.
	ConfigURL string

	// Mandatory sections are always enabled and cannot be removed.
	Mandatory bool

	// SectionType selects the payload shape and orchestrator behavior.
	SectionType datatypes.SectionType

	// Visibility restricts presentation per scope; nil means unrestricted.
	Visibility *datatypes.SectionVisibility

	// Collapsed tracks the section panel's UI fold state.
	Collapsed bool

	// Enabled sections appear in the wizard. A disabled section keeps its
	// entry (and data) so re-enabling restores it.
	Enabled bool

	// IsLoading is set while section data is being fetched.
	IsLoading bool

	// IsValid is the section-scoped validity flag.
	IsValid bool

	// Data is the opaque section payload.
	Data datatypes.SectionData

	// ErrorsToShow are the errors currently displayed, filtered by which
	// fields the user has touched. Always a subset of the union of
	// ServerValidationErrors and locally detected form errors.
	ErrorsToShow []datatypes.SectionError

	// ServerValidationErrors is the full server-known error set,
	// independent of display filtering.
	ServerValidationErrors []datatypes.SectionError

	// Metadata is the lazily computed list of configured metadata field
	// ids; nil until first supplied.
	Metadata []string

	// FormID correlates the section to the external form subsystem.
	FormID string
}

// SubmissionEntry is the state of one in-progress submission.
type SubmissionEntry struct {
	// CollectionID is the owning collection.
	CollectionID string

	// DefinitionName names the submission definition in force.
	DefinitionName string

	// SelfURL is the submission resource's self link.
	SelfURL string

	// ActiveSectionID is the section currently focused, or "".
	ActiveSectionID string

	// Sections maps section id to its state. A section is "available"
	// iff its id is a key here.
	Sections map[string]SectionState

	// Item is the archival item the submission describes, kept so the
	// orchestrator can detect metadata drift in form sections.
	Item datatypes.Item

	// ItemURL is the item resource link used to re-fetch it.
	ItemURL string

	// IsLoading is set between Init and CompleteInit.
	IsLoading bool

	// SavePending is set while any patch flush is outstanding.
	SavePending bool

	// DepositPending is set while a deposit request is outstanding.
	DepositPending bool
}

// State maps submission id to its entry. Only one submission is ever
// active client-side at a time, but the map shape matches the backend's
// id-keyed resources.
type State map[string]SubmissionEntry

// Entry returns the entry for a submission id.
func (s State) Entry(submissionID string) (SubmissionEntry, bool) {
	e, ok := s[submissionID]
	return e, ok
}

// Section returns the section state for a submission/section id pair.
func (s State) Section(submissionID, sectionID string) (SectionState, bool) {
	e, ok := s[submissionID]
	if !ok {
		return SectionState{}, false
	}
	sec, ok := e.Sections[sectionID]
	return sec, ok
}

// =============================================================================
// Copy-on-write Helpers
// =============================================================================

// clone copies the top-level map so prior snapshots stay untouched.
func (s State) clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// cloneSections copies an entry's section map.
func cloneSections(sections map[string]SectionState) map[string]SectionState {
	out := make(map[string]SectionState, len(sections))
	for k, v := range sections {
		out[k] = v
	}
	return out
}

// withEntry applies fn to the submission's entry, returning the input
// state unchanged when the id is unknown.
func withEntry(s State, submissionID string, fn func(SubmissionEntry) SubmissionEntry) State {
	entry, ok := s[submissionID]
	if !ok {
		return s
	}
	next := s.clone()
	next[submissionID] = fn(entry)
	return next
}

// withSection applies fn to one section, returning the input state
// unchanged when the submission or section id is unknown.
func withSection(s State, submissionID, sectionID string, fn func(SectionState) SectionState) State {
	entry, ok := s[submissionID]
	if !ok {
		return s
	}
	section, ok := entry.Sections[sectionID]
	if !ok {
		return s
	}
	next := s.clone()
	sections := cloneSections(entry.Sections)
	sections[sectionID] = fn(section)
	entry.Sections = sections
	next[submissionID] = entry
	return next
}
