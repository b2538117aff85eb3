// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package query exposes the read-side projections over the submission
// store plus the guarded write entry point UI components use.
//
// All Is* selectors are pure reads with no side effects. The write path
// checks availability before dispatching, so updates against unknown
// sections are silently dropped, matching the reducer's no-op tolerance.
package query

import (
	"context"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/errorpaths"
	"github.com/AleutianAI/DepositFlow/services/submission/formstate"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// SectionService answers section-scoped questions about a submission and
// relays section updates into the action stream.
type SectionService struct {
	dispatcher *dispatch.Dispatcher
	forms      formstate.Tracker
}

// NewSectionService builds a service over the dispatcher's store.
func NewSectionService(d *dispatch.Dispatcher, forms formstate.Tracker) *SectionService {
	return &SectionService{dispatcher: d, forms: forms}
}

// =============================================================================
// Read Projections
// =============================================================================

// IsSectionValid reports the section-scoped validity flag.
func (s *SectionService) IsSectionValid(submissionID, sectionID string) bool {
	sec, ok := s.dispatcher.Store().Section(submissionID, sectionID)
	return ok && sec.IsValid
}

// IsSectionEnabled reports whether the section appears in the wizard.
func (s *SectionService) IsSectionEnabled(submissionID, sectionID string) bool {
	sec, ok := s.dispatcher.Store().Section(submissionID, sectionID)
	return ok && sec.Enabled
}

// IsSectionActive reports whether the section is the focused one.
func (s *SectionService) IsSectionActive(submissionID, sectionID string) bool {
	entry, ok := s.dispatcher.Store().Entry(submissionID)
	return ok && entry.ActiveSectionID == sectionID
}

// IsSectionAvailable reports whether the section exists in the entry's
// section map, enabled or not.
func (s *SectionService) IsSectionAvailable(submissionID, sectionID string) bool {
	_, ok := s.dispatcher.Store().Section(submissionID, sectionID)
	return ok
}

// IsSectionReadOnly reports whether the section is presented read-only.
// Only non-submitter scopes see read-only sections: a workflow reviewer
// cannot edit what the original submitter could.
func (s *SectionService) IsSectionReadOnly(submissionID, sectionID string, scope datatypes.ScopeType) bool {
	sec, ok := s.dispatcher.Store().Section(submissionID, sectionID)
	if !ok || sec.Visibility == nil {
		return false
	}
	return sec.Visibility.Other == datatypes.VisibilityReadOnly && scope != datatypes.ScopeWorkspaceItem
}

// IsSectionType reports whether the section is of the given type.
func (s *SectionService) IsSectionType(submissionID, sectionID string, t datatypes.SectionType) bool {
	sec, ok := s.dispatcher.Store().Section(submissionID, sectionID)
	return ok && sec.SectionType == t
}

// IsSectionTypeAvailable reports whether any section of the given type
// exists for the submission.
func (s *SectionService) IsSectionTypeAvailable(submissionID string, t datatypes.SectionType) bool {
	entry, ok := s.dispatcher.Store().Entry(submissionID)
	if !ok {
		return false
	}
	for _, sec := range entry.Sections {
		if sec.SectionType == t {
			return true
		}
	}
	return false
}

// VisibleSectionIDs lists the ids of sections that belong in the
// user-facing wizard: enabled and not hidden in every scope.
func (s *SectionService) VisibleSectionIDs(submissionID string) []string {
	entry, ok := s.dispatcher.Store().Entry(submissionID)
	if !ok {
		return nil
	}
	var out []string
	for id, sec := range entry.Sections {
		if sec.Enabled && !sec.Visibility.Hidden() {
			out = append(out, id)
		}
	}
	return out
}

// =============================================================================
// Write Path
// =============================================================================

// UpdateSectionData is the write entry point used by UI components. It
// verifies the section is available first; updates against unknown
// sections are dropped rather than erroring.
func (s *SectionService) UpdateSectionData(ctx context.Context, submissionID, sectionID string, data datatypes.SectionData, errorsToShow, serverValidationErrors []datatypes.SectionError, metadata []string) {
	if !s.IsSectionAvailable(submissionID, sectionID) {
		return
	}
	s.dispatcher.Dispatch(ctx, store.UpdateSectionDataAction{
		SubmissionID:           submissionID,
		SectionID:              sectionID,
		Data:                   data,
		ErrorsToShow:           errorsToShow,
		ServerValidationErrors: serverValidationErrors,
		Metadata:               metadata,
	})
}

// SetSectionError attaches one display error to a section.
func (s *SectionService) SetSectionError(ctx context.Context, submissionID, sectionID string, err datatypes.SectionError) {
	s.dispatcher.Dispatch(ctx, store.AddSectionErrorAction{SubmissionID: submissionID, SectionID: sectionID, Error: err})
}

// CheckSectionErrors diff-compares a section's current and previous error
// lists and applies only the delta: genuinely new errors are added to the
// per-field display subsystem (or the section's own error list when not
// field-scoped) and resolved ones removed, so unrelated field error UI
// does not flash on every section update.
func (s *SectionService) CheckSectionErrors(ctx context.Context, submissionID, sectionID, formID string, current, previous []datatypes.SectionError) {
	for _, e := range current {
		if datatypes.ContainsError(previous, e) {
			continue
		}
		parsed, err := errorpaths.Parse(e.Path)
		if err != nil {
			continue
		}
		if parsed.IsFieldScoped() {
			s.forms.AddFieldError(formID, parsed.FieldID, parsed.FieldIndex, e.Message)
		} else {
			s.dispatcher.Dispatch(ctx, store.AddSectionErrorAction{SubmissionID: submissionID, SectionID: sectionID, Error: e})
		}
	}

	for _, e := range previous {
		if datatypes.ContainsError(current, e) {
			continue
		}
		parsed, err := errorpaths.Parse(e.Path)
		if err != nil {
			continue
		}
		if parsed.IsFieldScoped() {
			s.forms.RemoveFieldError(formID, parsed.FieldID, parsed.FieldIndex)
		} else {
			s.dispatcher.Dispatch(ctx, store.RemoveSectionErrorAction{SubmissionID: submissionID, SectionID: sectionID, Error: e})
		}
	}
}
