// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file defines the closed action vocabulary of the submission state
// machine. Action is a sealed sum type: every variant lives in this file
// and the reducer matches all of them exhaustively, so there is no
// "unknown action" fallback to reason about.
package store

import (
	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

// Action is one command against the submission state. The unexported
// marker method seals the set of variants to this package.
type Action interface {
	// ActionType returns a stable name for logging and metrics.
	ActionType() string

	isAction()
}

// =============================================================================
// Submission Lifecycle Actions
// =============================================================================

// InitAction creates (or overwrites) a submission entry and triggers the
// load-form workflow that initializes its sections in definition order.
type InitAction struct {
	CollectionID string
	SubmissionID string
	SelfURL      string
	Definition   datatypes.SubmissionDefinition
	Sections     map[string]datatypes.SectionData
	Item         datatypes.Item
	ItemURL      string
	Errors       []datatypes.ErrorDescriptor
}

// ResetAction re-initializes an existing submission after a collection
// change: sections are cleared and the load-form workflow reruns.
type ResetAction struct {
	CollectionID string
	SubmissionID string
	SelfURL      string
	Definition   datatypes.SubmissionDefinition
	Sections     map[string]datatypes.SectionData
	Item         datatypes.Item
	ItemURL      string
	Errors       []datatypes.ErrorDescriptor
}

// CompleteInitAction marks the end of section initialization.
type CompleteInitAction struct {
	SubmissionID string
}

// CancelAction wipes the entire store. Intentionally global: only one
// submission is ever edited per client session.
type CancelAction struct{}

// ChangeCollectionAction moves the submission to another collection.
type ChangeCollectionAction struct {
	SubmissionID string
	CollectionID string
}

// SetActiveSectionAction focuses a section.
type SetActiveSectionAction struct {
	SubmissionID string
	SectionID    string
}

// SetItemAction replaces the entry's item copy after a re-fetch.
type SetItemAction struct {
	SubmissionID string
	Item         datatypes.Item
}

// =============================================================================
// Save Actions
// =============================================================================

// SaveAction triggers a full patch flush for the submission. Manual saves
// were user-initiated and may surface notifications; autosave ticks are
// not manual and stay quiet.
type SaveAction struct {
	SubmissionID string
	Manual       bool
}

// SaveForLaterAction flushes the patch queue and, on success, leaves the
// submission for the workspace listing.
type SaveForLaterAction struct {
	SubmissionID string
}

// SaveSectionAction flushes only the operations scoped under one section.
type SaveSectionAction struct {
	SubmissionID string
	SectionID    string
}

// SaveAndDepositAction saves any unflushed diff (or re-fetches when
// clean) and deposits if the result carries no validation errors.
type SaveAndDepositAction struct {
	SubmissionID string
}

// SaveSuccessAction carries the updated resource list returned by a
// successful flush. Manual mirrors the triggering save's flag and gates
// notifications during fan-out.
type SaveSuccessAction struct {
	SubmissionID string
	Response     []datatypes.SubmissionObject
	Manual       bool
}

// SaveForLaterSuccessAction completes a save-for-later flush.
type SaveForLaterSuccessAction struct {
	SubmissionID string
	Response     []datatypes.SubmissionObject
}

// SaveSectionSuccessAction completes a section-scoped flush.
type SaveSectionSuccessAction struct {
	SubmissionID string
	Response     []datatypes.SubmissionObject
}

// SaveErrorAction records a failed flush; the pending flag clears so the
// user may retry manually.
type SaveErrorAction struct {
	SubmissionID string
	Manual       bool
}

// SaveForLaterErrorAction records a failed save-for-later flush.
type SaveForLaterErrorAction struct {
	SubmissionID string
}

// SaveSectionErrorAction records a failed section-scoped flush.
type SaveSectionErrorAction struct {
	SubmissionID string
	SectionID    string
}

// =============================================================================
// Deposit / Discard Actions
// =============================================================================

// DepositAction starts the deposit of a saved, error-free submission.
type DepositAction struct {
	SubmissionID string
}

// DepositSuccessAction removes the submission from the store; the
// resource now lives in the workflow.
type DepositSuccessAction struct {
	SubmissionID string
}

// DepositErrorAction clears the deposit-pending flag.
type DepositErrorAction struct {
	SubmissionID string
}

// DiscardAction deletes the submission server-side. The store is only
// touched once DiscardSuccessAction lands.
type DiscardAction struct {
	SubmissionID string
}

// DiscardSuccessAction removes the discarded submission entry.
type DiscardSuccessAction struct {
	SubmissionID string
}

// DiscardErrorAction is a no-op on state; the failure is only reported.
type DiscardErrorAction struct {
	SubmissionID string
}

// =============================================================================
// Section Actions
// =============================================================================

// InitSectionAction inserts a new section entry during form load.
type InitSectionAction struct {
	SubmissionID string
	SectionID    string
	Header       string
	ConfigURL    string
	Mandatory    bool
	SectionType  datatypes.SectionType
	Visibility   *datatypes.SectionVisibility
	Enabled      bool
	Data         datatypes.SectionData
	Errors       []datatypes.SectionError
}

// SetSectionFormIDAction attaches the external form correlation id.
type SetSectionFormIDAction struct {
	SubmissionID string
	SectionID    string
	FormID       string
}

// EnableSectionAction shows a section in the wizard.
type EnableSectionAction struct {
	SubmissionID string
	SectionID    string
}

// DisableSectionAction hides a section from the wizard without deleting
// its entry; the data persists for re-enable.
type DisableSectionAction struct {
	SubmissionID string
	SectionID    string
}

// UpdateSectionDataAction replaces a section's payload and error lists.
// A data update implicitly enables the section. Metadata is replaced only
// when non-nil; a nil Metadata retains the previous value.
type UpdateSectionDataAction struct {
	SubmissionID           string
	SectionID              string
	Data                   datatypes.SectionData
	ErrorsToShow           []datatypes.SectionError
	ServerValidationErrors []datatypes.SectionError
	Metadata               []string
}

// SectionStatusChangeAction sets the section-scoped validity flag.
type SectionStatusChangeAction struct {
	SubmissionID string
	SectionID    string
	Valid        bool
}

// =============================================================================
// Upload File Actions
// =============================================================================

// NewFileAction appends an uploaded file to an upload section's payload,
// creating the files array when absent.
type NewFileAction struct {
	SubmissionID string
	SectionID    string
	Data         datatypes.UploadFile
}

// EditFileAction replaces the file entry matching Data's UUID.
type EditFileAction struct {
	SubmissionID string
	SectionID    string
	FileID       string
	Data         datatypes.UploadFile
}

// DeleteFileAction removes the file entry matching FileID.
type DeleteFileAction struct {
	SubmissionID string
	SectionID    string
	FileID       string
}

// =============================================================================
// Section Error Actions
// =============================================================================

// AddSectionErrorAction appends a de-duplicated error to errorsToShow.
type AddSectionErrorAction struct {
	SubmissionID string
	SectionID    string
	Error        datatypes.SectionError
}

// RemoveSectionErrorAction removes errors matching Error: an exact match,
// or any entry sharing its path.
type RemoveSectionErrorAction struct {
	SubmissionID string
	SectionID    string
	Error        datatypes.SectionError
}

// RemoveAllSectionErrorsAction clears errorsToShow for a section.
type RemoveAllSectionErrorsAction struct {
	SubmissionID string
	SectionID    string
}

// =============================================================================
// Sealed Sum Type Plumbing
// =============================================================================

func (InitAction) isAction()                   {}
func (ResetAction) isAction()                  {}
func (CompleteInitAction) isAction()           {}
func (CancelAction) isAction()                 {}
func (ChangeCollectionAction) isAction()       {}
func (SetActiveSectionAction) isAction()       {}
func (SetItemAction) isAction()                {}
func (SaveAction) isAction()                   {}
func (SaveForLaterAction) isAction()           {}
func (SaveSectionAction) isAction()            {}
func (SaveAndDepositAction) isAction()         {}
func (SaveSuccessAction) isAction()            {}
func (SaveForLaterSuccessAction) isAction()    {}
func (SaveSectionSuccessAction) isAction()     {}
func (SaveErrorAction) isAction()              {}
func (SaveForLaterErrorAction) isAction()      {}
func (SaveSectionErrorAction) isAction()       {}
func (DepositAction) isAction()                {}
func (DepositSuccessAction) isAction()         {}
func (DepositErrorAction) isAction()           {}
func (DiscardAction) isAction()                {}
func (DiscardSuccessAction) isAction()         {}
func (DiscardErrorAction) isAction()           {}
func (InitSectionAction) isAction()            {}
func (SetSectionFormIDAction) isAction()       {}
func (EnableSectionAction) isAction()          {}
func (DisableSectionAction) isAction()         {}
func (UpdateSectionDataAction) isAction()      {}
func (SectionStatusChangeAction) isAction()    {}
func (NewFileAction) isAction()                {}
func (EditFileAction) isAction()               {}
func (DeleteFileAction) isAction()             {}
func (AddSectionErrorAction) isAction()        {}
func (RemoveSectionErrorAction) isAction()     {}
func (RemoveAllSectionErrorsAction) isAction() {}

func (InitAction) ActionType() string                   { return "submission.init" }
func (ResetAction) ActionType() string                  { return "submission.reset" }
func (CompleteInitAction) ActionType() string           { return "submission.complete_init" }
func (CancelAction) ActionType() string                 { return "submission.cancel" }
func (ChangeCollectionAction) ActionType() string       { return "submission.change_collection" }
func (SetActiveSectionAction) ActionType() string       { return "submission.set_active_section" }
func (SetItemAction) ActionType() string                { return "submission.set_item" }
func (SaveAction) ActionType() string                   { return "submission.save" }
func (SaveForLaterAction) ActionType() string           { return "submission.save_for_later" }
func (SaveSectionAction) ActionType() string            { return "submission.save_section" }
func (SaveAndDepositAction) ActionType() string         { return "submission.save_and_deposit" }
func (SaveSuccessAction) ActionType() string            { return "submission.save_success" }
func (SaveForLaterSuccessAction) ActionType() string    { return "submission.save_for_later_success" }
func (SaveSectionSuccessAction) ActionType() string     { return "submission.save_section_success" }
func (SaveErrorAction) ActionType() string              { return "submission.save_error" }
func (SaveForLaterErrorAction) ActionType() string      { return "submission.save_for_later_error" }
func (SaveSectionErrorAction) ActionType() string       { return "submission.save_section_error" }
func (DepositAction) ActionType() string                { return "submission.deposit" }
func (DepositSuccessAction) ActionType() string         { return "submission.deposit_success" }
func (DepositErrorAction) ActionType() string           { return "submission.deposit_error" }
func (DiscardAction) ActionType() string                { return "submission.discard" }
func (DiscardSuccessAction) ActionType() string         { return "submission.discard_success" }
func (DiscardErrorAction) ActionType() string           { return "submission.discard_error" }
func (InitSectionAction) ActionType() string            { return "section.init" }
func (SetSectionFormIDAction) ActionType() string       { return "section.set_form_id" }
func (EnableSectionAction) ActionType() string          { return "section.enable" }
func (DisableSectionAction) ActionType() string         { return "section.disable" }
func (UpdateSectionDataAction) ActionType() string      { return "section.update_data" }
func (SectionStatusChangeAction) ActionType() string    { return "section.status_change" }
func (NewFileAction) ActionType() string                { return "section.new_file" }
func (EditFileAction) ActionType() string               { return "section.edit_file" }
func (DeleteFileAction) ActionType() string             { return "section.delete_file" }
func (AddSectionErrorAction) ActionType() string        { return "section.add_error" }
func (RemoveSectionErrorAction) ActionType() string     { return "section.remove_error" }
func (RemoveAllSectionErrorsAction) ActionType() string { return "section.remove_all_errors" }
