// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

// Reduce is the pure transition function of the submission state machine.
//
// It never mutates its input: affected entries are cloned down to the
// changed leaf, unaffected entries are shared. It never returns an error
// and never panics; transitions against ids that are no longer (or not
// yet) in the state return the input unchanged, because in-flight effects
// may resolve after a reset or teardown.
func Reduce(state State, action Action) State {
	switch a := action.(type) {

	// --- submission lifecycle ---

	case InitAction:
		return initSubmission(state, a.SubmissionID, a.CollectionID, a.Definition.Name, a.SelfURL, a.Item, a.ItemURL)

	case ResetAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.Sections = map[string]SectionState{}
			e.IsLoading = true
			return e
		})

	case CompleteInitAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.IsLoading = false
			return e
		})

	case CancelAction:
		return State{}

	case ChangeCollectionAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.CollectionID = a.CollectionID
			return e
		})

	case SetActiveSectionAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.ActiveSectionID = a.SectionID
			return e
		})

	case SetItemAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.Item = a.Item
			return e
		})

	// --- save ---

	case SaveAction:
		return setSavePending(state, a.SubmissionID, true)
	case SaveForLaterAction:
		return setSavePending(state, a.SubmissionID, true)
	case SaveSectionAction:
		return setSavePending(state, a.SubmissionID, true)
	case SaveAndDepositAction:
		return setSavePending(state, a.SubmissionID, true)

	case SaveSuccessAction:
		return setSavePending(state, a.SubmissionID, false)
	case SaveForLaterSuccessAction:
		return setSavePending(state, a.SubmissionID, false)
	case SaveSectionSuccessAction:
		return setSavePending(state, a.SubmissionID, false)
	case SaveErrorAction:
		return setSavePending(state, a.SubmissionID, false)
	case SaveForLaterErrorAction:
		return setSavePending(state, a.SubmissionID, false)
	case SaveSectionErrorAction:
		return setSavePending(state, a.SubmissionID, false)

	// --- deposit / discard ---

	case DepositAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.SavePending = false
			e.DepositPending = true
			return e
		})

	case DepositSuccessAction:
		return removeEntry(state, a.SubmissionID)

	case DepositErrorAction:
		return withEntry(state, a.SubmissionID, func(e SubmissionEntry) SubmissionEntry {
			e.DepositPending = false
			return e
		})

	case DiscardAction:
		// DELETE is fire-and-forget; state changes only on success.
		return state

	case DiscardSuccessAction:
		return removeEntry(state, a.SubmissionID)

	case DiscardErrorAction:
		return state

	// --- sections ---

	case InitSectionAction:
		return initSection(state, a)

	case SetSectionFormIDAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.FormID = a.FormID
			return sec
		})

	case EnableSectionAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.Enabled = true
			return sec
		})

	case DisableSectionAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.Enabled = false
			return sec
		})

	case UpdateSectionDataAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.Enabled = true
			sec.Data = a.Data
			sec.ErrorsToShow = a.ErrorsToShow
			sec.ServerValidationErrors = a.ServerValidationErrors
			sec.Metadata = reduceSectionMetadata(a.Metadata, sec.Metadata)
			return sec
		})

	case SectionStatusChangeAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.IsValid = a.Valid
			return sec
		})

	// --- upload files ---

	case NewFileAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			files, ok := sec.Data.Files()
			if !ok {
				files = nil
			}
			next := make([]datatypes.UploadFile, len(files), len(files)+1)
			copy(next, files)
			next = append(next, a.Data)
			sec.Enabled = true
			sec.Data = sec.Data.WithFiles(next)
			return sec
		})

	case EditFileAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			files, ok := sec.Data.Files()
			if !ok {
				return sec
			}
			idx := fileIndex(files, a.FileID)
			if idx < 0 {
				return sec
			}
			next := make([]datatypes.UploadFile, len(files))
			copy(next, files)
			next[idx] = a.Data
			sec.Data = sec.Data.WithFiles(next)
			return sec
		})

	case DeleteFileAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			files, ok := sec.Data.Files()
			if !ok {
				return sec
			}
			idx := fileIndex(files, a.FileID)
			if idx < 0 {
				return sec
			}
			next := make([]datatypes.UploadFile, 0, len(files)-1)
			next = append(next, files[:idx]...)
			next = append(next, files[idx+1:]...)
			sec.Data = sec.Data.WithFiles(next)
			return sec
		})

	// --- section errors ---

	case AddSectionErrorAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			if datatypes.ContainsError(sec.ErrorsToShow, a.Error) {
				return sec
			}
			next := make([]datatypes.SectionError, len(sec.ErrorsToShow), len(sec.ErrorsToShow)+1)
			copy(next, sec.ErrorsToShow)
			sec.ErrorsToShow = append(next, a.Error)
			return sec
		})

	case RemoveSectionErrorAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.ErrorsToShow = removeMatching(sec.ErrorsToShow, a.Error)
			return sec
		})

	case RemoveAllSectionErrorsAction:
		return withSection(state, a.SubmissionID, a.SectionID, func(sec SectionState) SectionState {
			sec.ErrorsToShow = []datatypes.SectionError{}
			return sec
		})
	}

	return state
}

// =============================================================================
// Transition Helpers
// =============================================================================

func initSubmission(state State, submissionID, collectionID, definitionName, selfURL string, item datatypes.Item, itemURL string) State {
	next := state.clone()
	next[submissionID] = SubmissionEntry{
		CollectionID:   collectionID,
		DefinitionName: definitionName,
		SelfURL:        selfURL,
		Sections:       map[string]SectionState{},
		Item:           item,
		ItemURL:        itemURL,
		IsLoading:      true,
	}
	return next
}

func initSection(state State, a InitSectionAction) State {
	entry, ok := state[a.SubmissionID]
	if !ok {
		return state
	}
	errors := a.Errors
	if errors == nil {
		errors = []datatypes.SectionError{}
	}
	next := state.clone()
	sections := cloneSections(entry.Sections)
	sections[a.SectionID] = SectionState{
		Header:                 a.Header,
		ConfigURL:              a.ConfigURL,
		Mandatory:              a.Mandatory,
		SectionType:            a.SectionType,
		Visibility:             a.Visibility,
		Enabled:                a.Enabled,
		Data:                   a.Data,
		ErrorsToShow:           []datatypes.SectionError{},
		ServerValidationErrors: errors,
		IsValid:                len(errors) == 0,
	}
	entry.Sections = sections
	next[a.SubmissionID] = entry
	return next
}

func setSavePending(state State, submissionID string, pending bool) State {
	return withEntry(state, submissionID, func(e SubmissionEntry) SubmissionEntry {
		e.SavePending = pending
		return e
	})
}

func removeEntry(state State, submissionID string) State {
	if _, ok := state[submissionID]; !ok {
		return state
	}
	next := state.clone()
	delete(next, submissionID)
	return next
}

// reduceSectionMetadata replaces the configured metadata list only when a
// new value is supplied; the previous value is retained (copied, never
// shared) otherwise, and never cleared implicitly.
func reduceSectionMetadata(newMetadata, oldMetadata []string) []string {
	if newMetadata != nil {
		return newMetadata
	}
	if oldMetadata != nil {
		out := make([]string, len(oldMetadata))
		copy(out, oldMetadata)
		return out
	}
	return nil
}

func fileIndex(files []datatypes.UploadFile, fileID string) int {
	for i, f := range files {
		if f.UUID == fileID {
			return i
		}
	}
	return -1
}

// removeMatching drops every error exactly equal to target, or sharing
// its path when target carries no message (a path-only removal).
func removeMatching(errs []datatypes.SectionError, target datatypes.SectionError) []datatypes.SectionError {
	out := make([]datatypes.SectionError, 0, len(errs))
	for _, cur := range errs {
		if cur == target {
			continue
		}
		if target.Message == "" && cur.Path == target.Path {
			continue
		}
		out = append(out, cur)
	}
	return out
}
