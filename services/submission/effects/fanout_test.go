// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/notifications"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

func TestFanOutUpdatesSectionsFromResponse(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())

	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"license": {"granted": true},
			},
			Errors: []datatypes.ErrorDescriptor{
				{Message: "error.validation.required", Paths: []string{"/sections/license"}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, ok := h.dispatcher.Store().Section(testSubmissionID, "license")
		return ok && !sec.Data.IsEmpty()
	}, "license section never updated")

	sec, _ := h.dispatcher.Store().Section(testSubmissionID, "license")
	assert.Equal(t, datatypes.SectionData{"granted": true}, sec.Data)
	require.Len(t, sec.ServerValidationErrors, 1)
	assert.Equal(t, sec.ServerValidationErrors, sec.ErrorsToShow,
		"manual saves show every server error")
}

func TestFanOutSkipsUnknownSections(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())
	before, _ := h.dispatcher.Store().Entry(testSubmissionID)

	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID:       testSubmissionID,
			Sections: map[string]datatypes.SectionData{"ghost": {"x": 1}},
		}},
	})

	// The unknown section never materializes; give fan-out a moment.
	h.waitFor(t, func() bool {
		entry, _ := h.dispatcher.Store().Entry(testSubmissionID)
		return !entry.SavePending
	}, "save success never applied")
	entry, _ := h.dispatcher.Store().Entry(testSubmissionID)
	assert.Equal(t, len(before.Sections), len(entry.Sections))
	_, ok := entry.Sections["ghost"]
	assert.False(t, ok)
}

func TestFanOutSuppressesDisabledEmptyUpload(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())

	h.dispatcher.Dispatch(h.ctx, store.DisableSectionAction{SubmissionID: testSubmissionID, SectionID: "upload"})
	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "upload")
		return !sec.Enabled
	}, "upload never disabled")

	// Response still carries the upload key, but with no files: the
	// user's disable wins and the section is not resurrected.
	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"upload":  {"files": []any{}},
				"license": {"granted": true},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "license")
		return !sec.Data.IsEmpty()
	}, "license never updated")

	upload, _ := h.dispatcher.Store().Section(testSubmissionID, "upload")
	assert.False(t, upload.Enabled, "disabled upload must stay disabled")
	_, hasFiles := upload.Data.Files()
	assert.False(t, hasFiles, "suppressed update must not write data")
}

func TestFanOutDisabledUploadWithFilesIsUpdated(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())

	h.dispatcher.Dispatch(h.ctx, store.DisableSectionAction{SubmissionID: testSubmissionID, SectionID: "upload"})
	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "upload")
		return !sec.Enabled
	}, "upload never disabled")

	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"upload": {"files": []any{map[string]any{"uuid": "file-1"}}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "upload")
		return sec.Enabled
	}, "upload with files should be re-enabled")

	sec, _ := h.dispatcher.Store().Section(testSubmissionID, "upload")
	files, ok := sec.Data.Files()
	require.True(t, ok)
	assert.Len(t, files, 1)
}

func TestFanOutNotifiesNewSectionsOnManualSave(t *testing.T) {
	h := newHarness(t)

	init := defaultInit()
	init.Definition.Sections = append(init.Definition.Sections,
		sectionDef("detect-duplicate", datatypes.SectionTypeUtils, false))
	h.initSubmission(t, init)

	// The optional section starts disabled (not mandatory, no payload).
	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"detect-duplicate": {"matches": []any{"dup-1"}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		return len(h.notifier.BySeverity(notifications.SeverityInfo)) == 1
	}, "new section never announced")

	sec, _ := h.dispatcher.Store().Section(testSubmissionID, "detect-duplicate")
	assert.True(t, sec.Enabled)
}

func TestFanOutStaysQuietOnAutosave(t *testing.T) {
	h := newHarness(t)

	init := defaultInit()
	init.Definition.Sections = append(init.Definition.Sections,
		sectionDef("detect-duplicate", datatypes.SectionTypeUtils, false))
	h.initSubmission(t, init)

	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       false,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"detect-duplicate": {"matches": []any{"dup-1"}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "detect-duplicate")
		return sec.Enabled
	}, "section never enabled")
	assert.Empty(t, h.notifier.Entries(), "autosave fan-out is silent")
}

func TestFanOutFiltersUntouchedFieldErrorsOnAutosave(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())

	h.dispatcher.Dispatch(h.ctx, store.SetSectionFormIDAction{
		SubmissionID: testSubmissionID,
		SectionID:    "traditionalpageone",
		FormID:       "form-1",
	})
	h.forms.Touch("form-1", "dc.title")

	touchedErr := datatypes.SectionError{Path: "/sections/traditionalpageone/dc.title", Message: "bad title"}
	untouchedErr := datatypes.SectionError{Path: "/sections/traditionalpageone/dc.date.issued", Message: "missing date"}
	sectionErr := datatypes.SectionError{Path: "/sections/traditionalpageone", Message: "incomplete"}

	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       false,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				// Not metadata-shaped on purpose: keeps the metadata
				// sync effect out of this test.
				"traditionalpageone": {"dc.title": "x"},
			},
			Errors: []datatypes.ErrorDescriptor{
				{Message: touchedErr.Message, Paths: []string{touchedErr.Path}},
				{Message: untouchedErr.Message, Paths: []string{untouchedErr.Path}},
				{Message: sectionErr.Message, Paths: []string{sectionErr.Path}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "traditionalpageone")
		return len(sec.ServerValidationErrors) == 3
	}, "server errors never landed")

	sec, _ := h.dispatcher.Store().Section(testSubmissionID, "traditionalpageone")
	assert.ElementsMatch(t, []datatypes.SectionError{touchedErr, sectionErr}, sec.ErrorsToShow,
		"only touched-field and section-level errors show on autosave")
}

func TestFanOutShowsAllErrorsOnManualSave(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())

	untouchedErr := datatypes.SectionError{Path: "/sections/traditionalpageone/dc.date.issued", Message: "missing date"}
	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"traditionalpageone": {"dc.title": "x"},
			},
			Errors: []datatypes.ErrorDescriptor{
				{Message: untouchedErr.Message, Paths: []string{untouchedErr.Path}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "traditionalpageone")
		return len(sec.ErrorsToShow) == 1
	}, "manual save should show untouched-field errors too")
}

func TestFanOutClearsVanishedSherpaSection(t *testing.T) {
	h := newHarness(t)

	init := defaultInit()
	init.Definition.Sections = append(init.Definition.Sections,
		sectionDef("sherpaPolicies", datatypes.SectionTypeSherpaPolicies, false))
	init.Sections = map[string]datatypes.SectionData{
		"sherpaPolicies": {"journals": []any{"J1"}},
	}
	h.initSubmission(t, init)

	// Response has other sections but no sherpaPolicies key: the
	// server-computed policies are gone and must be cleared.
	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"license": {"granted": true},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "sherpaPolicies")
		return sec.Data.IsEmpty()
	}, "sherpa section never cleared")
}

func TestFanOutKeepsSherpaSectionPresentInResponse(t *testing.T) {
	h := newHarness(t)

	init := defaultInit()
	init.Definition.Sections = append(init.Definition.Sections,
		sectionDef("sherpaPolicies", datatypes.SectionTypeSherpaPolicies, false))
	init.Sections = map[string]datatypes.SectionData{
		"sherpaPolicies": {"journals": []any{"J1"}},
	}
	h.initSubmission(t, init)

	h.dispatcher.Dispatch(h.ctx, store.SaveSuccessAction{
		SubmissionID: testSubmissionID,
		Manual:       true,
		Response: []datatypes.SubmissionObject{{
			ID: testSubmissionID,
			Sections: map[string]datatypes.SectionData{
				"sherpaPolicies": {"journals": []any{"J1", "J2"}},
			},
		}},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "sherpaPolicies")
		journals, _ := sec.Data["journals"].([]any)
		return len(journals) == 2
	}, "sherpa section should update from the response")
}

// =============================================================================
// Metadata Sync
// =============================================================================

func TestFormMetadataSyncRefetchesItem(t *testing.T) {
	h := newHarness(t)

	init := defaultInit()
	init.Item = datatypes.Item{UUID: "item-1", Metadata: datatypes.MetadataMap{
		"dc.title": {{Value: "Old title"}},
	}}
	h.initSubmission(t, init)

	enriched := datatypes.MetadataMap{
		"dc.title":      {{Value: "New title"}},
		"dc.identifier": {{Value: "doi:10.1234/x"}},
	}
	h.client.itemResp = &datatypes.Item{UUID: "item-1", Metadata: enriched}

	// The section reports metadata that no longer matches the item copy.
	h.dispatcher.Dispatch(h.ctx, store.UpdateSectionDataAction{
		SubmissionID: testSubmissionID,
		SectionID:    "traditionalpageone",
		Data:         datatypes.MetadataMap{"dc.title": {{Value: "New title"}}}.AsSectionData(),
	})

	h.waitFor(t, func() bool {
		entry, _ := h.dispatcher.Store().Entry(testSubmissionID)
		return entry.Item.Metadata.Equal(enriched)
	}, "item copy never realigned")

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "traditionalpageone")
		_, ok := sec.Data["dc.identifier"]
		return ok
	}, "form section never picked up enriched metadata")

	h.client.mu.Lock()
	itemCalls := h.client.itemCalls
	h.client.mu.Unlock()
	assert.Equal(t, 1, itemCalls, "sync converges after one re-fetch")
}

func TestFormMetadataSyncSkipsMatchingMetadata(t *testing.T) {
	h := newHarness(t)

	metadata := datatypes.MetadataMap{"dc.title": {{Value: "Same"}}}
	init := defaultInit()
	init.Item = datatypes.Item{UUID: "item-1", Metadata: metadata}
	h.initSubmission(t, init)

	h.dispatcher.Dispatch(h.ctx, store.UpdateSectionDataAction{
		SubmissionID: testSubmissionID,
		SectionID:    "traditionalpageone",
		Data:         metadata.AsSectionData(),
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "traditionalpageone")
		return !sec.Data.IsEmpty()
	}, "update never applied")

	h.client.mu.Lock()
	itemCalls := h.client.itemCalls
	h.client.mu.Unlock()
	assert.Equal(t, 0, itemCalls, "matching metadata needs no re-fetch")
}

func TestNonFormSectionsSkipMetadataSync(t *testing.T) {
	h := newHarness(t)
	h.initSubmission(t, defaultInit())

	h.dispatcher.Dispatch(h.ctx, store.UpdateSectionDataAction{
		SubmissionID: testSubmissionID,
		SectionID:    "license",
		Data:         datatypes.SectionData{"granted": true},
	})

	h.waitFor(t, func() bool {
		sec, _ := h.dispatcher.Store().Section(testSubmissionID, "license")
		return !sec.Data.IsEmpty()
	}, "update never applied")

	h.client.mu.Lock()
	itemCalls := h.client.itemCalls
	h.client.mu.Unlock()
	assert.Equal(t, 0, itemCalls)
}
