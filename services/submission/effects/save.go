// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package effects

import (
	"context"
	"sort"
	"time"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/errorpaths"
	"github.com/AleutianAI/DepositFlow/services/submission/patch"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// saveKind distinguishes the two whole-submission flush flavors so the
// right success/error action comes back.
type saveKind int

const (
	saveKindForm saveKind = iota
	saveKindForLater
)

// saveAll flushes the full patch queue for a submission. When the queue
// is empty the current server copy is re-fetched instead, so the caller
// still receives fresh validation state without sending an empty patch.
func (o *Orchestrator) saveAll(ctx context.Context, d *dispatch.Dispatcher, submissionID string, manual bool, kind saveKind) {
	if _, ok := d.Store().Entry(submissionID); !ok {
		return
	}

	ops := o.queue.Operations(patch.ResourceTypeSections, submissionID)

	var (
		resources []datatypes.SubmissionObject
		err       error
	)
	if len(ops) == 0 {
		var resource *datatypes.SubmissionObject
		resource, err = o.client.Fetch(ctx, o.scope, submissionID)
		if resource != nil {
			resources = []datatypes.SubmissionObject{*resource}
		}
	} else {
		resources, err = o.flush(ctx, submissionID, ops)
	}

	if err != nil {
		o.metrics.SavesTotal.WithLabelValues("error").Inc()
		o.logger.Error("save failed", "submission_id", submissionID, "error", err)
		switch kind {
		case saveKindForLater:
			d.Dispatch(ctx, store.SaveForLaterErrorAction{SubmissionID: submissionID})
		default:
			d.Dispatch(ctx, store.SaveErrorAction{SubmissionID: submissionID, Manual: manual})
		}
		return
	}

	o.metrics.SavesTotal.WithLabelValues("success").Inc()
	switch kind {
	case saveKindForLater:
		d.Dispatch(ctx, store.SaveForLaterSuccessAction{SubmissionID: submissionID, Response: resources})
	default:
		d.Dispatch(ctx, store.SaveSuccessAction{SubmissionID: submissionID, Response: resources, Manual: manual})
	}
}

// saveSection flushes only the operations scoped under one section.
func (o *Orchestrator) saveSection(ctx context.Context, d *dispatch.Dispatcher, submissionID, sectionID string) {
	if _, ok := d.Store().Section(submissionID, sectionID); !ok {
		return
	}

	ops := o.queue.SectionOperations(patch.ResourceTypeSections, submissionID, sectionID)
	if len(ops) == 0 {
		// Nothing to send; clear the pending flag without a round-trip.
		d.Dispatch(ctx, store.SaveSectionSuccessAction{SubmissionID: submissionID})
		return
	}

	start := time.Now()
	resources, err := o.client.PatchSections(ctx, o.scope, submissionID, ops)
	o.metrics.PatchFlushSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		o.metrics.SavesTotal.WithLabelValues("error").Inc()
		o.logger.Error("section save failed", "submission_id", submissionID, "section_id", sectionID, "error", err)
		d.Dispatch(ctx, store.SaveSectionErrorAction{SubmissionID: submissionID, SectionID: sectionID})
		return
	}

	o.queue.ClearSection(patch.ResourceTypeSections, submissionID, sectionID)
	o.metrics.SavesTotal.WithLabelValues("success").Inc()
	o.metrics.PatchOperationsFlushed.Add(float64(len(ops)))
	d.Dispatch(ctx, store.SaveSectionSuccessAction{SubmissionID: submissionID, Response: resources})
}

// saveAndDeposit saves any unflushed diff, or re-fetches when clean, then
// deposits only if the resulting resource carries no validation errors.
// A blocked deposit degrades to a manual save success so the errors get
// shown instead.
func (o *Orchestrator) saveAndDeposit(ctx context.Context, d *dispatch.Dispatcher, submissionID string) {
	if _, ok := d.Store().Entry(submissionID); !ok {
		return
	}

	var (
		resources []datatypes.SubmissionObject
		err       error
	)
	if o.queue.HasPending(patch.ResourceTypeSections, submissionID) {
		ops := o.queue.Operations(patch.ResourceTypeSections, submissionID)
		resources, err = o.flush(ctx, submissionID, ops)
	} else {
		var resource *datatypes.SubmissionObject
		resource, err = o.client.Fetch(ctx, o.scope, submissionID)
		if resource != nil {
			resources = []datatypes.SubmissionObject{*resource}
		}
	}

	if err != nil {
		o.metrics.SavesTotal.WithLabelValues("error").Inc()
		o.logger.Error("save before deposit failed", "submission_id", submissionID, "error", err)
		d.Dispatch(ctx, store.SaveErrorAction{SubmissionID: submissionID, Manual: true})
		return
	}
	o.metrics.SavesTotal.WithLabelValues("success").Inc()

	if len(resources) > 0 && !resources[0].HasValidationErrors() {
		d.Dispatch(ctx, store.DepositAction{SubmissionID: submissionID})
		return
	}

	o.metrics.DepositsBlocked.Inc()
	o.notifier.Warning("submission.deposit", "the submission has validation errors and cannot be deposited")
	d.Dispatch(ctx, store.SaveSuccessAction{SubmissionID: submissionID, Response: resources, Manual: true})
}

// flush sends one atomic patch and clears the queue on success.
func (o *Orchestrator) flush(ctx context.Context, submissionID string, ops []datatypes.PatchOperation) ([]datatypes.SubmissionObject, error) {
	start := time.Now()
	resources, err := o.client.PatchSections(ctx, o.scope, submissionID, ops)
	o.metrics.PatchFlushSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	o.queue.Clear(patch.ResourceTypeSections, submissionID)
	o.metrics.PatchOperationsFlushed.Add(float64(len(ops)))
	return resources, nil
}

// =============================================================================
// Save-success Fan-out
// =============================================================================

// fanOutSections reconciles a save response into per-section updates.
//
// For every section id present in the response's sections payload or in
// its errors, one UpdateSectionData is dispatched with the display errors
// filtered by touched state (unless the save was user-initiated, in which
// case everything is shown). An upload section with no files that the
// user has disabled is skipped entirely so it is not resurrected, and a
// Sherpa policies section that vanished from the response is explicitly
// cleared because there the absence of a key is itself meaningful.
func (o *Orchestrator) fanOutSections(ctx context.Context, d *dispatch.Dispatcher, submissionID string, resources []datatypes.SubmissionObject, notify bool) {
	if len(resources) == 0 {
		return
	}
	resource := resources[0]

	entry, ok := d.Store().Entry(submissionID)
	if !ok {
		return
	}

	grouped := errorpaths.Group(resource.Errors)
	for _, sectionID := range unionSectionIDs(resource.Sections, grouped) {
		sectionState, ok := entry.Sections[sectionID]
		if !ok {
			continue
		}

		data := resource.Sections[sectionID]
		serverErrors := grouped[sectionID]

		if sectionState.SectionType == datatypes.SectionTypeUpload && !sectionState.Enabled {
			files, hasFiles := data.Files()
			if !hasFiles || len(files) == 0 {
				continue
			}
		}

		if !sectionState.Enabled && notify {
			o.notifier.Info("submission.section", "new section detected: "+sectionState.Header)
		}

		filtered := serverErrors
		if !notify && sectionState.SectionType.IsFormBased() {
			filtered = o.filterTouched(serverErrors, sectionState.FormID)
		}

		if data == nil {
			data = datatypes.SectionData{}
		}
		d.Dispatch(ctx, store.UpdateSectionDataAction{
			SubmissionID:           submissionID,
			SectionID:              sectionID,
			Data:                   data,
			ErrorsToShow:           filtered,
			ServerValidationErrors: serverErrors,
		})
	}

	o.clearVanishedSherpaSections(ctx, d, submissionID, entry, resource, grouped)
}

// clearVanishedSherpaSections handles the one section type where a
// missing response key means "clear": a Sherpa policies section that
// previously held data but got nothing back is reset explicitly.
func (o *Orchestrator) clearVanishedSherpaSections(ctx context.Context, d *dispatch.Dispatcher, submissionID string, entry store.SubmissionEntry, resource datatypes.SubmissionObject, grouped map[string][]datatypes.SectionError) {
	for sectionID, sectionState := range entry.Sections {
		if sectionState.SectionType != datatypes.SectionTypeSherpaPolicies {
			continue
		}
		if sectionState.Data.IsEmpty() {
			continue
		}
		if _, inResponse := resource.Sections[sectionID]; inResponse {
			continue
		}
		if _, hasErrors := grouped[sectionID]; hasErrors {
			continue
		}
		d.Dispatch(ctx, store.UpdateSectionDataAction{
			SubmissionID: submissionID,
			SectionID:    sectionID,
			Data:         nil,
		})
	}
}

// filterTouched keeps only the errors whose field the user has touched.
// Section-level errors carry no field id and are always kept.
func (o *Orchestrator) filterTouched(errs []datatypes.SectionError, formID string) []datatypes.SectionError {
	var out []datatypes.SectionError
	for _, e := range errs {
		parsed, err := errorpaths.Parse(e.Path)
		if err != nil {
			continue
		}
		if !parsed.IsFieldScoped() || o.forms.IsFieldTouched(formID, parsed.FieldID) {
			out = append(out, e)
		}
	}
	return out
}

// unionSectionIDs returns the sorted union of section ids present in the
// response payload and in the grouped errors. Sorting keeps fan-out
// order deterministic across runs.
func unionSectionIDs(sections map[string]datatypes.SectionData, grouped map[string][]datatypes.SectionError) []string {
	seen := make(map[string]struct{}, len(sections)+len(grouped))
	for id := range sections {
		seen[id] = struct{}{}
	}
	for id := range grouped {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
