// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package effects

import (
	"context"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/errorpaths"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// loadForm initializes the submission's sections from the definition's
// ordered descriptor list.
//
// Sections are emitted strictly in definition order, followed by the
// completion action; callers rely on availability checks that only hold
// after full initialization. A descriptor is enabled when it is mandatory
// or when the incoming sections payload already carries data for it.
func (o *Orchestrator) loadForm(ctx context.Context, d *dispatch.Dispatcher, a store.InitAction) {
	grouped := errorpaths.Group(a.Errors)

	for _, def := range a.Definition.Sections {
		sectionID := def.SectionID()
		if sectionID == "" {
			o.logger.Warn("section descriptor without self link skipped", "submission_id", a.SubmissionID, "header", def.Header)
			continue
		}

		payload, hasPayload := a.Sections[sectionID]
		enabled := def.Mandatory || hasPayload

		var data datatypes.SectionData
		switch {
		case def.SectionType == datatypes.SectionTypeSubmissionForm:
			data = a.Item.Metadata.AsSectionData()
		case hasPayload:
			data = payload
		default:
			data = datatypes.SectionData{}
		}

		d.Dispatch(ctx, store.InitSectionAction{
			SubmissionID: a.SubmissionID,
			SectionID:    sectionID,
			Header:       def.Header,
			ConfigURL:    def.Links.Config.Href,
			Mandatory:    def.Mandatory,
			SectionType:  def.SectionType,
			Visibility:   def.Visibility,
			Enabled:      enabled,
			Data:         data,
			Errors:       grouped[sectionID],
		})
	}

	d.Dispatch(ctx, store.CompleteInitAction{SubmissionID: a.SubmissionID})
	o.logger.Info("submission form loaded",
		"submission_id", a.SubmissionID,
		"definition", a.Definition.Name,
		"sections", len(a.Definition.Sections),
	)
}
