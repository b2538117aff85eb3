// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package effects

import (
	"context"
	"encoding/json"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// syncFormMetadata keeps form sections aligned with the item's
// authoritative metadata.
//
// Whenever a submission-form section's data is updated and the item's
// metadata differs from what the section now holds, the item is
// re-fetched and the section updated with the item's metadata. This
// covers server-computed enrichment (external metadata lookups) without
// the caller having to know about it. The re-dispatch converges: the
// item copy is updated first, so the follow-up comparison is equal.
func (o *Orchestrator) syncFormMetadata(ctx context.Context, d *dispatch.Dispatcher, a store.UpdateSectionDataAction) {
	entry, ok := d.Store().Entry(a.SubmissionID)
	if !ok {
		return
	}
	sectionState, ok := entry.Sections[a.SectionID]
	if !ok || !sectionState.SectionType.IsFormBased() {
		return
	}

	sectionMetadata, err := metadataFromSectionData(a.Data)
	if err != nil {
		o.logger.Warn("form section payload is not a metadata map", "submission_id", a.SubmissionID, "section_id", a.SectionID, "error", err)
		return
	}
	if normalizeMetadata(entry.Item.Metadata).Equal(sectionMetadata) {
		return
	}

	item, err := o.client.FetchItem(ctx, entry.ItemURL)
	if err != nil {
		o.logger.Error("item re-fetch failed", "submission_id", a.SubmissionID, "error", err)
		return
	}

	d.Dispatch(ctx, store.SetItemAction{SubmissionID: a.SubmissionID, Item: *item})
	d.Dispatch(ctx, store.UpdateSectionDataAction{
		SubmissionID:           a.SubmissionID,
		SectionID:              a.SectionID,
		Data:                   item.Metadata.AsSectionData(),
		ErrorsToShow:           a.ErrorsToShow,
		ServerValidationErrors: a.ServerValidationErrors,
		Metadata:               a.Metadata,
	})
	o.logger.Info("form section realigned with item metadata", "submission_id", a.SubmissionID, "section_id", a.SectionID)
}

// metadataFromSectionData reinterprets an opaque section payload as a
// metadata map via a JSON round-trip, which also normalizes value types.
func metadataFromSectionData(data datatypes.SectionData) (datatypes.MetadataMap, error) {
	if data == nil {
		return datatypes.MetadataMap{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m datatypes.MetadataMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = datatypes.MetadataMap{}
	}
	return m, nil
}

// normalizeMetadata round-trips a typed metadata map through JSON so the
// comparison with a decoded section payload is apples-to-apples.
func normalizeMetadata(m datatypes.MetadataMap) datatypes.MetadataMap {
	norm, err := metadataFromSectionData(m.AsSectionData())
	if err != nil {
		return m
	}
	return norm
}
