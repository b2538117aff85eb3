// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the submission resource shape consumed from the
// backend REST API, the submission definition, and the item metadata
// model. For section-level types see sections.go, for JSON Patch
// operations see patch.go.
package datatypes

import (
	"reflect"
	"strings"
	"time"
)

// =============================================================================
// Scope
// =============================================================================

// ScopeType distinguishes the two resource families a submission can live
// under. A workspace item belongs to the submitter and is fully editable;
// a workflow item is under review and exposes read-only sections to
// reviewers.
type ScopeType string

const (
	// ScopeWorkspaceItem is an in-progress submission owned by the submitter.
	ScopeWorkspaceItem ScopeType = "workspaceitem"

	// ScopeWorkflowItem is a submission moving through the review workflow.
	ScopeWorkflowItem ScopeType = "workflowitem"
)

// =============================================================================
// Metadata
// =============================================================================

// MetadataValue is one value of a metadata field on an item.
type MetadataValue struct {
	Value      string `json:"value"`
	Language   string `json:"language,omitempty"`
	Authority  string `json:"authority,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Place      int    `json:"place,omitempty"`
}

// MetadataMap maps metadata field ids (e.g. "dc.title") to their values.
type MetadataMap map[string][]MetadataValue

// Equal reports deep equality of two metadata maps. Used by the
// orchestrator to decide whether a form section has drifted from the
// item's authoritative metadata.
func (m MetadataMap) Equal(other MetadataMap) bool {
	if len(m) == 0 && len(other) == 0 {
		return true
	}
	return reflect.DeepEqual(m, other)
}

// AsSectionData converts the metadata map into an opaque section payload
// suitable for a submission-form section.
func (m MetadataMap) AsSectionData() SectionData {
	data := SectionData{}
	for field, values := range m {
		vs := make([]any, 0, len(values))
		for _, v := range values {
			vs = append(vs, v)
		}
		data[field] = vs
	}
	return data
}

// Item is the archival item a submission describes.
type Item struct {
	UUID         string      `json:"uuid"`
	Metadata     MetadataMap `json:"metadata"`
	LastModified time.Time   `json:"lastModified,omitzero"`
}

// =============================================================================
// Submission Definition
// =============================================================================

// SectionDefinition is one descriptor inside a submission definition. The
// ordered descriptor list determines which sections exist for a given
// collection and in which order they initialize.
type SectionDefinition struct {
	Header      string             `json:"header"`
	Mandatory   bool               `json:"mandatory"`
	SectionType SectionType        `json:"sectionType"`
	Visibility  *SectionVisibility `json:"visibility,omitempty"`
	Links       SectionLinks       `json:"_links"`
}

// SectionLinks carries the hypermedia links of a section descriptor.
type SectionLinks struct {
	Self   Href `json:"self"`
	Config Href `json:"config"`
}

// SectionID derives the stable section id from the descriptor's
// self-link, which is its last path segment. The store never invents ids;
// this derivation is the single source of them.
func (d SectionDefinition) SectionID() string {
	href := strings.TrimRight(d.Links.Self.Href, "/")
	if href == "" {
		return ""
	}
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}

// SubmissionDefinition is the server-supplied ordered list of section
// descriptors for a given collection/workflow.
type SubmissionDefinition struct {
	Name      string              `json:"name"`
	IsDefault bool                `json:"isDefault,omitempty"`
	Sections  []SectionDefinition `json:"sections"`
}

// =============================================================================
// Submission Resource
// =============================================================================

// Href wraps a hypermedia link.
type Href struct {
	Href string `json:"href"`
}

// SubmissionLinks carries the hypermedia links of a submission resource.
type SubmissionLinks struct {
	Self                 Href `json:"self"`
	Collection           Href `json:"collection"`
	Item                 Href `json:"item"`
	SubmissionDefinition Href `json:"submissionDefinition"`
	Submitter            Href `json:"submitter"`
	SupervisionOrders    Href `json:"supervisionOrders"`
}

// Collection is the owning collection of a submission.
type Collection struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// SubmissionObject is the server-side resource representing an in-progress
// workspace item or workflow item. This is the authoritative copy the
// orchestrator reconciles local state against.
type SubmissionObject struct {
	ID                   string                 `json:"id" validate:"required"`
	LastModified         time.Time              `json:"lastModified,omitzero"`
	Collection           Collection             `json:"collection"`
	Item                 Item                   `json:"item"`
	SubmissionDefinition SubmissionDefinition   `json:"submissionDefinition"`
	Submitter            map[string]any         `json:"submitter,omitempty"`
	Sections             map[string]SectionData `json:"sections"`
	Errors               []ErrorDescriptor      `json:"errors"`
	Links                SubmissionLinks        `json:"_links"`
}

// SelfURL returns the resource's self link.
func (s *SubmissionObject) SelfURL() string {
	return s.Links.Self.Href
}

// HasValidationErrors reports whether any section carries a validation
// error. A deposit is blocked while this holds.
func (s *SubmissionObject) HasValidationErrors() bool {
	return len(s.Errors) > 0
}

// Validate checks the resource against its struct tags.
func (s *SubmissionObject) Validate() error {
	return validate.Struct(s)
}
