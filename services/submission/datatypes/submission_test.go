// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionIDFromSelfLink(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"plain", "http://repo/api/config/submissionsections/traditionalpageone", "traditionalpageone"},
		{"trailing slash", "http://repo/api/config/submissionsections/upload/", "upload"},
		{"empty", "", ""},
		{"no slashes", "license", "license"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := SectionDefinition{Links: SectionLinks{Self: Href{Href: tt.href}}}
			assert.Equal(t, tt.want, def.SectionID())
		})
	}
}

func TestMetadataMapEqual(t *testing.T) {
	a := MetadataMap{"dc.title": {{Value: "Thesis"}}}
	b := MetadataMap{"dc.title": {{Value: "Thesis"}}}
	c := MetadataMap{"dc.title": {{Value: "Other"}}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, MetadataMap{}.Equal(nil), "empty and nil are the same map")
}

func TestMetadataMapAsSectionData(t *testing.T) {
	m := MetadataMap{
		"dc.title":   {{Value: "Thesis"}},
		"dc.subject": {{Value: "go"}, {Value: "state machines"}},
	}
	data := m.AsSectionData()
	require.Len(t, data, 2)

	subjects, ok := data["dc.subject"].([]any)
	require.True(t, ok)
	assert.Len(t, subjects, 2)
}

func TestHasValidationErrors(t *testing.T) {
	clean := SubmissionObject{ID: "ws-1"}
	assert.False(t, clean.HasValidationErrors())

	dirty := SubmissionObject{ID: "ws-1", Errors: []ErrorDescriptor{{Message: "x", Paths: []string{"/sections/license"}}}}
	assert.True(t, dirty.HasValidationErrors())
}

func TestSubmissionObjectValidate(t *testing.T) {
	valid := SubmissionObject{ID: "ws-1"}
	assert.NoError(t, valid.Validate())

	missing := SubmissionObject{}
	assert.Error(t, missing.Validate())
}

func TestPatchOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      PatchOperation
		wantErr bool
	}{
		{"valid add", PatchOperation{Op: PatchOpAdd, Path: "/sections/license", Value: true}, false},
		{"valid replace with field path", PatchOperation{Op: PatchOpReplace, Path: "/sections/traditionalpageone/dc.title", Value: "x"}, false},
		{"valid remove", PatchOperation{Op: PatchOpRemove, Path: "/sections/upload/files/0"}, false},
		{"unknown verb", PatchOperation{Op: "move", Path: "/sections/license"}, true},
		{"missing verb", PatchOperation{Path: "/sections/license"}, true},
		{"path outside sections", PatchOperation{Op: PatchOpAdd, Path: "/metadata/dc.title"}, true},
		{"missing path", PatchOperation{Op: PatchOpAdd}, true},
		{"prefix-only lookalike", PatchOperation{Op: PatchOpAdd, Path: "/sectionsX/license"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPatchOperationSectionID(t *testing.T) {
	assert.Equal(t, "license", PatchOperation{Path: "/sections/license"}.SectionID())
	assert.Equal(t, "upload", PatchOperation{Path: "/sections/upload/files/0"}.SectionID())
	assert.Equal(t, "", PatchOperation{Path: "/metadata/dc.title"}.SectionID())
	assert.Equal(t, "", PatchOperation{Path: "/sections"}.SectionID())
}
