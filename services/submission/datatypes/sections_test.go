// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionTypeIsFormBased(t *testing.T) {
	assert.True(t, SectionTypeSubmissionForm.IsFormBased())
	assert.False(t, SectionTypeUpload.IsFormBased())
	assert.False(t, SectionTypeLicense.IsFormBased())
	assert.False(t, SectionTypeSherpaPolicies.IsFormBased())
}

func TestVisibilityHidden(t *testing.T) {
	tests := []struct {
		name string
		vis  *SectionVisibility
		want bool
	}{
		{"nil visibility", nil, false},
		{"both hidden", &SectionVisibility{Main: VisibilityHidden, Other: VisibilityHidden}, true},
		{"only main hidden", &SectionVisibility{Main: VisibilityHidden}, false},
		{"only other hidden", &SectionVisibility{Other: VisibilityHidden}, false},
		{"readonly is not hidden", &SectionVisibility{Main: VisibilityReadOnly, Other: VisibilityReadOnly}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.vis.Hidden())
		})
	}
}

func TestSectionDataIsEmpty(t *testing.T) {
	assert.True(t, SectionData(nil).IsEmpty())
	assert.True(t, SectionData{}.IsEmpty())
	assert.False(t, SectionData{"k": "v"}.IsEmpty())
}

func TestSectionDataClone(t *testing.T) {
	assert.Nil(t, SectionData(nil).Clone())

	orig := SectionData{"a": 1}
	clone := orig.Clone()
	clone["b"] = 2
	assert.Len(t, orig, 1)
}

func TestFilesDistinguishesMissingFromEmpty(t *testing.T) {
	// No files key at all: the section never held uploads.
	files, ok := SectionData{}.Files()
	assert.False(t, ok)
	assert.Nil(t, files)

	// Empty array: every upload was removed.
	files, ok = SectionData{"files": []UploadFile{}}.Files()
	assert.True(t, ok)
	assert.Empty(t, files)
}

func TestFilesDecodesRawJSONShape(t *testing.T) {
	var data SectionData
	raw := `{"files":[{"uuid":"file-1","url":"http://repo/bitstreams/file-1"},{"uuid":"file-2"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	files, ok := data.Files()
	require.True(t, ok)
	require.Len(t, files, 2)
	assert.Equal(t, "file-1", files[0].UUID)
	assert.Equal(t, "http://repo/bitstreams/file-1", files[0].URL)
	assert.Equal(t, "file-2", files[1].UUID)
}

func TestWithFilesDoesNotAliasOriginal(t *testing.T) {
	orig := SectionData{"primary": "file-1"}
	next := orig.WithFiles([]UploadFile{{UUID: "file-1"}})

	_, ok := orig.Files()
	assert.False(t, ok, "original payload must stay untouched")
	files, ok := next.Files()
	require.True(t, ok)
	assert.Len(t, files, 1)
	assert.Equal(t, "file-1", next["primary"])
}

func TestWithFilesOnNilPayload(t *testing.T) {
	next := SectionData(nil).WithFiles([]UploadFile{{UUID: "file-1"}})
	files, ok := next.Files()
	require.True(t, ok)
	assert.Len(t, files, 1)
}

func TestContainsError(t *testing.T) {
	errs := []SectionError{
		{Path: "/sections/license", Message: "not granted"},
	}
	assert.True(t, ContainsError(errs, SectionError{Path: "/sections/license", Message: "not granted"}))
	assert.False(t, ContainsError(errs, SectionError{Path: "/sections/license", Message: "other"}))
	assert.False(t, ContainsError(nil, SectionError{Path: "/sections/license"}))
}
