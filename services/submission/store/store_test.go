// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

func TestStoreApplyAndSnapshots(t *testing.T) {
	s := NewStore()

	s.Apply(InitAction{SubmissionID: "ws-1", CollectionID: "coll-1"})
	s.Apply(InitSectionAction{
		SubmissionID: "ws-1",
		SectionID:    "license",
		SectionType:  datatypes.SectionTypeLicense,
		Enabled:      true,
	})

	entry, ok := s.Entry("ws-1")
	require.True(t, ok)
	assert.Equal(t, "coll-1", entry.CollectionID)

	sec, ok := s.Section("ws-1", "license")
	require.True(t, ok)
	assert.True(t, sec.Enabled)

	_, ok = s.Entry("ghost")
	assert.False(t, ok)
	_, ok = s.Section("ws-1", "ghost")
	assert.False(t, ok)
}

func TestStoreSnapshotsAreStable(t *testing.T) {
	s := NewStore()
	s.Apply(InitAction{SubmissionID: "ws-1"})

	before := s.State()
	s.Apply(SaveAction{SubmissionID: "ws-1"})

	// The earlier snapshot still shows the pre-save state.
	assert.False(t, before["ws-1"].SavePending)
	assert.True(t, s.State()["ws-1"].SavePending)
}

func TestStoreConcurrentReadsDuringApply(t *testing.T) {
	s := NewStore()
	s.Apply(InitAction{SubmissionID: "ws-1"})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Apply(SectionStatusChangeAction{SubmissionID: "ws-1", SectionID: "license", Valid: i%2 == 0})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = s.State()
			_, _ = s.Entry("ws-1")
		}
	}()
	wg.Wait()
}
