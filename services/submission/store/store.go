// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import "sync"

// Store is the state container owned by whatever composes the
// application. It is handed by reference to the dispatcher (the only
// writer) and to read-side services.
//
// # Thread Safety
//
// Apply must only be called from the dispatcher's single consumer loop;
// the mutex exists so readers can snapshot concurrently with that loop.
// Because Reduce is copy-on-write, a snapshot taken before a transition
// remains internally consistent afterwards.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: State{}}
}

// Apply runs one reducer transition and returns the resulting state.
func (s *Store) Apply(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)
	return s.state
}

// State returns the current state snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Entry returns the entry for a submission id.
func (s *Store) Entry(submissionID string) (SubmissionEntry, bool) {
	return s.State().Entry(submissionID)
}

// Section returns the section state for a submission/section id pair.
func (s *Store) Section(submissionID, sectionID string) (SectionState, bool) {
	return s.State().Section(submissionID, sectionID)
}
