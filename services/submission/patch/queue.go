// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package patch accumulates field-level edits as an ordered, deduplicated
// list of JSON Patch operations per resource, to be flushed as a single
// atomic PATCH request.
//
// The queue is the sole signal of "unsaved modification": the orchestrator
// asks HasPending before deciding whether a save-and-deposit needs a flush
// or a plain re-fetch. On teardown the queue for a resource is deleted
// without flushing; in-memory diffs are discarded, never sent implicitly.
package patch

import (
	"strconv"
	"strings"
	"sync"

	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

// ResourceTypeSections is the resource type of the submission sections
// document, the only patch target this module uses today.
const ResourceTypeSections = "sections"

// key identifies one patch list: a resource type plus resource id.
type key struct {
	resourceType string
	resourceID   string
}

// OperationQueue holds pending JSON Patch operations keyed by resource.
//
// Enqueuing an operation supersedes any earlier operation with the same
// verb and path: the stale one is dropped and the fresh one appended, so
// the flushed list stays ordered by last edit. The queue is safe for
// concurrent use; the reducer never touches it.
type OperationQueue struct {
	mu  sync.Mutex
	ops map[key][]datatypes.PatchOperation
}

// NewOperationQueue returns an empty queue.
func NewOperationQueue() *OperationQueue {
	return &OperationQueue{ops: make(map[key][]datatypes.PatchOperation)}
}

// =============================================================================
// Path Combinators
// =============================================================================

// SectionPath builds the patch path of a whole section document.
func SectionPath(sectionID string) string {
	return datatypes.SectionsPathPrefix + "/" + sectionID
}

// FieldPath builds the patch path of a field inside a section.
func FieldPath(sectionID, fieldID string) string {
	return SectionPath(sectionID) + "/" + fieldID
}

// IndexedFieldPath builds the patch path of one value of a field.
func IndexedFieldPath(sectionID, fieldID string, index int) string {
	return FieldPath(sectionID, fieldID) + "/" + strconv.Itoa(index)
}

// =============================================================================
// Enqueue
// =============================================================================

// Add queues an add operation.
func (q *OperationQueue) Add(resourceType, resourceID, path string, value any) {
	q.enqueue(resourceType, resourceID, datatypes.PatchOperation{Op: datatypes.PatchOpAdd, Path: path, Value: value})
}

// Replace queues a replace operation.
func (q *OperationQueue) Replace(resourceType, resourceID, path string, value any) {
	q.enqueue(resourceType, resourceID, datatypes.PatchOperation{Op: datatypes.PatchOpReplace, Path: path, Value: value})
}

// Remove queues a remove operation.
func (q *OperationQueue) Remove(resourceType, resourceID, path string) {
	q.enqueue(resourceType, resourceID, datatypes.PatchOperation{Op: datatypes.PatchOpRemove, Path: path})
}

func (q *OperationQueue) enqueue(resourceType, resourceID string, op datatypes.PatchOperation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := key{resourceType, resourceID}
	existing := q.ops[k]
	next := make([]datatypes.PatchOperation, 0, len(existing)+1)
	for _, cur := range existing {
		if cur.Op == op.Op && cur.Path == op.Path {
			continue
		}
		next = append(next, cur)
	}
	q.ops[k] = append(next, op)
}

// =============================================================================
// Inspection and Flush Support
// =============================================================================

// HasPending reports whether any operations are queued for the resource.
// This is the sole dirty-check used to gate save-and-deposit.
func (q *OperationQueue) HasPending(resourceType, resourceID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops[key{resourceType, resourceID}]) > 0
}

// Operations returns a copy of all queued operations for the resource in
// queue order. The queue is not modified; callers clear it explicitly
// once the flush succeeds.
func (q *OperationQueue) Operations(resourceType, resourceID string) []datatypes.PatchOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops[key{resourceType, resourceID}]
	out := make([]datatypes.PatchOperation, len(ops))
	copy(out, ops)
	return out
}

// SectionOperations returns a copy of the queued operations whose path is
// scoped under the given section, preserving queue order.
func (q *OperationQueue) SectionOperations(resourceType, resourceID, sectionID string) []datatypes.PatchOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	prefix := SectionPath(sectionID)
	var out []datatypes.PatchOperation
	for _, op := range q.ops[key{resourceType, resourceID}] {
		if op.Path == prefix || strings.HasPrefix(op.Path, prefix+"/") {
			out = append(out, op)
		}
	}
	return out
}

// Clear removes every queued operation for the resource. Called after a
// successful whole-resource flush.
func (q *OperationQueue) Clear(resourceType, resourceID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.ops, key{resourceType, resourceID})
}

// ClearSection removes the operations scoped under one section. Called
// after a successful section-scoped flush.
func (q *OperationQueue) ClearSection(resourceType, resourceID, sectionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := key{resourceType, resourceID}
	prefix := SectionPath(sectionID)
	var kept []datatypes.PatchOperation
	for _, op := range q.ops[k] {
		if op.Path == prefix || strings.HasPrefix(op.Path, prefix+"/") {
			continue
		}
		kept = append(kept, op)
	}
	if len(kept) == 0 {
		delete(q.ops, k)
		return
	}
	q.ops[k] = kept
}

// Delete drops the queue for a resource without flushing. Used on
// component teardown: unflushed diffs are discarded, not sent.
func (q *OperationQueue) Delete(resourceType, resourceID string) {
	q.Clear(resourceType, resourceID)
}
