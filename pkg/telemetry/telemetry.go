// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry exposes Prometheus instrumentation for the
// submission state machine: save/deposit/discard outcomes and patch
// flush behavior.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the submission service's Prometheus collectors.
type Metrics struct {
	// SavesTotal counts patch flushes by outcome ("success"/"error").
	SavesTotal *prometheus.CounterVec

	// DepositsTotal counts deposits by outcome.
	DepositsTotal *prometheus.CounterVec

	// DiscardsTotal counts discards by outcome.
	DiscardsTotal *prometheus.CounterVec

	// DepositsBlocked counts deposits prevented by validation errors.
	DepositsBlocked prometheus.Counter

	// PatchOperationsFlushed counts individual JSON Patch operations
	// sent to the backend.
	PatchOperationsFlushed prometheus.Counter

	// PatchFlushSeconds observes wall time of patch flushes.
	PatchFlushSeconds prometheus.Histogram

	// ActionsApplied counts reducer transitions by action type.
	ActionsApplied *prometheus.CounterVec
}

// New registers the submission collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SavesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depositflow",
			Name:      "saves_total",
			Help:      "Submission patch flushes by outcome.",
		}, []string{"outcome"}),
		DepositsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depositflow",
			Name:      "deposits_total",
			Help:      "Submission deposits by outcome.",
		}, []string{"outcome"}),
		DiscardsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depositflow",
			Name:      "discards_total",
			Help:      "Submission discards by outcome.",
		}, []string{"outcome"}),
		DepositsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "depositflow",
			Name:      "deposits_blocked_total",
			Help:      "Deposits prevented by outstanding validation errors.",
		}),
		PatchOperationsFlushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "depositflow",
			Name:      "patch_operations_flushed_total",
			Help:      "Individual JSON Patch operations sent to the backend.",
		}),
		PatchFlushSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "depositflow",
			Name:      "patch_flush_seconds",
			Help:      "Wall time of submission patch flushes.",
			Buckets:   prometheus.DefBuckets,
		}),
		ActionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depositflow",
			Name:      "actions_applied_total",
			Help:      "Reducer transitions by action type.",
		}, []string{"action"}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
