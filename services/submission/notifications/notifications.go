// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notifications is the user-facing notification boundary of the
// submission service. The orchestrator reports save results, deposit
// blocks, and newly detected sections through it; what renders the
// notification (toast, terminal, log line) is a deployment concern.
package notifications

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one emitted message.
type Notification struct {
	ID       string
	Severity Severity
	Title    string
	Message  string
}

// Notifier is the contract the orchestrator consumes.
type Notifier interface {
	Success(title, message string)
	Info(title, message string)
	Warning(title, message string)
	Error(title, message string)
}

// =============================================================================
// Slog Notifier
// =============================================================================

// SlogNotifier renders notifications as structured log records. It is the
// default for headless deployments.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier wraps a logger; nil falls back to slog.Default().
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Success(title, message string) {
	n.logger.Info("notification", "severity", SeveritySuccess, "title", title, "message", message)
}

func (n *SlogNotifier) Info(title, message string) {
	n.logger.Info("notification", "severity", SeverityInfo, "title", title, "message", message)
}

func (n *SlogNotifier) Warning(title, message string) {
	n.logger.Warn("notification", "severity", SeverityWarning, "title", title, "message", message)
}

func (n *SlogNotifier) Error(title, message string) {
	n.logger.Error("notification", "severity", SeverityError, "title", title, "message", message)
}

var _ Notifier = (*SlogNotifier)(nil)

// =============================================================================
// Recorder
// =============================================================================

// Recorder collects notifications in memory so tests can assert on what
// the orchestrator surfaced.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(sev Severity, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Notification{
		ID:       uuid.NewString(),
		Severity: sev,
		Title:    title,
		Message:  message,
	})
}

func (r *Recorder) Success(title, message string) { r.record(SeveritySuccess, title, message) }
func (r *Recorder) Info(title, message string)    { r.record(SeverityInfo, title, message) }
func (r *Recorder) Warning(title, message string) { r.record(SeverityWarning, title, message) }
func (r *Recorder) Error(title, message string)   { r.record(SeverityError, title, message) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// BySeverity returns the recorded notifications of one severity.
func (r *Recorder) BySeverity(sev Severity) []Notification {
	var out []Notification
	for _, n := range r.Entries() {
		if n.Severity == sev {
			out = append(out, n)
		}
	}
	return out
}

var _ Notifier = (*Recorder)(nil)
