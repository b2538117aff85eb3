// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package autosave periodically triggers the save workflow for the
// active submission.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// Timer dispatches a non-manual save action at a fixed interval.
//
// A zero interval disables autosave entirely. Starting the timer again
// (for the same or another submission) implicitly stops the previous
// one: at most one timer runs at a time. Ticks are not manual saves, so
// no success or warning notifications fire from them.
type Timer struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTimer builds a timer with the configured interval.
func NewTimer(d *dispatch.Dispatcher, interval time.Duration, logger *slog.Logger) *Timer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{dispatcher: d, logger: logger, interval: interval}
}

// SetInterval changes the tick interval for future Start calls. A
// running timer is not re-armed; callers restart it to apply the change.
func (t *Timer) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
}

// Start begins ticking for a submission. No-op when autosave is
// disabled by configuration.
func (t *Timer) Start(ctx context.Context, submissionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if t.interval <= 0 {
		t.logger.Debug("autosave disabled", "submission_id", submissionID)
		return
	}

	tickCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	interval := t.interval

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				t.logger.Debug("autosave tick", "submission_id", submissionID)
				t.dispatcher.Dispatch(tickCtx, store.SaveAction{SubmissionID: submissionID, Manual: false})
			}
		}
	}()

	t.logger.Info("autosave started", "submission_id", submissionID, "interval", interval)
}

// Stop halts the timer, waiting for the tick goroutine to exit.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}
