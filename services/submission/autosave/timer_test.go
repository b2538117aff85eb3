// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package autosave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

func newDispatcher(t *testing.T, submissionID string) (*dispatch.Dispatcher, context.Context) {
	t.Helper()
	d := dispatch.New(store.NewStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, d.Start(ctx))
	d.Dispatch(ctx, store.InitAction{SubmissionID: submissionID})
	return d, ctx
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTimerDispatchesSaves(t *testing.T) {
	d, ctx := newDispatcher(t, "ws-1")
	timer := NewTimer(d, 20*time.Millisecond, nil)
	t.Cleanup(timer.Stop)

	timer.Start(ctx, "ws-1")

	// No save effect is registered, so the pending flag sticks once the
	// first tick lands.
	waitFor(t, func() bool {
		entry, _ := d.Store().Entry("ws-1")
		return entry.SavePending
	}, "autosave tick never dispatched")
}

func TestTimerZeroIntervalIsDisabled(t *testing.T) {
	d, ctx := newDispatcher(t, "ws-1")
	timer := NewTimer(d, 0, nil)

	timer.Start(ctx, "ws-1")
	time.Sleep(100 * time.Millisecond)

	entry, _ := d.Store().Entry("ws-1")
	assert.False(t, entry.SavePending)
}

func TestTimerRestartStopsPrevious(t *testing.T) {
	d, ctx := newDispatcher(t, "ws-1")
	d.Dispatch(ctx, store.InitAction{SubmissionID: "ws-2"})
	waitFor(t, func() bool {
		_, ok := d.Store().Entry("ws-2")
		return ok
	}, "second submission never initialized")

	timer := NewTimer(d, 20*time.Millisecond, nil)
	t.Cleanup(timer.Stop)

	timer.Start(ctx, "ws-1")
	timer.Start(ctx, "ws-2")

	waitFor(t, func() bool {
		entry, _ := d.Store().Entry("ws-2")
		return entry.SavePending
	}, "restarted timer never ticked")

	// The first submission may have caught a tick before the restart;
	// clear it and confirm no further ticks arrive for it.
	d.Dispatch(ctx, store.SaveErrorAction{SubmissionID: "ws-1"})
	waitFor(t, func() bool {
		entry, _ := d.Store().Entry("ws-1")
		return !entry.SavePending
	}, "save flag never cleared")

	time.Sleep(100 * time.Millisecond)
	entry, _ := d.Store().Entry("ws-1")
	assert.False(t, entry.SavePending, "stopped timer kept ticking")
}

func TestTimerStopWithoutStart(t *testing.T) {
	d, _ := newDispatcher(t, "ws-1")
	timer := NewTimer(d, time.Minute, nil)
	timer.Stop()
	timer.Stop()
}

func TestTimerSetIntervalAppliesOnRestart(t *testing.T) {
	d, ctx := newDispatcher(t, "ws-1")
	timer := NewTimer(d, 0, nil)
	t.Cleanup(timer.Stop)

	timer.Start(ctx, "ws-1")
	time.Sleep(50 * time.Millisecond)
	entry, _ := d.Store().Entry("ws-1")
	require.False(t, entry.SavePending)

	timer.SetInterval(20 * time.Millisecond)
	timer.Start(ctx, "ws-1")

	waitFor(t, func() bool {
		entry, _ := d.Store().Entry("ws-1")
		return entry.SavePending
	}, "updated interval never ticked")
}
