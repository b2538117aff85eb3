// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "autosave:\n  interval: 60s\n")

	changes := make(chan Config, 4)
	w, err := NewWatcher(path, func(c Config) { changes <- c }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("autosave:\n  interval: 30s\n"), 0o600))

	select {
	case cfg := <-changes:
		assert.Equal(t, 30*time.Second, cfg.Autosave.Interval.Std())
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcherSkipsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "autosave:\n  interval: 60s\n")

	changes := make(chan Config, 4)
	w, err := NewWatcher(path, func(c Config) { changes <- c }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: verbose\n"), 0o600))

	select {
	case cfg := <-changes:
		t.Fatalf("unexpected reload with config %+v", cfg)
	case <-time.After(500 * time.Millisecond):
		// Invalid config was skipped as intended.
	}
}
