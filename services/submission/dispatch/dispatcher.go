// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dispatch runs the submission event loop.
//
// All reducer transitions execute on a single consumer goroutine, in
// dispatch order, atomically with respect to each other. Effects observe
// each action after it has been applied and run as separate goroutines;
// any follow-up actions they dispatch re-enter the same serialized queue.
// This preserves the core ordering guarantee (for example, a form load
// emits its section-init actions in definition order followed by the
// completion action) while letting network-bound work overlap.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// defaultQueueSize bounds the action channel. The submission wizard
// produces small bursts (section inits, save fan-out); 256 is generous.
const defaultQueueSize = 256

// Effect reacts to an applied action, typically by doing async work and
// dispatching result actions back.
type Effect interface {
	// Handle is invoked once per applied action on its own goroutine.
	// Implementations must honor ctx cancellation.
	Handle(ctx context.Context, action store.Action, d *Dispatcher)
}

// EffectFunc adapts a function to the Effect interface.
type EffectFunc func(ctx context.Context, action store.Action, d *Dispatcher)

// Handle implements Effect.
func (f EffectFunc) Handle(ctx context.Context, action store.Action, d *Dispatcher) {
	f(ctx, action, d)
}

// Dispatcher owns the action queue and the consumer loop.
type Dispatcher struct {
	store   *store.Store
	logger  *slog.Logger
	effects []Effect

	actions chan store.Action

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	pending sync.WaitGroup
}

// New builds a dispatcher over the given store. Effects must be
// registered before Start.
func New(st *store.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   st,
		logger:  logger,
		actions: make(chan store.Action, defaultQueueSize),
	}
}

// Register adds an effect. Must not be called after Start.
func (d *Dispatcher) Register(e Effect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		panic("dispatch: Register called after Start")
	}
	d.effects = append(d.effects, e)
}

// Store exposes the underlying state container for read-side services.
func (d *Dispatcher) Store() *store.Store {
	return d.store
}

// Start launches the consumer loop. It returns immediately; the loop
// runs until Stop or context cancellation.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("dispatch: already started")
	}
	d.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	g, gctx := errgroup.WithContext(loopCtx)
	d.group = g
	g.Go(func() error {
		d.consume(gctx)
		return nil
	})
	return nil
}

// Dispatch enqueues one action. It blocks while the queue is full and
// silently drops the action once the loop has shut down; in-flight
// effects may still resolve after teardown.
func (d *Dispatcher) Dispatch(ctx context.Context, action store.Action) {
	select {
	case d.actions <- action:
	case <-ctx.Done():
		d.logger.Debug("action dropped on shutdown", "action", action.ActionType())
	}
}

// Stop cancels the loop and waits (bounded by ctx) for in-flight effect
// goroutines to notice cancellation.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancel := d.cancel
	group := d.group
	d.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		d.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch: shutdown timed out: %w", ctx.Err())
	}
}

// consume is the single consumer loop: apply, then fan out to effects.
func (d *Dispatcher) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case action := <-d.actions:
			d.store.Apply(action)
			d.logger.Debug("action applied", "action", action.ActionType())

			for _, effect := range d.effects {
				effect := effect
				d.pending.Add(1)
				go func() {
					defer d.pending.Done()
					effect.Handle(ctx, action, d)
				}()
			}
		}
	}
}
