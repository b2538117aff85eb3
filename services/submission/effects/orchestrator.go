// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package effects implements the asynchronous workflows of the
// submission state machine: form load, save, save-and-deposit, deposit,
// and discard. Each workflow consumes one trigger action, calls the REST
// boundary, and translates the result back into store actions.
//
// None of the workflows retry. A failed save, deposit, or discard
// surfaces an error action plus a user-visible notification, leaving the
// pending flags cleared so the user can retry manually.
package effects

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/DepositFlow/pkg/telemetry"
	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/formstate"
	"github.com/AleutianAI/DepositFlow/services/submission/notifications"
	"github.com/AleutianAI/DepositFlow/services/submission/patch"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// RestClient is the slice of the REST boundary the orchestrator needs.
// *restclient.Client satisfies it; tests substitute fakes.
type RestClient interface {
	Fetch(ctx context.Context, scope datatypes.ScopeType, submissionID string) (*datatypes.SubmissionObject, error)
	FetchItem(ctx context.Context, itemURL string) (*datatypes.Item, error)
	PatchSections(ctx context.Context, scope datatypes.ScopeType, submissionID string, ops []datatypes.PatchOperation) ([]datatypes.SubmissionObject, error)
	Deposit(ctx context.Context, selfURL string) error
	Discard(ctx context.Context, submissionID string) error
}

// Redirector moves the user after terminal workflows: back to the
// workspace listing on save-for-later, deposit, and discard.
type Redirector interface {
	RedirectToWorkspace()
}

// NopRedirector satisfies Redirector for headless deployments.
type NopRedirector struct{}

// RedirectToWorkspace does nothing.
func (NopRedirector) RedirectToWorkspace() {}

// Config wires the orchestrator's collaborators.
type Config struct {
	// Scope selects workspaceitem or workflowitem REST resources for
	// this session.
	Scope datatypes.ScopeType

	Queue    *patch.OperationQueue
	Client   RestClient
	Notifier notifications.Notifier
	Forms    formstate.Tracker
	Redirect Redirector
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
}

// Orchestrator is the effects layer. Register it on the dispatcher; it
// reacts to trigger actions and dispatches follow-ups.
type Orchestrator struct {
	scope    datatypes.ScopeType
	queue    *patch.OperationQueue
	client   RestClient
	notifier notifications.Notifier
	forms    formstate.Tracker
	redirect Redirector
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// New builds an orchestrator from its collaborators.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewNop()
	}
	if cfg.Redirect == nil {
		cfg.Redirect = NopRedirector{}
	}
	if cfg.Scope == "" {
		cfg.Scope = datatypes.ScopeWorkspaceItem
	}
	return &Orchestrator{
		scope:    cfg.Scope,
		queue:    cfg.Queue,
		client:   cfg.Client,
		notifier: cfg.Notifier,
		forms:    cfg.Forms,
		redirect: cfg.Redirect,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Scope returns the resource scope this orchestrator operates under.
func (o *Orchestrator) Scope() datatypes.ScopeType {
	return o.scope
}

// Handle implements dispatch.Effect.
func (o *Orchestrator) Handle(ctx context.Context, action store.Action, d *dispatch.Dispatcher) {
	o.metrics.ActionsApplied.WithLabelValues(action.ActionType()).Inc()

	switch a := action.(type) {
	case store.InitAction:
		o.loadForm(ctx, d, a)

	case store.ResetAction:
		// Reset delegates to the load-form workflow with the same payload.
		d.Dispatch(ctx, store.InitAction(a))

	case store.SaveAction:
		o.saveAll(ctx, d, a.SubmissionID, a.Manual, saveKindForm)

	case store.SaveForLaterAction:
		o.saveAll(ctx, d, a.SubmissionID, true, saveKindForLater)

	case store.SaveSectionAction:
		o.saveSection(ctx, d, a.SubmissionID, a.SectionID)

	case store.SaveAndDepositAction:
		o.saveAndDeposit(ctx, d, a.SubmissionID)

	case store.SaveSuccessAction:
		o.fanOutSections(ctx, d, a.SubmissionID, a.Response, a.Manual)

	case store.SaveSectionSuccessAction:
		o.fanOutSections(ctx, d, a.SubmissionID, a.Response, false)

	case store.SaveForLaterSuccessAction:
		o.notifier.Success("submission.save", "submission saved for later")
		o.redirect.RedirectToWorkspace()

	case store.SaveErrorAction:
		o.notifier.Error("submission.save", "saving the submission failed")

	case store.SaveForLaterErrorAction:
		o.notifier.Error("submission.save", "saving the submission failed")

	case store.SaveSectionErrorAction:
		o.notifier.Error("submission.save", "saving section "+a.SectionID+" failed")

	case store.DepositAction:
		o.deposit(ctx, d, a.SubmissionID)

	case store.DepositSuccessAction:
		o.notifier.Success("submission.deposit", "submission deposited into the workflow")
		o.redirect.RedirectToWorkspace()

	case store.DepositErrorAction:
		o.notifier.Error("submission.deposit", "depositing the submission failed")

	case store.DiscardAction:
		o.discard(ctx, d, a.SubmissionID)

	case store.DiscardSuccessAction:
		o.notifier.Success("submission.discard", "submission discarded")
		o.redirect.RedirectToWorkspace()

	case store.DiscardErrorAction:
		o.notifier.Error("submission.discard", "discarding the submission failed")

	case store.UpdateSectionDataAction:
		o.syncFormMetadata(ctx, d, a)
	}
}
