// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package effects

import (
	"context"

	"github.com/AleutianAI/DepositFlow/services/submission/dispatch"
	"github.com/AleutianAI/DepositFlow/services/submission/patch"
	"github.com/AleutianAI/DepositFlow/services/submission/store"
)

// deposit posts the submission's self link to the workflow endpoint. On
// success the entry leaves the store (terminal); on error only the
// pending flag clears.
func (o *Orchestrator) deposit(ctx context.Context, d *dispatch.Dispatcher, submissionID string) {
	entry, ok := d.Store().Entry(submissionID)
	if !ok {
		return
	}

	if err := o.client.Deposit(ctx, entry.SelfURL); err != nil {
		o.metrics.DepositsTotal.WithLabelValues("error").Inc()
		o.logger.Error("deposit failed", "submission_id", submissionID, "error", err)
		d.Dispatch(ctx, store.DepositErrorAction{SubmissionID: submissionID})
		return
	}

	o.metrics.DepositsTotal.WithLabelValues("success").Inc()
	o.queue.Delete(patch.ResourceTypeSections, submissionID)
	d.Dispatch(ctx, store.DepositSuccessAction{SubmissionID: submissionID})
}

// discard deletes the submission server-side. The DELETE is
// fire-and-forget against local state: nothing changes until the success
// action lands.
func (o *Orchestrator) discard(ctx context.Context, d *dispatch.Dispatcher, submissionID string) {
	if _, ok := d.Store().Entry(submissionID); !ok {
		return
	}

	if err := o.client.Discard(ctx, submissionID); err != nil {
		o.metrics.DiscardsTotal.WithLabelValues("error").Inc()
		o.logger.Error("discard failed", "submission_id", submissionID, "error", err)
		d.Dispatch(ctx, store.DiscardErrorAction{SubmissionID: submissionID})
		return
	}

	o.metrics.DiscardsTotal.WithLabelValues("success").Inc()
	o.queue.Delete(patch.ResourceTypeSections, submissionID)
	d.Dispatch(ctx, store.DiscardSuccessAction{SubmissionID: submissionID})
}
