// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package restclient implements the REST boundary the orchestrator talks
// to: creating, fetching, patching, depositing, and discarding submission
// resources.
//
// The client is deliberately thin. It does not retry (failed operations
// surface to the orchestrator, which clears pending flags and lets the
// user retry), and it does not cancel in-flight requests on teardown (a
// late response becomes a no-op action against whatever state remains).
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/DepositFlow/pkg/validation"
	"github.com/AleutianAI/DepositFlow/services/submission/datatypes"
)

const (
	// tracerName identifies this package's spans.
	tracerName = "depositflow/restclient"

	// contentTypeURIList is the media type for link-body requests
	// (external-source create, deposit).
	contentTypeURIList = "text/uri-list"

	defaultTimeout = 30 * time.Second
)

// =============================================================================
// Errors
// =============================================================================

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

// =============================================================================
// Client
// =============================================================================

// Endpoints configures the two resource collections a submission can
// live under.
type Endpoints struct {
	// WorkspaceItems is the workspaceitems collection URL.
	WorkspaceItems string

	// WorkflowItems is the workflowitems collection URL.
	WorkflowItems string
}

// Base returns the collection URL for a scope.
func (e Endpoints) Base(scope datatypes.ScopeType) string {
	if scope == datatypes.ScopeWorkflowItem {
		return strings.TrimRight(e.WorkflowItems, "/")
	}
	return strings.TrimRight(e.WorkspaceItems, "/")
}

// Client talks to the submission REST surface.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	tracer     trace.Tracer
	limiter    *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces outgoing requests. Zero disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewClient builds a client for the given endpoints.
func NewClient(endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoints:  endpoints,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Operations
// =============================================================================

// Create starts a new submission, optionally under an owning collection.
// The backend responds with an array whose first element is the new
// resource.
func (c *Client) Create(ctx context.Context, collectionID string) (*datatypes.SubmissionObject, error) {
	return c.create(ctx, collectionID, "")
}

// CreateFromExternalSource starts a new submission seeded from an
// external-source entry URI.
func (c *Client) CreateFromExternalSource(ctx context.Context, collectionID, externalURI string) (*datatypes.SubmissionObject, error) {
	if externalURI == "" {
		return nil, fmt.Errorf("external source URI is empty")
	}
	return c.create(ctx, collectionID, externalURI)
}

func (c *Client) create(ctx context.Context, collectionID, externalURI string) (*datatypes.SubmissionObject, error) {
	target := c.endpoints.Base(datatypes.ScopeWorkspaceItem)
	if collectionID != "" {
		if err := validation.ValidateResourceID(collectionID); err != nil {
			return nil, fmt.Errorf("create submission: invalid collection id: %w", err)
		}
		target += "?owningCollection=" + url.QueryEscape(collectionID)
	}

	var body io.Reader = strings.NewReader("{}")
	contentType := "application/json"
	if externalURI != "" {
		body = strings.NewReader(externalURI)
		contentType = contentTypeURIList
	}

	raw, err := c.do(ctx, http.MethodPost, target, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	resources, err := decodeResourceArray(raw)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("create submission: backend returned no resource")
	}
	return &resources[0], nil
}

// Fetch retrieves the current server copy of a submission with the full
// projection.
func (c *Client) Fetch(ctx context.Context, scope datatypes.ScopeType, submissionID string) (*datatypes.SubmissionObject, error) {
	if err := validation.ValidateResourceID(submissionID); err != nil {
		return nil, fmt.Errorf("fetch submission: invalid id: %w", err)
	}
	target := c.endpoints.Base(scope) + "/" + url.PathEscape(submissionID) + "?projection=full"

	raw, err := c.do(ctx, http.MethodGet, target, "", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch submission %s: %w", submissionID, err)
	}

	var resource datatypes.SubmissionObject
	if err := json.Unmarshal(raw, &resource); err != nil {
		return nil, fmt.Errorf("fetch submission %s: decode response: %w", submissionID, err)
	}
	return &resource, nil
}

// FetchItem retrieves an item resource by its link. Used to re-align
// form sections with server-computed metadata enrichment.
func (c *Client) FetchItem(ctx context.Context, itemURL string) (*datatypes.Item, error) {
	raw, err := c.do(ctx, http.MethodGet, itemURL, "", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch item: %w", err)
	}

	var item datatypes.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("fetch item: decode response: %w", err)
	}
	return &item, nil
}

// PatchSections sends a JSON Patch array against the submission's
// sections document and returns the updated resource list.
func (c *Client) PatchSections(ctx context.Context, scope datatypes.ScopeType, submissionID string, ops []datatypes.PatchOperation) ([]datatypes.SubmissionObject, error) {
	if err := validation.ValidateResourceID(submissionID); err != nil {
		return nil, fmt.Errorf("patch submission: invalid id: %w", err)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("patch submission %s: no operations", submissionID)
	}
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("patch submission %s: invalid operation %q %q: %w", submissionID, op.Op, op.Path, err)
		}
	}

	payload, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("patch submission %s: encode operations: %w", submissionID, err)
	}

	target := c.endpoints.Base(scope) + "/" + url.PathEscape(submissionID) + "/sections"
	raw, err := c.do(ctx, http.MethodPatch, target, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("patch submission %s: %w", submissionID, err)
	}

	resources, err := decodeResourceArray(raw)
	if err != nil {
		return nil, fmt.Errorf("patch submission %s: %w", submissionID, err)
	}
	return resources, nil
}

// Deposit moves a submission into the workflow by posting its self link
// to the workflowitems collection.
func (c *Client) Deposit(ctx context.Context, selfURL string) error {
	target := c.endpoints.Base(datatypes.ScopeWorkflowItem)
	if _, err := c.do(ctx, http.MethodPost, target, contentTypeURIList, strings.NewReader(selfURL)); err != nil {
		return fmt.Errorf("deposit submission: %w", err)
	}
	return nil
}

// Discard deletes an in-progress submission.
func (c *Client) Discard(ctx context.Context, submissionID string) error {
	if err := validation.ValidateResourceID(submissionID); err != nil {
		return fmt.Errorf("discard submission: invalid id: %w", err)
	}
	target := c.endpoints.Base(datatypes.ScopeWorkspaceItem) + "/" + url.PathEscape(submissionID)
	if _, err := c.do(ctx, http.MethodDelete, target, "", nil); err != nil {
		return fmt.Errorf("discard submission %s: %w", submissionID, err)
	}
	return nil
}

// =============================================================================
// Transport
// =============================================================================

// do performs one HTTP exchange with tracing and pacing, returning the
// raw response body for 2xx statuses and a *StatusError otherwise.
func (c *Client) do(ctx context.Context, method, target, contentType string, body io.Reader) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, span := c.tracer.Start(ctx, "submission.rest "+method,
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// decodeResourceArray decodes a response that is either a resource array
// or a single resource (some proxies unwrap single-element arrays).
func decodeResourceArray(raw []byte) ([]datatypes.SubmissionObject, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var resources []datatypes.SubmissionObject
		if err := json.Unmarshal(trimmed, &resources); err != nil {
			return nil, fmt.Errorf("decode resource array: %w", err)
		}
		return resources, nil
	}
	var resource datatypes.SubmissionObject
	if err := json.Unmarshal(trimmed, &resource); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	return []datatypes.SubmissionObject{resource}, nil
}

// errorMessage pulls a human-readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
