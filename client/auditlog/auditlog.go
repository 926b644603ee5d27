// Package auditlog provides the client for the Bonsai audit log
// service, used by services to record and query audit events.
package auditlog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mhkc/bonsai-libs/client"
	"github.com/mhkc/bonsai-libs/schemas/audit"
)

// Client logs and retrieves events from the audit log service.
type Client struct {
	api *client.Client
}

// New wraps a core client pointing at the audit log service.
func New(api *client.Client) *Client {
	return &Client{api: api}
}

// PostEvent records a new event. The event is normalized and validated
// before it leaves the process; the service answers 202 Accepted with
// the assigned event id.
func (c *Client) PostEvent(ctx context.Context, event audit.EventCreate) (audit.EventResponse, error) {
	event.Normalize()
	if err := event.Validate(); err != nil {
		return audit.EventResponse{}, err
	}
	var resp audit.EventResponse
	if err := c.api.Post(ctx, "events", event, &resp); err != nil {
		return audit.EventResponse{}, fmt.Errorf("post audit event: %w", err)
	}
	return resp, nil
}

// EventQuery filters and paginates event listings.
type EventQuery struct {
	// Limit caps the page size; the service default of 50 applies when
	// zero.
	Limit int
	// Skip offsets into the result set.
	Skip int
	// SourceServices restricts results to events emitted by the named
	// services.
	SourceServices []string
	// OccurredAfter / OccurredBefore bound the event timestamps.
	OccurredAfter  time.Time
	OccurredBefore time.Time
}

func (q EventQuery) values() url.Values {
	params := url.Values{}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("skip", strconv.Itoa(q.Skip))
	for _, svc := range q.SourceServices {
		params.Add("source_service", svc)
	}
	if !q.OccurredAfter.IsZero() {
		params.Set("occurred_after", q.OccurredAfter.UTC().Format(time.RFC3339))
	}
	if !q.OccurredBefore.IsZero() {
		params.Set("occurred_before", q.OccurredBefore.UTC().Format(time.RFC3339))
	}
	return params
}

// Events returns a page of stored events matching the query.
func (c *Client) Events(ctx context.Context, query EventQuery) (audit.PaginatedEvents, error) {
	var page audit.PaginatedEvents
	if err := c.api.Get(ctx, "events", query.values(), &page); err != nil {
		return audit.PaginatedEvents{}, fmt.Errorf("list audit events: %w", err)
	}
	return page, nil
}
