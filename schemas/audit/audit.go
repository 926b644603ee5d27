// Package audit contains the canonical audit-log DTOs shared between
// Bonsai services and clients.
package audit

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Severity is the level attached to an audit event.
type Severity string

// Supported severity levels.
const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warning"
	SeverityError Severity = "error"
)

// ParseSeverity maps a wire value to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityDebug, SeverityInfo, SeverityWarn, SeverityError:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// SourceType identifies the origin of an actor or subject.
type SourceType string

// Supported source types.
const (
	SourceUser   SourceType = "user"
	SourceSystem SourceType = "system"
)

// Actor is the entity that triggered or logged the event.
type Actor struct {
	Type SourceType `json:"type" validate:"required,oneof=user system"`
	ID   string     `json:"id" validate:"required"`
}

// Subject is the entity that the event is about.
type Subject struct {
	Type SourceType `json:"type" validate:"required,oneof=user system"`
	ID   string     `json:"id" validate:"required"`
}

// EventCreate is the payload for recording a new audit event.
type EventCreate struct {
	SourceService string         `json:"source_service" validate:"required"`
	EventType     string         `json:"event_type" validate:"required"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Severity      Severity       `json:"severity" validate:"omitempty,oneof=debug info warning error"`
	Actor         Actor          `json:"actor"`
	Subject       Subject        `json:"subject"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Normalize fills server-expected defaults: a zero timestamp becomes
// the current UTC time and an empty severity becomes info.
func (e *EventCreate) Normalize() {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
}

// Validate reports whether the event is well formed.
func (e *EventCreate) Validate() error {
	if err := validator.New().Struct(e); err != nil {
		return fmt.Errorf("invalid audit event: %w", err)
	}
	return nil
}

// EventResponse is the body returned when an event was accepted.
type EventResponse struct {
	ID string `json:"id"`
}

// Event is a stored audit event including its server-assigned ID.
type Event struct {
	EventCreate
	ID string `json:"id"`
}

// PaginatedEvents is a page of stored events.
type PaginatedEvents struct {
	Items   []Event `json:"items"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Skip    int     `json:"skip"`
	HasMore bool    `json:"has_more"`
}
