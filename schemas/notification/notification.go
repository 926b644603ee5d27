// Package notification contains the canonical notification DTOs shared
// between Bonsai services and clients.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ContentType selects whether an email is rendered as HTML or plain text.
type ContentType string

// Supported content types.
const (
	ContentHTML  ContentType = "html"
	ContentPlain ContentType = "plain"
)

// TemplateContext carries values rendered into an email template. The
// named fields reserve variable names used by the templates; any extra
// keys are passed through untouched.
type TemplateContext struct {
	// Username is the recipient's full name.
	Username string

	// Extra holds additional template variables.
	Extra map[string]any
}

// MarshalJSON flattens Extra alongside the reserved fields.
func (c TemplateContext) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.Username != "" {
		out["username"] = c.Username
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits reserved fields from pass-through keys.
func (c *TemplateContext) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["username"].(string); ok {
		c.Username = v
		delete(raw, "username")
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

// EmailCreate is the input for sending an email.
type EmailCreate struct {
	Recipients   []string         `json:"recipient" validate:"required,min=1,dive,email"`
	Subject      string           `json:"subject" validate:"required"`
	TemplateName string           `json:"template_name,omitempty"`
	Message      string           `json:"message,omitempty"`
	Context      *TemplateContext `json:"context,omitempty"`
	ContentType  ContentType      `json:"content_type" validate:"omitempty,oneof=html plain"`
}

// Normalize fills defaults expected by the notification service.
func (e *EmailCreate) Normalize() {
	if e.ContentType == "" {
		e.ContentType = ContentPlain
	}
}

// Validate reports whether the email request is well formed. Plain-text
// emails must carry a message; template emails need either a message or
// a context to render.
func (e *EmailCreate) Validate() error {
	if err := validator.New().Struct(e); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if e.Message == "" && (e.ContentType == ContentPlain || e.ContentType == "") {
		return errors.New("a message must be provided when sending a plain text email")
	}
	if e.Message == "" && e.Context == nil {
		return errors.New("either a message or a template context must be provided")
	}
	return nil
}
