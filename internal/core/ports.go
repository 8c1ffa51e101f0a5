package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a message identifier has no
// corresponding message at the mail provider.
var ErrNotFound = errors.New("email not found")

// CompletionRequest describes a single text-completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// CompletionClient defines the interface for the external
// text-completion service. Complete may fail or time out; callers are
// expected to treat failures as soft.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// MailProvider defines the interface for the mail service backing the
// agent. Implementations return ErrNotFound for unknown message ids.
type MailProvider interface {
	// List fetches messages matching the provider query, preserving
	// the provider's result order.
	List(ctx context.Context, query string, maxResults int64) ([]*Email, error)

	// Get fetches a single message by id.
	Get(ctx context.Context, id string) (*Email, error)

	// ModifyLabels adds and removes labels on a message.
	ModifyLabels(ctx context.Context, id string, add, remove []string) error

	// Trash moves a message to the trash.
	Trash(ctx context.Context, id string) error

	// CreateDraft creates a draft reply to a message.
	CreateDraft(ctx context.Context, id string, body string) error
}

// CacheRepository defines the interface for caching advisor assessments.
type CacheRepository interface {
	// Get retrieves a cached assessment for a message.
	Get(ctx context.Context, messageID string) (*AssessmentEntry, error)

	// Set stores an assessment entry.
	Set(ctx context.Context, entry *AssessmentEntry) error

	// Delete removes an assessment entry.
	Delete(ctx context.Context, messageID string) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}

// PreferenceSource provides a read snapshot of the current user
// preferences for classification.
type PreferenceSource interface {
	Current() Preferences
}
