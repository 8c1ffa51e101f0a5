// Package gmail implements the MailProvider port on top of the Gmail
// REST API.
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/Chance101/email-agent/internal/core"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Provider implements core.MailProvider for Gmail.
type Provider struct {
	service *gmail.Service
	logger  *zap.Logger
}

// NewProvider creates a Gmail provider from an OAuth token handle.
func NewProvider(ctx context.Context, oauthConfig *oauth2.Config, token *oauth2.Token, logger *zap.Logger) (*Provider, error) {
	httpClient := oauthConfig.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Provider{
		service: service,
		logger:  logger,
	}, nil
}

// List fetches messages matching the query, preserving the provider's
// result order. Message details are fetched with bounded concurrency
// to stay under the API rate limits.
func (p *Provider) List(ctx context.Context, query string, maxResults int64) ([]*core.Email, error) {
	req := p.service.Users.Messages.List("me")
	if query != "" {
		req = req.Q(query)
	}
	if maxResults > 0 {
		req = req.MaxResults(maxResults)
	}

	resp, err := req.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", wrapAPIError(err))
	}
	if len(resp.Messages) == 0 {
		return []*core.Email{}, nil
	}

	const maxConcurrency = 5
	type fetch struct {
		index int
		email *core.Email
		err   error
	}

	results := make(chan fetch, len(resp.Messages))
	semaphore := make(chan struct{}, maxConcurrency)
	for i, m := range resp.Messages {
		go func(idx int, id string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			email, err := p.Get(ctx, id)
			results <- fetch{index: idx, email: email, err: err}
		}(i, m.Id)
	}

	ordered := make([]*core.Email, len(resp.Messages))
	for range resp.Messages {
		r := <-results
		if r.err != nil {
			p.logger.Warn("Failed to fetch message detail",
				zap.Int("index", r.index),
				zap.Error(r.err))
			continue
		}
		ordered[r.index] = r.email
	}

	emails := make([]*core.Email, 0, len(ordered))
	for _, email := range ordered {
		if email != nil {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

// Get fetches a single message by id.
func (p *Provider) Get(ctx context.Context, id string) (*core.Email, error) {
	msg, err := p.service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err)
	}
	return parseMessage(msg), nil
}

// ModifyLabels adds and removes labels on a message.
func (p *Provider) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	_, err := p.service.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to modify labels: %w", wrapAPIError(err))
	}
	return nil
}

// Trash moves a message to the trash.
func (p *Provider) Trash(ctx context.Context, id string) error {
	_, err := p.service.Users.Messages.Trash("me", id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to trash message: %w", wrapAPIError(err))
	}
	return nil
}

// CreateDraft creates a draft reply to a message, threading it with
// Re:, In-Reply-To and References headers.
func (p *Provider) CreateDraft(ctx context.Context, id string, body string) error {
	msg, err := p.service.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("Subject", "From", "To", "Message-ID").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to fetch message for draft: %w", wrapAPIError(err))
	}

	subject := headerValue(msg.Payload, "Subject")
	sender := headerValue(msg.Payload, "From")
	recipient := headerValue(msg.Payload, "To")
	messageID := headerValue(msg.Payload, "Message-ID")

	if !strings.HasPrefix(subject, "Re:") {
		subject = "Re: " + subject
	}

	var raw strings.Builder
	fmt.Fprintf(&raw, "From: %s\r\n", recipient)
	fmt.Fprintf(&raw, "To: %s\r\n", sender)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	if messageID != "" {
		fmt.Fprintf(&raw, "In-Reply-To: %s\r\n", messageID)
		fmt.Fprintf(&raw, "References: %s\r\n", messageID)
	}
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	draft := &gmail.Draft{
		Message: &gmail.Message{
			Raw:      base64.URLEncoding.EncodeToString([]byte(raw.String())),
			ThreadId: msg.ThreadId,
		},
	}
	if _, err := p.service.Users.Drafts.Create("me", draft).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create draft: %w", wrapAPIError(err))
	}
	return nil
}

// parseMessage flattens a Gmail message into the core email shape.
func parseMessage(msg *gmail.Message) *core.Email {
	email := &core.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}
	if msg.Payload == nil {
		return email
	}

	email.Subject = headerValue(msg.Payload, "Subject")
	email.Sender = headerValue(msg.Payload, "From")
	email.Date = headerValue(msg.Payload, "Date")
	email.Body = extractBody(msg.Payload)
	return email
}

func headerValue(payload *gmail.MessagePart, name string) string {
	for _, h := range payload.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// extractBody decodes the message body, preferring text/plain over
// text/html parts.
func extractBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}

	var html string
	for _, part := range payload.Parts {
		if part.Body == nil || part.Body.Data == "" {
			continue
		}
		switch part.MimeType {
		case "text/plain":
			return decodeBody(part.Body.Data)
		case "text/html":
			if html == "" {
				html = decodeBody(part.Body.Data)
			}
		}
	}
	return html
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// wrapAPIError maps a Gmail 404 onto core.ErrNotFound so the API layer
// can distinguish missing messages from transport failures.
func wrapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return core.ErrNotFound
	}
	return err
}
