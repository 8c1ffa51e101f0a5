package core

import (
	"context"
	"fmt"
	"time"

	"github.com/Chance101/email-agent/internal/utils"
	"go.uber.org/zap"
)

// FallbackReply is returned whenever a reply cannot be generated.
const FallbackReply = "I apologize, but I need to respond to your message later."

// Drafter generates reply drafts via the completion service. Like the
// advisor it never fails: without a configured client, or on any call
// or timeout error, it returns FallbackReply.
type Drafter struct {
	client        CompletionClient
	timeout       time.Duration
	maxBodySize   int
	temperature   float32
	maxTokens     int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// DrafterOptions carries the tunables for the drafter.
type DrafterOptions struct {
	Timeout     time.Duration
	MaxBodySize int
	Temperature float32
	MaxTokens   int
}

// NewDrafter creates a new reply drafter. A nil client means no
// credential is configured; Draft then returns FallbackReply without
// making an external call.
func NewDrafter(
	client CompletionClient,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	opts DrafterOptions,
) *Drafter {
	return &Drafter{
		client:        client,
		timeout:       opts.Timeout,
		maxBodySize:   opts.MaxBodySize,
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Write a professional email reply to the following message.
Be concise, friendly, and address all questions or requests in the email.

Original Email:
From: %s
Subject: %s

%s

Reply:`,
	}
}

// Draft produces reply text for an email.
func (d *Drafter) Draft(ctx context.Context, email *Email) string {
	if d.client == nil {
		return FallbackReply
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	body := d.textProcessor.ProcessText(email.Body, d.maxBodySize)
	prompt := fmt.Sprintf(d.promptFormat, email.Sender, email.Subject, body)

	text, err := d.client.Complete(ctx, CompletionRequest{
		System:      "You are a helpful email assistant.",
		Prompt:      prompt,
		Temperature: d.temperature,
		MaxTokens:   d.maxTokens,
	})
	if err != nil {
		d.logger.Warn("Reply generation failed, using fallback",
			zap.String("message_id", email.ID),
			zap.Error(err))
		return FallbackReply
	}

	return text
}
