package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chance101/email-agent/internal/utils"
	"go.uber.org/zap"
)

// Advisor asks the completion service for a structured importance
// estimate of an email. It is a soft-fail collaborator: any failure
// (no client configured, network error, timeout, malformed response)
// yields a nil Assessment and is logged, never returned as an error.
type Advisor struct {
	client        CompletionClient
	cache         CacheRepository
	cacheEnabled  bool
	cacheTTL      time.Duration
	timeout       time.Duration
	maxBodySize   int
	temperature   float32
	maxTokens     int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// AdvisorOptions carries the tunables for the advisor.
type AdvisorOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	Timeout      time.Duration
	MaxBodySize  int
	Temperature  float32
	MaxTokens    int
}

// NewAdvisor creates a new advisor. A nil client is allowed and means
// no credential is configured; Assess then always returns nil.
func NewAdvisor(
	client CompletionClient,
	cache CacheRepository,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	opts AdvisorOptions,
) *Advisor {
	return &Advisor{
		client:        client,
		cache:         cache,
		cacheEnabled:  opts.CacheEnabled && cache != nil,
		cacheTTL:      opts.CacheTTL,
		timeout:       opts.Timeout,
		maxBodySize:   opts.MaxBodySize,
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Analyze this email and determine:
1. Importance score (0.0-1.0)
2. If it requires a response
3. Suggested action (show, archive, delete)

Subject: %s
From: %s
Body:
%s

Respond with a JSON object containing:
- importance_score: number between 0 and 1
- requires_response: boolean
- action: string (show, archive, or delete)

Respond only with the JSON object and nothing else.`,
	}
}

// Assess returns the LLM's estimate for an email, or nil if the
// advisor is unavailable or the call failed for any reason.
func (a *Advisor) Assess(ctx context.Context, email *Email) *Assessment {
	if a.client == nil {
		a.logger.Debug("No completion client configured, skipping LLM assessment")
		return nil
	}

	if a.cacheEnabled && email.ID != "" {
		if entry, err := a.cache.Get(ctx, email.ID); err == nil {
			a.logger.Debug("Assessment cache hit", zap.String("message_id", email.ID))
			return &Assessment{
				ImportanceScore:  entry.ImportanceScore,
				RequiresResponse: entry.RequiresResponse,
				Action:           entry.Action,
			}
		}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	body := a.textProcessor.ProcessText(email.Body, a.maxBodySize)
	prompt := fmt.Sprintf(a.promptFormat, email.Subject, email.Sender, body)

	text, err := a.client.Complete(ctx, CompletionRequest{
		System:      "You are an email classification assistant.",
		Prompt:      prompt,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		a.logger.Warn("LLM assessment failed, falling back to rules only",
			zap.String("message_id", email.ID),
			zap.Error(err))
		return nil
	}

	var assessment Assessment
	if err := parseJSONResponse(text, &assessment); err != nil {
		a.logger.Warn("Failed to parse LLM assessment",
			zap.String("message_id", email.ID),
			zap.Error(err))
		return nil
	}

	if a.cacheEnabled && email.ID != "" {
		now := time.Now()
		entry := &AssessmentEntry{
			MessageID:        email.ID,
			ImportanceScore:  assessment.ImportanceScore,
			RequiresResponse: assessment.RequiresResponse,
			Action:           assessment.Action,
			AssessedAt:       now,
			ExpiresAt:        now.Add(a.cacheTTL),
		}
		if err := a.cache.Set(ctx, entry); err != nil {
			a.logger.Error("Failed to update assessment cache", zap.Error(err))
		}
	}

	return &assessment
}

// parseJSONResponse unmarshals an LLM reply, tolerating prose around
// the JSON object by retrying on the span between the first '{' and
// the last '}'.
func parseJSONResponse(text string, v interface{}) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return fmt.Errorf("no JSON object in LLM response")
	}

	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd]), v); err != nil {
		return fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return nil
}
