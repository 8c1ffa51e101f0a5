package openai

import (
	"context"
	"fmt"

	"github.com/Chance101/email-agent/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client is an implementation of the CompletionClient interface using OpenAI
type Client struct {
	client    *openai.Client
	modelName string
	logger    *zap.Logger
}

// NewClient creates a new OpenAI completion client
func NewClient(apiKey string, modelName string, logger *zap.Logger) *Client {
	return &Client{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
		logger:    logger,
	}
}

// Complete sends a chat completion request and returns the response text
func (c *Client) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI completion succeeded",
		zap.String("model", c.modelName),
		zap.String("completion_id", resp.ID))

	return resp.Choices[0].Message.Content, nil
}
