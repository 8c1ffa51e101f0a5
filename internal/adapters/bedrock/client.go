package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Chance101/email-agent/internal/core"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

// Client is an implementation of the CompletionClient interface using Amazon Bedrock
type Client struct {
	client  *bedrockruntime.Client
	modelID string
	logger  *zap.Logger
}

// NewClient creates a new Bedrock completion client
func NewClient(client *bedrockruntime.Client, modelID string, logger *zap.Logger) *Client {
	return &Client{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

func (c *Client) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.")
}

func (c *Client) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

// Complete invokes the configured Bedrock model and returns the
// response text. The request payload depends on the model family.
func (c *Client) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	// Bedrock text models take a single prompt; fold the system
	// instruction into it.
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	var payload []byte
	var err error
	switch {
	case c.isAnthropicModel():
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": req.MaxTokens,
			"temperature":          req.Temperature,
		})
	case c.isAmazonTitanModel():
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": req.MaxTokens,
				"temperature":   req.Temperature,
			},
		})
	default:
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  req.MaxTokens,
			"temperature": req.Temperature,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal Bedrock payload: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := c.extractText(output.Body)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Bedrock completion succeeded", zap.String("model_id", c.modelID))
	return text, nil
}

// extractText pulls the generated text out of the model-specific
// response body.
func (c *Client) extractText(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		return resp.Completion, nil
	case c.isAmazonTitanModel():
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Bedrock")
		}
		return resp.Results[0].OutputText, nil
	default:
		var resp struct {
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		return resp.Generation, nil
	}
}
