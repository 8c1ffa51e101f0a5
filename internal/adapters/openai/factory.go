package openai

import (
	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
	"go.uber.org/zap"
)

// Factory creates OpenAI completion clients from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new OpenAI factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateClient creates a completion client, or nil when no API key is
// configured (the agent then runs in rules-only mode).
func (f *Factory) CreateClient() (core.CompletionClient, error) {
	openaiConfig := f.cfg.GetOpenAI()
	if openaiConfig.APIKey == "" {
		f.logger.Info("No OpenAI API key configured, LLM features disabled")
		return nil, nil
	}

	return NewClient(openaiConfig.APIKey, openaiConfig.ModelName, f.logger), nil
}
