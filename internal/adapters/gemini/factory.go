package gemini

import (
	"context"

	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
	"go.uber.org/zap"
)

// Factory creates Gemini completion clients from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateClient creates a completion client, or nil when no API key is
// configured.
func (f *Factory) CreateClient() (core.CompletionClient, error) {
	geminiConfig := f.cfg.GetGemini()
	if geminiConfig.APIKey == "" {
		f.logger.Info("No Gemini API key configured, LLM features disabled")
		return nil, nil
	}

	client, err := NewClient(context.Background(), geminiConfig.APIKey, geminiConfig.ModelName, f.logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}
