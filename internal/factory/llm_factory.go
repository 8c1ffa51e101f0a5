package factory

import (
	"fmt"

	"github.com/Chance101/email-agent/internal/adapters/bedrock"
	"github.com/Chance101/email-agent/internal/adapters/gemini"
	"github.com/Chance101/email-agent/internal/adapters/openai"
	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates completion clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCompletionClient creates a completion client based on the
// configured provider. A nil client (no error) means no credential is
// configured and the agent runs in rules-only mode.
func (f *LLMFactory) CreateCompletionClient() (core.CompletionClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger).CreateClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
