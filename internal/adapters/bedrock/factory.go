package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
)

// Factory creates Bedrock completion clients from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateClient creates a completion client backed by Amazon Bedrock.
// Credentials come from the default AWS chain.
func (f *Factory) CreateClient() (core.CompletionClient, error) {
	bedrockConfig := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockConfig.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	runtime := bedrockruntime.NewFromConfig(awsCfg)
	return NewClient(runtime, bedrockConfig.ModelID, f.logger), nil
}
