package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Chance101/email-agent/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// Factory creates Gmail providers from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Gmail factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateProvider builds a Gmail provider from the configured OAuth
// credential and token files. Returns nil when the provider is
// disabled; classification endpoints still work without it.
func (f *Factory) CreateProvider(ctx context.Context) (*Provider, error) {
	gmailConfig := f.cfg.GetGmail()
	if !gmailConfig.Enabled {
		f.logger.Info("Gmail provider disabled, mailbox endpoints unavailable")
		return nil, nil
	}

	credentials, err := os.ReadFile(gmailConfig.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(credentials,
		gmailapi.GmailModifyScope, gmailapi.GmailComposeScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth credentials: %w", err)
	}

	token, err := loadToken(gmailConfig.TokenFile)
	if err != nil {
		return nil, err
	}

	return NewProvider(ctx, oauthConfig, token, f.logger)
}

// loadToken reads a previously acquired OAuth token. Acquiring the
// token in the first place is handled outside this process.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse OAuth token: %w", err)
	}
	return &token, nil
}
