package di

import (
	"context"
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/Chance101/email-agent/internal/adapters/gmail"
	"github.com/Chance101/email-agent/internal/adapters/httpapi"
	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
	"github.com/Chance101/email-agent/internal/factory"
	"github.com/Chance101/email-agent/internal/logging"
	"github.com/Chance101/email-agent/internal/prefs"
	"github.com/Chance101/email-agent/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register preference store, loaded eagerly so a corrupt document
	// is reported at startup
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*prefs.Store, error) {
		store := prefs.NewStore(cfg.GetString("prefs.path"), logger)
		if err := store.Load(); err != nil {
			return nil, err
		}
		return store, nil
	}); err != nil {
		return nil, err
	}

	// Register completion client
	if err := container.Provide(func(f *factory.LLMFactory) (core.CompletionClient, error) {
		return f.CreateCompletionClient()
	}); err != nil {
		return nil, err
	}

	// Register assessment cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		if !f.IsCacheEnabled() {
			return nil, nil
		}
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register rule evaluator
	if err := container.Provide(core.NewRuleEvaluator); err != nil {
		return nil, err
	}

	// Register advisor
	if err := container.Provide(func(
		cfg *config.Config,
		client core.CompletionClient,
		cacheRepo core.CacheRepository,
		cacheFactory *factory.CacheFactory,
		logger *zap.Logger,
		textProcessor *utils.TextProcessor,
	) (*core.Advisor, error) {
		timeout, err := cfg.GetDuration("llm.timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid llm timeout: %w", err)
		}
		ttl, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, fmt.Errorf("invalid cache ttl: %w", err)
		}
		return core.NewAdvisor(client, cacheRepo, logger, textProcessor, core.AdvisorOptions{
			CacheEnabled: cacheFactory.IsCacheEnabled(),
			CacheTTL:     ttl,
			Timeout:      timeout,
			MaxBodySize:  cfg.GetInt("advisor.max_body_size"),
			Temperature:  float32(cfg.GetFloat64("advisor.temperature")),
			MaxTokens:    cfg.GetInt("advisor.max_tokens"),
		}), nil
	}); err != nil {
		return nil, err
	}

	// Register drafter
	if err := container.Provide(func(
		cfg *config.Config,
		client core.CompletionClient,
		logger *zap.Logger,
		textProcessor *utils.TextProcessor,
	) (*core.Drafter, error) {
		timeout, err := cfg.GetDuration("llm.timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid llm timeout: %w", err)
		}
		return core.NewDrafter(client, logger, textProcessor, core.DrafterOptions{
			Timeout:     timeout,
			MaxBodySize: cfg.GetInt("drafter.max_body_size"),
			Temperature: float32(cfg.GetFloat64("drafter.temperature")),
			MaxTokens:   cfg.GetInt("drafter.max_tokens"),
		}), nil
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		rules *core.RuleEvaluator,
		advisor *core.Advisor,
		drafter *core.Drafter,
		store *prefs.Store,
		logger *zap.Logger,
	) *core.TriageService {
		return core.NewTriageService(rules, advisor, drafter, store, logger)
	}); err != nil {
		return nil, err
	}

	// Register mail provider
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.MailProvider, error) {
		provider, err := gmail.NewFactory(cfg, logger).CreateProvider(context.Background())
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return nil, nil
		}
		return provider, nil
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.TriageService,
		store *prefs.Store,
		mail core.MailProvider,
		logger *zap.Logger,
	) *httpapi.Server {
		return httpapi.NewServer(
			service,
			store,
			mail,
			logger,
			cfg.GetString("server.listen_address"),
			cfg.GetGmail().DefaultMaxResults,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
