package factory

import (
	"fmt"
	"time"

	"github.com/Chance101/email-agent/internal/adapters/cache"
	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates assessment cache repositories
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheRepository creates a cache repository based on the configuration
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cleanupFreq, err := f.cfg.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	switch cacheType := f.cfg.GetString("cache.type"); cacheType {
	case "memory":
		return cache.NewMemoryCache(f.logger, cleanupFreq), nil
	case "sqlite":
		repo, err := cache.NewSQLiteCache(f.cfg.GetString("cache.sqlite_path"), f.logger, cleanupFreq)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "mysql":
		repo, err := cache.NewMySQLCache(f.cfg.GetString("cache.mysql_dsn"), f.logger, cleanupFreq)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

// IsCacheEnabled returns whether assessment caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.ttl")
}
