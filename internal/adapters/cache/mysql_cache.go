package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Chance101/email-agent/internal/core"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL-backed assessment cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessment_cache (
			message_id VARCHAR(128) PRIMARY KEY,
			importance_score DOUBLE,
			requires_response BOOLEAN,
			action VARCHAR(16),
			assessed_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_assessment_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached assessment for a message
func (c *MySQLCache) Get(ctx context.Context, messageID string) (*core.AssessmentEntry, error) {
	var entry core.AssessmentEntry

	err := c.db.QueryRowContext(ctx, `
		SELECT message_id, importance_score, requires_response, action, assessed_at, expires_at
		FROM assessment_cache
		WHERE message_id = ? AND expires_at > NOW()
	`, messageID).Scan(&entry.MessageID, &entry.ImportanceScore, &entry.RequiresResponse,
		&entry.Action, &entry.AssessedAt, &entry.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return &entry, nil
}

// Set stores an assessment entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.AssessmentEntry) error {
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO assessment_cache
			(message_id, importance_score, requires_response, action, assessed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.MessageID, entry.ImportanceScore, entry.RequiresResponse, entry.Action,
		entry.AssessedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes an assessment entry
func (c *MySQLCache) Delete(ctx context.Context, messageID string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM assessment_cache
		WHERE message_id = ?
	`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM assessment_cache
		WHERE expires_at <= NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired assessment entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
