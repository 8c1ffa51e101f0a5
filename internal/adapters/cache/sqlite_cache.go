package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Chance101/email-agent/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite-backed assessment cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessment_cache (
			message_id TEXT PRIMARY KEY,
			importance_score REAL,
			requires_response BOOLEAN,
			action TEXT,
			assessed_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_assessment_expires_at ON assessment_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached assessment for a message
func (c *SQLiteCache) Get(ctx context.Context, messageID string) (*core.AssessmentEntry, error) {
	var entry core.AssessmentEntry
	var assessedAt, expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT message_id, importance_score, requires_response, action, assessed_at, expires_at
		FROM assessment_cache
		WHERE message_id = ? AND expires_at > datetime('now')
	`, messageID).Scan(&entry.MessageID, &entry.ImportanceScore, &entry.RequiresResponse,
		&entry.Action, &assessedAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if entry.AssessedAt, err = time.Parse(time.RFC3339, assessedAt); err != nil {
		return nil, fmt.Errorf("failed to parse assessed_at timestamp: %w", err)
	}
	if entry.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to parse expires_at timestamp: %w", err)
	}

	return &entry, nil
}

// Set stores an assessment entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.AssessmentEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessment_cache
			(message_id, importance_score, requires_response, action, assessed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.MessageID, entry.ImportanceScore, entry.RequiresResponse, entry.Action,
		entry.AssessedAt.UTC().Format(time.RFC3339), entry.ExpiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes an assessment entry
func (c *SQLiteCache) Delete(ctx context.Context, messageID string) error {
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
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM assessment_cache
		WHERE expires_at <= datetime('now')
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

func (c *SQLiteCache) startCleanupTask() {
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
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
