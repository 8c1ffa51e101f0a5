// Package prefs owns the durable user-preference document: load,
// default-fill, merge-update and persist.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Chance101/email-agent/internal/core"
	"go.uber.org/zap"
)

// StorageError indicates the preference document could not be read or
// written. It is surfaced to the caller and not retried internally.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("preferences %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError indicates an update carried a recognized key with a
// value of the wrong shape.
type ValidationError struct {
	Key string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for preference %q: %v", e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Store is the file-backed preference store. Reads take a shared lock;
// Update/Save/Load are serialized under the write lock so concurrent
// updates never interleave partial writes.
type Store struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	prefs core.Preferences
}

// NewStore creates a store persisting to path. Call Load before use.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		prefs:  core.DefaultPreferences(),
		logger: logger,
	}
}

// Load reads the document from disk. A missing file is self-healed:
// the default document is constructed and written back immediately. A
// file that exists but cannot be parsed yields a StorageError; the
// caller decides whether that is fatal.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("No preference document found, writing defaults",
			zap.String("path", s.path))
		s.prefs = core.DefaultPreferences()
		return s.saveLocked()
	}
	if err != nil {
		return &StorageError{Op: "read", Path: s.path, Err: err}
	}

	loaded := core.DefaultPreferences()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return &StorageError{Op: "parse", Path: s.path, Err: err}
	}

	// Unmarshal leaves absent keys at their defaults, but explicit
	// nulls need backfilling so the document always carries all
	// seven keys.
	fillNils(&loaded)
	s.prefs = loaded
	return nil
}

// Save serializes and overwrites the full document.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &StorageError{Op: "mkdir", Path: s.path, Err: err}
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Current returns a copy of the in-memory document.
func (s *Store) Current() core.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.prefs)
}

// Update overwrites the recognized keys present in partial and
// persists the whole document. Unrecognized keys are silently ignored.
// Nested structures are replaced wholesale: a partial update of
// "keywords" replaces both sub-lists. The updated document is returned.
func (s *Store) Update(partial map[string]json.RawMessage) (core.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := clone(s.prefs)
	for key, raw := range partial {
		var err error
		switch key {
		case "important_senders":
			err = json.Unmarshal(raw, &updated.ImportantSenders)
		case "blocked_senders":
			err = json.Unmarshal(raw, &updated.BlockedSenders)
		case "keywords":
			kw := core.KeywordSets{Important: []string{}, Spam: []string{}}
			if err = json.Unmarshal(raw, &kw); err == nil {
				updated.Keywords = kw
			}
		case "auto_archive_patterns":
			err = json.Unmarshal(raw, &updated.AutoArchivePatterns)
		case "show_promotional":
			err = json.Unmarshal(raw, &updated.ShowPromotional)
		case "minimum_importance_score":
			err = json.Unmarshal(raw, &updated.MinimumImportanceScore)
		case "enable_llm_classification":
			err = json.Unmarshal(raw, &updated.EnableLLMClassification)
		default:
			s.logger.Debug("Ignoring unrecognized preference key", zap.String("key", key))
			continue
		}
		if err != nil {
			return core.Preferences{}, &ValidationError{Key: key, Err: err}
		}
	}

	fillNils(&updated)
	s.prefs = updated
	if err := s.saveLocked(); err != nil {
		return core.Preferences{}, err
	}
	return clone(s.prefs), nil
}

// fillNils replaces nil slices with empty ones so the persisted JSON
// always encodes lists, never null.
func fillNils(p *core.Preferences) {
	if p.ImportantSenders == nil {
		p.ImportantSenders = []string{}
	}
	if p.BlockedSenders == nil {
		p.BlockedSenders = []string{}
	}
	if p.Keywords.Important == nil {
		p.Keywords.Important = []string{}
	}
	if p.Keywords.Spam == nil {
		p.Keywords.Spam = []string{}
	}
	if p.AutoArchivePatterns == nil {
		p.AutoArchivePatterns = []string{}
	}
}

func clone(p core.Preferences) core.Preferences {
	c := p
	c.ImportantSenders = append([]string(nil), p.ImportantSenders...)
	c.BlockedSenders = append([]string(nil), p.BlockedSenders...)
	c.Keywords.Important = append([]string(nil), p.Keywords.Important...)
	c.Keywords.Spam = append([]string(nil), p.Keywords.Spam...)
	c.AutoArchivePatterns = append([]string(nil), p.AutoArchivePatterns...)
	fillNils(&c)
	return c
}
