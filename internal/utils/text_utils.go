package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor prepares email text for inclusion in LLM prompts.
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor.
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{logger: logger}
}

// Truncate cuts text to at most maxSize bytes without splitting a
// UTF-8 sequence. maxSize <= 0 means no limit.
func (tp *TextProcessor) Truncate(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	if tp.logger != nil {
		tp.logger.Debug("Truncated text for prompt",
			zap.Int("original_size", len(text)),
			zap.Int("truncated_size", cut))
	}

	return text[:cut]
}

// Sanitize replaces invalid UTF-8 sequences with nothing, leaving a
// string safe to embed in a prompt.
func (tp *TextProcessor) Sanitize(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}

// ProcessText truncates and sanitizes text in one operation.
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.Sanitize(tp.Truncate(text, maxSize))
}
