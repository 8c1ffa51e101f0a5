package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateShortTextUnchanged(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "hello", tp.Truncate("hello", 100))
}

func TestTruncateNoLimit(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	long := strings.Repeat("x", 5000)
	assert.Equal(t, long, tp.Truncate(long, 0))
}

func TestTruncateCutsAtByteLimit(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	got := tp.Truncate(strings.Repeat("a", 100), 10)
	assert.Len(t, got, 10)
}

func TestTruncateNeverSplitsRune(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	// each rune is three bytes; a limit of 4 falls mid-rune
	got := tp.Truncate("日本語", 4)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "日", got)
}

func TestSanitizeValidTextUnchanged(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "hello 日本語", tp.Sanitize("hello 日本語"))
}

func TestSanitizeDropsInvalidBytes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	got := tp.Sanitize("ok\xff\xfestill ok")
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "okstill ok", got)
}

func TestProcessTextTruncatesThenSanitizes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	got := tp.ProcessText("hello world", 5)
	assert.Equal(t, "hello", got)
}
