package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Chance101/email-agent/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_preferences.json")
	return NewStore(path, zap.NewNop()), path
}

func TestLoadBootstrapsDefaults(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Load())

	// defaults are written back immediately
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{
		"important_senders", "blocked_senders", "keywords",
		"auto_archive_patterns", "show_promotional",
		"minimum_importance_score", "enable_llm_classification",
	} {
		assert.Contains(t, doc, key)
	}

	prefs := store.Current()
	assert.InDelta(t, 0.6, prefs.MinimumImportanceScore, 1e-9)
	assert.True(t, prefs.EnableLLMClassification)
	assert.False(t, prefs.ShowPromotional)
	assert.Empty(t, prefs.ImportantSenders)
}

func TestLoadFillsMissingKeys(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"important_senders": ["boss@co.com"]}`), 0o644))

	require.NoError(t, store.Load())

	prefs := store.Current()
	assert.Equal(t, []string{"boss@co.com"}, prefs.ImportantSenders)
	assert.NotNil(t, prefs.BlockedSenders)
	assert.NotNil(t, prefs.Keywords.Important)
	assert.InDelta(t, 0.6, prefs.MinimumImportanceScore, 1e-9)
	assert.True(t, prefs.EnableLLMClassification)
}

func TestLoadCorruptDocument(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	err := store.Load()
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "parse", storageErr.Op)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Load())

	_, err := store.Update(map[string]json.RawMessage{
		"important_senders":        json.RawMessage(`["boss@co.com", "cfo@co.com"]`),
		"keywords":                 json.RawMessage(`{"important": ["deadline"], "spam": ["offer"]}`),
		"minimum_importance_score": json.RawMessage(`0.5`),
	})
	require.NoError(t, err)
	before := store.Current()

	reloaded := NewStore(path, zap.NewNop())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, before, reloaded.Current())
}

func TestUpdateEmptyPartialIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())
	before := store.Current()

	after, err := store.Update(map[string]json.RawMessage{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, before, store.Current())
}

func TestUpdateIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())

	partial := map[string]json.RawMessage{
		"blocked_senders": json.RawMessage(`["spam@bad.com"]`),
		"show_promotional": json.RawMessage(`true`),
	}

	once, err := store.Update(partial)
	require.NoError(t, err)
	twice, err := store.Update(partial)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestUpdateIgnoresUnrecognizedKeys(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())
	before := store.Current()

	after, err := store.Update(map[string]json.RawMessage{
		"foo": json.RawMessage(`"bar"`),
	})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateReplacesKeywordsWholesale(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())

	_, err := store.Update(map[string]json.RawMessage{
		"keywords": json.RawMessage(`{"important": ["deadline"], "spam": ["offer"]}`),
	})
	require.NoError(t, err)

	// a partial keywords document drops the sub-key it omits
	after, err := store.Update(map[string]json.RawMessage{
		"keywords": json.RawMessage(`{"important": ["budget"]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"budget"}, after.Keywords.Important)
	assert.Empty(t, after.Keywords.Spam)
}

func TestUpdateRejectsWrongTypedValue(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())
	before := store.Current()

	_, err := store.Update(map[string]json.RawMessage{
		"important_senders": json.RawMessage(`"not a list"`),
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "important_senders", validationErr.Key)
	assert.Equal(t, before, store.Current())
}

func TestCurrentReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())

	_, err := store.Update(map[string]json.RawMessage{
		"important_senders": json.RawMessage(`["boss@co.com"]`),
	})
	require.NoError(t, err)

	snapshot := store.Current()
	snapshot.ImportantSenders[0] = "mutated@co.com"

	assert.Equal(t, []string{"boss@co.com"}, store.Current().ImportantSenders)
}

func TestSaveFailureSurfacesStorageError(t *testing.T) {
	dir := t.TempDir()
	// a directory at the document path makes the write fail
	path := filepath.Join(dir, "user_preferences.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	store := NewStore(path, zap.NewNop())
	err := store.Save()
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestDefaultDocumentMatchesCoreDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Load())
	assert.Equal(t, core.DefaultPreferences(), store.Current())
}
