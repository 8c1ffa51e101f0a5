package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Chance101/email-agent/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdvisor(client CompletionClient, opts AdvisorOptions) *Advisor {
	logger := zap.NewNop()
	return NewAdvisor(client, nil, logger, utils.NewTextProcessor(logger), opts)
}

func TestAssessParsesCleanJSON(t *testing.T) {
	client := &stubCompletionClient{
		response: `{"importance_score": 0.75, "requires_response": true, "action": "show"}`,
	}
	advisor := newTestAdvisor(client, AdvisorOptions{MaxBodySize: 1000})

	assessment := advisor.Assess(context.Background(), &Email{ID: "m1", Subject: "hi"})
	require.NotNil(t, assessment)
	assert.InDelta(t, 0.75, assessment.ImportanceScore, 1e-9)
	assert.True(t, assessment.RequiresResponse)
	assert.Equal(t, "show", assessment.Action)
}

func TestAssessParsesJSONWrappedInProse(t *testing.T) {
	client := &stubCompletionClient{
		response: "Here is my assessment:\n```json\n{\"importance_score\": 0.5, \"requires_response\": false, \"action\": \"archive\"}\n```\nHope that helps!",
	}
	advisor := newTestAdvisor(client, AdvisorOptions{MaxBodySize: 1000})

	assessment := advisor.Assess(context.Background(), &Email{ID: "m1"})
	require.NotNil(t, assessment)
	assert.InDelta(t, 0.5, assessment.ImportanceScore, 1e-9)
	assert.Equal(t, "archive", assessment.Action)
}

func TestAssessNilOnCallFailure(t *testing.T) {
	client := &stubCompletionClient{err: errors.New("upstream timeout")}
	advisor := newTestAdvisor(client, AdvisorOptions{MaxBodySize: 1000})

	assert.Nil(t, advisor.Assess(context.Background(), &Email{ID: "m1"}))
}

func TestAssessNilOnNonJSONResponse(t *testing.T) {
	client := &stubCompletionClient{response: "I cannot classify this email."}
	advisor := newTestAdvisor(client, AdvisorOptions{MaxBodySize: 1000})

	assert.Nil(t, advisor.Assess(context.Background(), &Email{ID: "m1"}))
}

func TestAssessNilWithoutClient(t *testing.T) {
	advisor := newTestAdvisor(nil, AdvisorOptions{})
	assert.Nil(t, advisor.Assess(context.Background(), &Email{ID: "m1"}))
}

// slowClient blocks until its context is cancelled.
type slowClient struct{}

func (slowClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAssessNilOnTimeout(t *testing.T) {
	advisor := newTestAdvisor(slowClient{}, AdvisorOptions{Timeout: 10 * time.Millisecond})

	start := time.Now()
	assessment := advisor.Assess(context.Background(), &Email{ID: "m1"})
	assert.Nil(t, assessment)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAssessUsesCache(t *testing.T) {
	client := &stubCompletionClient{
		response: `{"importance_score": 0.9, "requires_response": false, "action": "show"}`,
	}
	logger := zap.NewNop()
	cache := &mapCache{entries: map[string]*AssessmentEntry{}}
	advisor := NewAdvisor(client, cache, logger, utils.NewTextProcessor(logger), AdvisorOptions{
		CacheEnabled: true,
		CacheTTL:     time.Hour,
		MaxBodySize:  1000,
	})

	email := &Email{ID: "m1", Subject: "hello"}
	first := advisor.Assess(context.Background(), email)
	second := advisor.Assess(context.Background(), email)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls)
}

// mapCache is a minimal in-memory CacheRepository for advisor tests.
type mapCache struct {
	entries map[string]*AssessmentEntry
}

func (c *mapCache) Get(ctx context.Context, messageID string) (*AssessmentEntry, error) {
	entry, ok := c.entries[messageID]
	if !ok {
		return nil, errors.New("not found")
	}
	return entry, nil
}

func (c *mapCache) Set(ctx context.Context, entry *AssessmentEntry) error {
	c.entries[entry.MessageID] = entry
	return nil
}

func (c *mapCache) Delete(ctx context.Context, messageID string) error {
	delete(c.entries, messageID)
	return nil
}

func (c *mapCache) Cleanup(ctx context.Context) error { return nil }
