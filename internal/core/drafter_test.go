package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Chance101/email-agent/internal/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestDrafter(client CompletionClient, opts DrafterOptions) *Drafter {
	logger := zap.NewNop()
	return NewDrafter(client, logger, utils.NewTextProcessor(logger), opts)
}

func TestDraftReturnsGeneratedText(t *testing.T) {
	client := &stubCompletionClient{response: "Thanks for the update, I'll review it today."}
	drafter := newTestDrafter(client, DrafterOptions{MaxBodySize: 1500})

	reply := drafter.Draft(context.Background(), &Email{
		Sender:  "colleague@co.com",
		Subject: "Review request",
		Body:    "Could you take a look?",
	})

	assert.Equal(t, "Thanks for the update, I'll review it today.", reply)
}

func TestDraftFallbackWithoutClient(t *testing.T) {
	drafter := newTestDrafter(nil, DrafterOptions{})
	assert.Equal(t, FallbackReply, drafter.Draft(context.Background(), &Email{}))
}

func TestDraftFallbackOnFailure(t *testing.T) {
	client := &stubCompletionClient{err: errors.New("rate limited")}
	drafter := newTestDrafter(client, DrafterOptions{MaxBodySize: 1500})

	assert.Equal(t, FallbackReply, drafter.Draft(context.Background(), &Email{Sender: "x@y.com"}))
}

func TestDraftFallbackOnTimeout(t *testing.T) {
	drafter := newTestDrafter(slowClient{}, DrafterOptions{Timeout: 10 * time.Millisecond})

	start := time.Now()
	reply := drafter.Draft(context.Background(), &Email{})
	assert.Equal(t, FallbackReply, reply)
	assert.Less(t, time.Since(start), time.Second)
}
