package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEvaluateBlockedSenderVeto(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())
	prefs := DefaultPreferences()
	prefs.BlockedSenders = []string{"spam@bad.com"}
	prefs.ImportantSenders = []string{"spam@bad.com"}
	prefs.Keywords.Important = []string{"urgent"}

	result := evaluator.Evaluate(&Email{
		Sender:  "Spam Bot <SPAM@BAD.COM>",
		Subject: "urgent",
		Body:    "urgent urgent urgent",
	}, prefs)

	require.True(t, result.Terminal())
	assert.Equal(t, &Verdict{
		ShowToUser:       false,
		ImportanceScore:  0,
		Action:           ActionDelete,
		RequiresResponse: false,
	}, result.Verdict)
}

func TestEvaluateScoreAccumulation(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())

	tests := []struct {
		name  string
		email Email
		setup func(*Preferences)
		want  float64
	}{
		{
			name:  "no rules match",
			email: Email{Sender: "a@b.com", Subject: "hi", Body: "hello"},
			setup: func(p *Preferences) {},
			want:  0.0,
		},
		{
			name:  "important sender",
			email: Email{Sender: "boss@co.com", Subject: "hi"},
			setup: func(p *Preferences) {
				p.ImportantSenders = []string{"boss@co.com"}
			},
			want: 0.4,
		},
		{
			name:  "important keyword in subject",
			email: Email{Sender: "a@b.com", Subject: "Quarterly Deadline"},
			setup: func(p *Preferences) {
				p.Keywords.Important = []string{"deadline"}
			},
			want: 0.3,
		},
		{
			name:  "spam keyword in body",
			email: Email{Sender: "a@b.com", Body: "Limited time OFFER"},
			setup: func(p *Preferences) {
				p.Keywords.Spam = []string{"offer"}
			},
			want: -0.3,
		},
		{
			name: "promotional label hidden",
			email: Email{
				Sender: "a@b.com",
				Labels: []string{"INBOX", PromotionalLabel},
			},
			setup: func(p *Preferences) {},
			want:  -0.2,
		},
		{
			name: "promotional label shown",
			email: Email{
				Sender: "a@b.com",
				Labels: []string{PromotionalLabel},
			},
			setup: func(p *Preferences) {
				p.ShowPromotional = true
			},
			want: 0.0,
		},
		{
			name:  "everything at once",
			email: Email{Sender: "boss@co.com", Subject: "deadline", Body: "offer", Labels: []string{PromotionalLabel}},
			setup: func(p *Preferences) {
				p.ImportantSenders = []string{"boss@co.com"}
				p.Keywords.Important = []string{"deadline"}
				p.Keywords.Spam = []string{"offer"}
			},
			want: 0.4 + 0.3 - 0.3 - 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := DefaultPreferences()
			tt.setup(&prefs)

			result := evaluator.Evaluate(&tt.email, prefs)
			require.False(t, result.Terminal())
			assert.InDelta(t, tt.want, result.Score, 1e-9)
		})
	}
}

func TestEvaluateAutoArchive(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())
	prefs := DefaultPreferences()
	prefs.AutoArchivePatterns = []string{"unsubscribe"}

	result := evaluator.Evaluate(&Email{
		Sender: "news@letter.com",
		Body:   "Click to Unsubscribe",
	}, prefs)

	require.True(t, result.Terminal())
	assert.Equal(t, ActionArchive, result.Verdict.Action)
	assert.False(t, result.Verdict.ShowToUser)
	assert.False(t, result.Verdict.RequiresResponse)
}

func TestEvaluateAutoArchiveCarriesAccumulatedScore(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())
	prefs := DefaultPreferences()
	prefs.ImportantSenders = []string{"boss@co.com"}
	prefs.AutoArchivePatterns = []string{"weekly digest"}

	result := evaluator.Evaluate(&Email{
		Sender:  "boss@co.com",
		Subject: "Weekly Digest",
	}, prefs)

	require.True(t, result.Terminal())
	assert.InDelta(t, 0.4, result.Verdict.ImportanceScore, 1e-9)
}

func TestEvaluateAutoArchiveFirstMatchWins(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())
	prefs := DefaultPreferences()
	prefs.AutoArchivePatterns = []string{"digest", "unsubscribe"}

	result := evaluator.Evaluate(&Email{Body: "digest and unsubscribe"}, prefs)
	require.True(t, result.Terminal())
	assert.Equal(t, ActionArchive, result.Verdict.Action)
}

func TestEvaluateInvalidPatternSkipped(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())
	prefs := DefaultPreferences()
	prefs.AutoArchivePatterns = []string{"([unclosed", "unsubscribe"}

	result := evaluator.Evaluate(&Email{Body: "please unsubscribe"}, prefs)
	require.True(t, result.Terminal())
	assert.Equal(t, ActionArchive, result.Verdict.Action)
}

// An empty string in any match list matches every email. That is how
// substring containment works and callers depend on the behavior being
// stable, so it is pinned here rather than "fixed".
func TestEvaluateEmptyKeywordMatchesEverything(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())
	prefs := DefaultPreferences()
	prefs.Keywords.Important = []string{""}

	result := evaluator.Evaluate(&Email{Sender: "anyone@anywhere.com"}, prefs)
	require.False(t, result.Terminal())
	assert.InDelta(t, 0.3, result.Score, 1e-9)
}

func TestEvaluateMissingFieldsDegradeToEmpty(t *testing.T) {
	evaluator := NewRuleEvaluator(zap.NewNop())

	result := evaluator.Evaluate(&Email{}, DefaultPreferences())
	require.False(t, result.Terminal())
	assert.Zero(t, result.Score)
}
