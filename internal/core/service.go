package core

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// deleteThreshold is the score below which the suggested action is
// delete, independent of the user's visibility threshold.
const deleteThreshold = 0.3

// responseIndicators are the phrases whose presence in subject+body
// marks an email as requiring a response when the advisor has no say.
var responseIndicators = []string{
	"please respond",
	"let me know",
	"what do you think",
	"your thoughts",
	"can you provide",
	"waiting for your",
	"?",
	"please reply",
}

// TriageService is the core classification engine. It orchestrates the
// rule evaluator and the LLM advisor, blends their scores and derives
// the final verdict for each email.
type TriageService struct {
	rules   *RuleEvaluator
	advisor *Advisor
	drafter *Drafter
	prefs   PreferenceSource
	logger  *zap.Logger
}

// NewTriageService creates a new triage service.
func NewTriageService(
	rules *RuleEvaluator,
	advisor *Advisor,
	drafter *Drafter,
	prefs PreferenceSource,
	logger *zap.Logger,
) *TriageService {
	return &TriageService{
		rules:   rules,
		advisor: advisor,
		drafter: drafter,
		prefs:   prefs,
		logger:  logger,
	}
}

// Classify turns an email into a verdict using the current preference
// snapshot. Rule evaluation runs first; a terminal rule verdict
// (blocked sender, auto-archive match) is returned as-is and no LLM
// call is made. Otherwise, when LLM classification is enabled and the
// advisor returns an assessment, the final score is the arithmetic
// mean of the rule score and the LLM score; on any advisor failure the
// rule score stands alone.
func (s *TriageService) Classify(ctx context.Context, email *Email) *Verdict {
	prefs := s.prefs.Current()

	result := s.rules.Evaluate(email, prefs)
	if result.Terminal() {
		s.logger.Debug("Rule evaluation produced terminal verdict",
			zap.String("message_id", email.ID),
			zap.String("action", string(result.Verdict.Action)))
		return result.Verdict
	}

	score := result.Score
	requiresResponse := s.responseHeuristic(email)

	if prefs.EnableLLMClassification {
		if assessment := s.advisor.Assess(ctx, email); assessment != nil {
			score = (score + assessment.ImportanceScore) / 2
			requiresResponse = assessment.RequiresResponse
		}
	}

	// Action and visibility are derived independently from the same
	// score; callers rely on the action even when filtering on
	// show_to_user, so the two comparisons must not be collapsed.
	var action Action
	switch {
	case score < deleteThreshold:
		action = ActionDelete
	case score < prefs.MinimumImportanceScore:
		action = ActionArchive
	default:
		action = ActionShow
	}
	showToUser := score >= prefs.MinimumImportanceScore

	return &Verdict{
		ShowToUser:       showToUser,
		ImportanceScore:  score,
		Action:           action,
		RequiresResponse: requiresResponse,
	}
}

// ClassifyAll classifies a batch of emails, preserving input order.
func (s *TriageService) ClassifyAll(ctx context.Context, emails []*Email) []*Verdict {
	verdicts := make([]*Verdict, len(emails))
	for i, email := range emails {
		verdicts[i] = s.Classify(ctx, email)
	}
	return verdicts
}

// GenerateReply produces reply text for an email, degrading to the
// drafter's fallback string when the completion service is
// unavailable.
func (s *TriageService) GenerateReply(ctx context.Context, email *Email) string {
	return s.drafter.Draft(ctx, email)
}

// responseHeuristic checks subject+body for phrases suggesting the
// email needs an answer.
func (s *TriageService) responseHeuristic(email *Email) bool {
	content := strings.ToLower(email.Subject + " " + email.Body)
	for _, indicator := range responseIndicators {
		if strings.Contains(content, indicator) {
			return true
		}
	}
	return false
}
