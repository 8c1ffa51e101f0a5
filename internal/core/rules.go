package core

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Rule-scoring weights applied during accumulation.
const (
	importantSenderBoost  = 0.4
	importantKeywordBoost = 0.3
	spamKeywordPenalty    = 0.3
	promotionalPenalty    = 0.2
)

// RuleResult is the outcome of evaluating the user's rules against one
// email. A non-nil Verdict is terminal: the blocked-sender veto or an
// auto-archive pattern matched, and LLM blending must not run.
type RuleResult struct {
	Score   float64
	Verdict *Verdict
}

// Terminal reports whether rule evaluation short-circuited.
func (r RuleResult) Terminal() bool {
	return r.Verdict != nil
}

// RuleEvaluator applies the preference rules to an email. Evaluation is
// deterministic and performs no I/O; the logger is only used to flag
// auto-archive patterns that fail to compile.
type RuleEvaluator struct {
	logger *zap.Logger
}

// NewRuleEvaluator creates a new rule evaluator.
func NewRuleEvaluator(logger *zap.Logger) *RuleEvaluator {
	return &RuleEvaluator{logger: logger}
}

// Evaluate scores an email against the preferences.
//
// A blocked sender is an absolute veto, checked before anything else.
// Otherwise the score accumulates sender, keyword and promotional
// adjustments, and auto-archive patterns are tested last, in list
// order, carrying the score accumulated so far into the verdict.
func (e *RuleEvaluator) Evaluate(email *Email, prefs Preferences) RuleResult {
	sender := strings.ToLower(email.Sender)

	if containsAny(sender, prefs.BlockedSenders) {
		return RuleResult{Verdict: &Verdict{
			ShowToUser:       false,
			ImportanceScore:  0,
			Action:           ActionDelete,
			RequiresResponse: false,
		}}
	}

	score := 0.0
	if containsAny(sender, prefs.ImportantSenders) {
		score += importantSenderBoost
	}

	content := strings.ToLower(email.Subject + " " + email.Body)
	if containsAny(content, prefs.Keywords.Important) {
		score += importantKeywordBoost
	}
	if containsAny(content, prefs.Keywords.Spam) {
		score -= spamKeywordPenalty
	}

	if !prefs.ShowPromotional && hasLabel(email, PromotionalLabel) {
		score -= promotionalPenalty
	}

	for _, pattern := range prefs.AutoArchivePatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("Skipping invalid auto-archive pattern",
					zap.String("pattern", pattern),
					zap.Error(err))
			}
			continue
		}
		if re.MatchString(content) {
			return RuleResult{
				Score: score,
				Verdict: &Verdict{
					ShowToUser:       false,
					ImportanceScore:  score,
					Action:           ActionArchive,
					RequiresResponse: false,
				},
			}
		}
	}

	return RuleResult{Score: score}
}

// containsAny reports whether haystack contains any of the needles,
// case-insensitively. The containment direction is needle-in-haystack,
// so an empty needle matches everything.
func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func hasLabel(email *Email, label string) bool {
	for _, l := range email.Labels {
		if l == label {
			return true
		}
	}
	return false
}
